/*
 * @module service/instance/builder
 * @description 上下文与单位构建器，从事实集推导最小的上下文/单位集合并回写引用
 * @architecture 分层架构 - 领域服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 事实扫描 -> 规范化键归并 -> 首次出现顺序分配标识符 -> 事实引用回写
 * @rules 标识符分配采用严格的首次出现顺序（单线程构建阶段），同一输入重复运行
 *        得到相同标识符；结构相同的上下文/单位必须折叠为同一个，这是不变量而非优化
 * @dependencies 无外部依赖
 * @refs service/mapper, service/instance/serializer
 */

package instance

import (
	"fmt"

	"vsme-xbrl-service/service/models"
)

// BuildResult 构建产物：去重后的上下文/单位与完成引用回写的事实
type BuildResult struct {
	Contexts []models.Context
	Units    []models.Unit
	Facts    []models.Fact
}

// Build 依据事实集构建上下文与单位
// 输出的每条事实恰好解析到一个上下文，数值事实恰好解析到一个单位
func Build(facts []models.Fact) *BuildResult {
	res := &BuildResult{Facts: make([]models.Fact, len(facts))}
	ctxIndex := map[string]string{}  // 规范化键 -> 上下文ID
	unitIndex := map[string]string{} // 规范化键 -> 单位ID

	for i, f := range facts {
		ctx := models.Context{
			Entity:     f.Entity,
			Period:     f.Period,
			Dimensions: f.Dimensions,
		}
		key := ctx.CanonicalKey()
		id, ok := ctxIndex[key]
		if !ok {
			id = fmt.Sprintf("c-%d", len(res.Contexts)+1)
			ctx.ID = id
			ctxIndex[key] = id
			res.Contexts = append(res.Contexts, ctx)
		}
		f.ContextID = id

		if f.UnitRef != "" {
			unit := models.Unit{Measure: f.UnitRef}
			ukey := unit.CanonicalKey()
			uid, ok := unitIndex[ukey]
			if !ok {
				uid = fmt.Sprintf("u-%d", len(res.Units)+1)
				unit.ID = uid
				unitIndex[ukey] = uid
				res.Units = append(res.Units, unit)
			}
			f.UnitID = uid
		}
		res.Facts[i] = f
	}
	return res
}
