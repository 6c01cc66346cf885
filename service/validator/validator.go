/*
 * @module service/validator/validator
 * @description 校验器主控：按 结构 -> 分类标准符合性 -> 业务规则 三个有序阶段执行检查
 * @architecture 状态机模式 - 有序阶段，前一阶段出现致命错误则后续阶段不执行
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 结构校验 -> 符合性校验 -> 业务规则校验 -> 诊断聚合
 * @rules 校验器绝不修改事实，只产出诊断；每条诊断携带可回溯到模板单元格的位置信息
 * @dependencies 无外部依赖
 * @refs service/instance, service/taxonomy
 */

package validator

import (
	"vsme-xbrl-service/service/instance"
	"vsme-xbrl-service/service/models"
	"vsme-xbrl-service/service/taxonomy"
)

// Validator 实例文档校验器
type Validator struct {
	cat *taxonomy.Catalog
}

// NewValidator 创建校验器实例
func NewValidator(cat *taxonomy.Catalog) *Validator {
	return &Validator{cat: cat}
}

// Validate 对序列化文档及其内存形态执行全部校验阶段
// 返回的诊断未排序，由编排器统一做确定性排序
func (v *Validator) Validate(doc []byte, built *instance.BuildResult) []models.Diagnostic {
	var diags []models.Diagnostic

	structural, fatal := v.checkStructural(doc, built)
	diags = append(diags, structural...)
	if fatal {
		return diags
	}

	diags = append(diags, v.checkConformance(built)...)
	diags = append(diags, v.checkBusinessRules(built)...)
	return diags
}
