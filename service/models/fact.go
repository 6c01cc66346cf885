/*
 * @module service/models/fact
 * @description 事实、上下文与单位模型，XBRL实例文档的核心记录类型
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 映射阶段产出事实，上下文构建阶段去重并回写标识符引用
 * @rules 结构相同的上下文/单位必须折叠为同一标识符；数值事实必须携带单位
 * @dependencies github.com/shopspring/decimal
 * @refs service/mapper, service/instance
 */

package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Entity 报告主体标识
type Entity struct {
	Scheme     string `json:"scheme" example:"https://eurofiling.info/eu/rs"`
	Identifier string `json:"identifier" example:"DUMMYLEI123456789012"`
}

// Period 报告期间，时点型仅填Instant，期间型填Start/End
// 日期统一为 ISO 8601 (YYYY-MM-DD) 字符串，保证序列化确定性
type Period struct {
	Instant string `json:"instant,omitempty"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

// IsInstant 判断是否为时点型期间
func (p Period) IsInstant() bool {
	return p.Instant != ""
}

// DimensionValue 一个维度取值：显式成员或类型化成员
type DimensionValue struct {
	Axis  string `json:"axis"`            // 维度轴QName
	Value string `json:"value"`           // 成员QName或类型化取值
	Typed bool   `json:"typed,omitempty"` // true表示类型化维度
}

// Context 实体+期间+维度组合的报告范围
type Context struct {
	ID         string           `json:"id"` // 构建阶段按首次出现顺序分配，如 c-1
	Entity     Entity           `json:"entity"`
	Period     Period           `json:"period"`
	Dimensions []DimensionValue `json:"dimensions,omitempty"`
}

// CanonicalKey 返回上下文的规范化键
// 字段全部相等的两个上下文键相同，用于结构去重；维度按轴名排序后参与键值
func (c *Context) CanonicalKey() string {
	dims := make([]string, 0, len(c.Dimensions))
	for _, d := range c.Dimensions {
		t := "e"
		if d.Typed {
			t = "t"
		}
		dims = append(dims, fmt.Sprintf("%s=%s;%s", d.Axis, d.Value, t))
	}
	sort.Strings(dims)
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		c.Entity.Scheme, c.Entity.Identifier,
		c.Period.Instant, c.Period.Start, c.Period.End,
		strings.Join(dims, ","))
}

// Unit 数值事实的计量单位，仅支持单度量形式
type Unit struct {
	ID      string `json:"id"`      // 构建阶段按首次出现顺序分配，如 u-1
	Measure string `json:"measure"` // 如 iso4217:EUR、xbrli:pure
}

// CanonicalKey 返回单位的规范化键
func (u *Unit) CanonicalKey() string {
	return u.Measure
}

// Fact 一条已打标的报告值
// 映射阶段产出时直接内嵌实体/期间/维度与单位度量；
// 上下文构建阶段据此归并并填写 ContextID/UnitID 引用
type Fact struct {
	Concept    string           `json:"concept"`
	Value      string           `json:"value"` // 规范化词法值
	Numeric    *decimal.Decimal `json:"numeric,omitempty"`
	Decimals   *int             `json:"decimals,omitempty"`
	Entity     Entity           `json:"-"`
	Period     Period           `json:"-"`
	Dimensions []DimensionValue `json:"-"`
	UnitRef    string           `json:"-"` // 单位度量，构建前
	ContextID  string           `json:"context_id,omitempty"`
	UnitID     string           `json:"unit_id,omitempty"`
	Origin     CellRef          `json:"origin"` // 来源模板单元格，用于诊断回溯
}

// IsNumeric 判断事实是否携带数值
func (f *Fact) IsNumeric() bool {
	return f.Numeric != nil
}
