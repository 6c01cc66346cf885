/*
 * @module service/models/mapping
 * @description 模板映射规则模型，定义模板单元格与分类标准概念之间的绑定关系
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 模板定义加载时创建，加载完成后只读
 * @rules 一条规则绑定一个模板位置和一个概念；重复区域按行展开为多组事实
 * @dependencies github.com/shopspring/decimal
 * @refs service/template, service/mapper
 */

package models

import "github.com/shopspring/decimal"

// CellMappingRule 单元格映射规则
// 将一个模板位置绑定到一个分类标准概念，并描述取值变换
type CellMappingRule struct {
	Ref        CellRef           `json:"ref" yaml:"-"`
	Concept    string            `json:"concept" yaml:"concept"`       // 概念QName
	Scale      int32             `json:"scale,omitempty" yaml:"scale"` // 十进制比例因子指数，如3表示千
	Negate     bool              `json:"negate,omitempty" yaml:"negate"`
	Unit       string            `json:"unit,omitempty" yaml:"unit"`             // 单位度量，如 iso4217:EUR、xbrli:pure
	Decimals   *int              `json:"decimals,omitempty" yaml:"decimals"`     // 声明精度
	Dimensions map[string]string `json:"dimensions,omitempty" yaml:"dimensions"` // 静态维度 轴QName -> 成员QName
}

// ScaleFactor 返回规则的十进制比例因子
func (r *CellMappingRule) ScaleFactor() decimal.Decimal {
	return decimal.New(1, r.Scale)
}

// RegionColumn 重复区域中一列的映射描述
type RegionColumn struct {
	Column   string `json:"column" yaml:"column"` // 列字母，如 A
	Concept  string `json:"concept" yaml:"concept"`
	Scale    int32  `json:"scale,omitempty" yaml:"scale"`
	Negate   bool   `json:"negate,omitempty" yaml:"negate"`
	Unit     string `json:"unit,omitempty" yaml:"unit"`
	Decimals *int   `json:"decimals,omitempty" yaml:"decimals"`
}

// RepeatingRegion 重复区域描述
// 自起始行逐行迭代，遇到首个整行空白即终止；每行获得独立的类型化维度成员，
// 避免行与行之间的上下文冲突
type RepeatingRegion struct {
	Name      string         `json:"name" yaml:"name"`
	Sheet     string         `json:"sheet" yaml:"sheet"`
	StartRow  int            `json:"start_row" yaml:"start_row"`
	MaxRows   int            `json:"max_rows,omitempty" yaml:"max_rows"` // 0表示不限，读取端需给出扫描上限
	Axis      string         `json:"axis" yaml:"axis"`                   // 类型化维度轴QName
	KeyColumn string         `json:"key_column,omitempty" yaml:"key_column"`
	Columns   []RegionColumn `json:"columns" yaml:"columns"`
}

// EntityBinding 报告主体绑定：标识符取自模板单元格，scheme为静态配置
type EntityBinding struct {
	IdentifierCell CellRef `json:"identifier_cell" yaml:"-"`
	Scheme         string  `json:"scheme" yaml:"scheme"`
}

// PeriodBinding 报告期间绑定
// 期间型概念使用 start/end 单元格；时点型上下文取 end 日期
type PeriodBinding struct {
	StartCell CellRef `json:"start_cell" yaml:"-"`
	EndCell   CellRef `json:"end_cell" yaml:"-"`
}
