/*
 * @module service/models/concept
 * @description 分类标准概念模型，定义XBRL分类标准中的可报告概念及其类型元数据
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 分类标准加载时创建，加载完成后只读
 * @rules 概念在目录加载完成后不可变，供各转换阶段并发只读访问
 * @dependencies 无
 * @refs service/taxonomy
 */

package models

import "strings"

// DataType 概念声明的数据类型
type DataType string

const (
	DataTypeMonetary DataType = "monetary" // 货币类型，必须携带ISO 4217货币单位
	DataTypeNumeric  DataType = "numeric"  // 一般数值类型
	DataTypeInteger  DataType = "integer"  // 整数类型
	DataTypePercent  DataType = "percent"  // 百分比类型，取值0-1之间的小数
	DataTypeString   DataType = "string"   // 文本类型
	DataTypeBoolean  DataType = "boolean"  // 布尔类型
	DataTypeEnum     DataType = "enum"     // 枚举类型，取值限定于成员列表
	DataTypeDate     DataType = "date"     // 日期类型，序列化为ISO 8601
)

// IsNumeric 判断该数据类型是否为数值类型（需要单位）
func (t DataType) IsNumeric() bool {
	switch t {
	case DataTypeMonetary, DataTypeNumeric, DataTypeInteger, DataTypePercent:
		return true
	}
	return false
}

// PeriodType 概念的期间类型
type PeriodType string

const (
	PeriodInstant  PeriodType = "instant"  // 时点型，上下文必须为instant
	PeriodDuration PeriodType = "duration" // 期间型，上下文必须为start/end
)

// Concept 分类标准中定义的可报告项
// 由分类标准目录持有，加载完成后不可变
type Concept struct {
	QName      string     `json:"qname" example:"vsme:TotalEnergyConsumption"`
	Label      string     `json:"label,omitempty" example:"Total energy consumption"`
	DataType   DataType   `json:"data_type" example:"numeric"`
	PeriodType PeriodType `json:"period_type" example:"duration"`
	Dimensions []string   `json:"dimensions,omitempty"` // 允许挂载的维度轴QName列表
	EnumValues []string   `json:"enum_values,omitempty"`
	Nillable   bool       `json:"nillable,omitempty"`
}

// AllowsDimension 判断概念是否允许挂载指定维度轴
func (c *Concept) AllowsDimension(axis string) bool {
	for _, d := range c.Dimensions {
		if d == axis {
			return true
		}
	}
	return false
}

// QNamePrefix 返回限定名的命名空间前缀部分
func QNamePrefix(qname string) string {
	if i := strings.Index(qname, ":"); i > 0 {
		return qname[:i]
	}
	return ""
}

// QNameLocal 返回限定名的本地名部分
func QNameLocal(qname string) string {
	if i := strings.Index(qname, ":"); i >= 0 {
		return qname[i+1:]
	}
	return qname
}
