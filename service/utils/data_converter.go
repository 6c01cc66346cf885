/**
 * @module data_converter
 * @description 单元格数据转换工具模块，负责原始单元格值到强类型取值的转换与规范化
 * @architecture 工具函数模式，提供无状态转换方法集合
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 无状态转换：原始单元格值 -> 转换逻辑 -> 规范化词法值
 * @rules
 *   - 转换失败返回error，由映射阶段转为诊断，不中断整体处理
 *   - 数值转换使用十进制运算保证精度
 *   - 日期统一规范化为ISO 8601
 * @dependencies
 *   - github.com/spf13/cast: 宽松类型转换
 *   - github.com/shopspring/decimal: 十进制精度
 * @refs
 *   - service/mapper: 事实映射
 */

package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"vsme-xbrl-service/service/models"
)

// DataConverter 单元格数据转换器
type DataConverter struct{}

// NewDataConverter 创建新的数据转换器实例
func NewDataConverter() *DataConverter {
	return &DataConverter{}
}

// ToDecimal 转换为十进制数值
// 文本形式允许千分位逗号与空格；日期/布尔单元格不允许转为数值
func (dc *DataConverter) ToDecimal(v models.RawCellValue) (decimal.Decimal, error) {
	switch v.Kind {
	case models.CellKindNumber:
		return decimal.NewFromString(v.Value)
	case models.CellKindText:
		cleaned := strings.NewReplacer(",", "", " ", "", " ", "").Replace(strings.TrimSpace(v.Value))
		if cleaned == "" {
			return decimal.Zero, fmt.Errorf("空文本无法转换为数值")
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, fmt.Errorf("文本 %q 无法转换为数值", v.Value)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("%s 类型单元格无法转换为数值", v.Kind)
	}
}

// ToInteger 转换为整数，带小数部分的取值视为失败
func (dc *DataConverter) ToInteger(v models.RawCellValue) (decimal.Decimal, error) {
	d, err := dc.ToDecimal(v)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.Equal(d.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("取值 %s 不是整数", d.String())
	}
	return d.Truncate(0), nil
}

// ToBool 转换为布尔值
// 布尔单元格直接取值；文本接受 true/false/yes/no/1/0（不区分大小写）
func (dc *DataConverter) ToBool(v models.RawCellValue) (bool, error) {
	switch v.Kind {
	case models.CellKindBoolean:
		return v.Value == "true", nil
	case models.CellKindText:
		switch strings.ToLower(strings.TrimSpace(v.Value)) {
		case "yes", "y":
			return true, nil
		case "no", "n":
			return false, nil
		}
		b, err := cast.ToBoolE(strings.TrimSpace(v.Value))
		if err != nil {
			return false, fmt.Errorf("文本 %q 无法转换为布尔值", v.Value)
		}
		return b, nil
	case models.CellKindNumber:
		f, err := cast.ToFloat64E(v.Value)
		if err != nil {
			return false, fmt.Errorf("数值 %q 无法转换为布尔值", v.Value)
		}
		return f != 0, nil
	default:
		return false, fmt.Errorf("%s 类型单元格无法转换为布尔值", v.Kind)
	}
}

// dateLayouts 文本日期可接受的输入格式
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2.1.2006",
	"January 2, 2006",
	"2 January 2006",
}

// ToISODate 转换为ISO 8601日期字符串
func (dc *DataConverter) ToISODate(v models.RawCellValue) (string, error) {
	switch v.Kind {
	case models.CellKindDate:
		return v.Value, nil
	case models.CellKindText:
		s := strings.TrimSpace(v.Value)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("2006-01-02"), nil
			}
		}
		return "", fmt.Errorf("文本 %q 无法解析为日期", v.Value)
	default:
		return "", fmt.Errorf("%s 类型单元格无法转换为日期", v.Kind)
	}
}

// ToCleanString 转换为规范化文本（修剪首尾空白，压缩内部连续空白）
func (dc *DataConverter) ToCleanString(v models.RawCellValue) string {
	return strings.Join(strings.Fields(cast.ToString(v.Value)), " ")
}
