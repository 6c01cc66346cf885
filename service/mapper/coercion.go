/*
 * @module service/mapper/coercion
 * @description 类型强制转换表：按概念声明的数据类型查找对应的转换函数
 * @architecture 查找表模式 - 类型标签到转换函数的映射
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 原始单元格值 -> 类型对应的转换函数 -> 规范化词法值/十进制数值
 * @rules 数值类结果应用比例因子与符号翻转；枚举类在转换后另行做成员检查
 * @dependencies github.com/shopspring/decimal
 * @refs service/mapper, service/utils
 */

package mapper

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"vsme-xbrl-service/service/models"
	"vsme-xbrl-service/service/utils"
)

// coerced 一次成功转换的产物
type coerced struct {
	value   string           // 规范化词法值
	numeric *decimal.Decimal // 数值类型时非nil
}

// coerceFunc 单一数据类型的转换函数
type coerceFunc func(dc *utils.DataConverter, v models.RawCellValue, rule *models.CellMappingRule) (coerced, error)

// coercers 数据类型到转换函数的查找表
var coercers = map[models.DataType]coerceFunc{
	models.DataTypeMonetary: coerceNumeric,
	models.DataTypeNumeric:  coerceNumeric,
	models.DataTypeInteger:  coerceInteger,
	models.DataTypePercent:  coercePercent,
	models.DataTypeString:   coerceString,
	models.DataTypeBoolean:  coerceBool,
	models.DataTypeEnum:     coerceString,
	models.DataTypeDate:     coerceDate,
}

// applyTransform 对数值结果应用规则声明的比例因子与符号翻转
func applyTransform(d decimal.Decimal, rule *models.CellMappingRule) decimal.Decimal {
	if rule.Scale != 0 {
		d = d.Mul(rule.ScaleFactor())
	}
	if rule.Negate {
		d = d.Neg()
	}
	return d
}

func coerceNumeric(dc *utils.DataConverter, v models.RawCellValue, rule *models.CellMappingRule) (coerced, error) {
	d, err := dc.ToDecimal(v)
	if err != nil {
		return coerced{}, err
	}
	d = applyTransform(d, rule)
	return coerced{value: d.String(), numeric: &d}, nil
}

func coerceInteger(dc *utils.DataConverter, v models.RawCellValue, rule *models.CellMappingRule) (coerced, error) {
	d, err := dc.ToInteger(v)
	if err != nil {
		return coerced{}, err
	}
	d = applyTransform(d, rule)
	return coerced{value: d.String(), numeric: &d}, nil
}

// coercePercent 百分比：文本带%号时除以100，其余取值视为0-1小数
func coercePercent(dc *utils.DataConverter, v models.RawCellValue, rule *models.CellMappingRule) (coerced, error) {
	work := v
	percentSign := false
	if v.Kind == models.CellKindText && strings.Contains(v.Value, "%") {
		percentSign = true
		work.Value = strings.ReplaceAll(v.Value, "%", "")
	}
	d, err := dc.ToDecimal(work)
	if err != nil {
		return coerced{}, err
	}
	if percentSign {
		d = d.Div(decimal.NewFromInt(100))
	}
	d = applyTransform(d, rule)
	return coerced{value: d.String(), numeric: &d}, nil
}

func coerceString(dc *utils.DataConverter, v models.RawCellValue, _ *models.CellMappingRule) (coerced, error) {
	s := dc.ToCleanString(v)
	if s == "" {
		return coerced{}, fmt.Errorf("文本取值为空")
	}
	return coerced{value: s}, nil
}

func coerceBool(dc *utils.DataConverter, v models.RawCellValue, _ *models.CellMappingRule) (coerced, error) {
	b, err := dc.ToBool(v)
	if err != nil {
		return coerced{}, err
	}
	if b {
		return coerced{value: "true"}, nil
	}
	return coerced{value: "false"}, nil
}

func coerceDate(dc *utils.DataConverter, v models.RawCellValue, _ *models.CellMappingRule) (coerced, error) {
	iso, err := dc.ToISODate(v)
	if err != nil {
		return coerced{}, err
	}
	return coerced{value: iso}, nil
}
