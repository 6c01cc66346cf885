/*
 * @module service/mapper/mapper
 * @description 事实映射器，将原始单元格值与模板规则联结为带标签的类型化事实
 * @architecture 分层架构 - 领域服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 主体/期间解析 -> 单元格规则映射 -> 重复区域展开 -> 未映射单元格检查
 * @rules 本阶段尽力而为：单个坏单元格产出一条错误诊断后继续处理，绝不中止整次转换；
 *        重复区域遇首个整行空白终止，每行携带独立的类型化维度成员
 * @dependencies github.com/shopspring/decimal
 * @refs service/workbook, service/template, service/taxonomy, service/instance
 */

package mapper

import (
	"context"
	"fmt"
	"sort"

	"vsme-xbrl-service/service/meta"
	"vsme-xbrl-service/service/models"
	"vsme-xbrl-service/service/taxonomy"
	"vsme-xbrl-service/service/template"
	"vsme-xbrl-service/service/utils"
	"vsme-xbrl-service/service/workbook"

	"github.com/xuri/excelize/v2"
)

// Options 映射策略选项
type Options struct {
	Strict      bool // 未映射非空单元格按错误上报（否则为警告）
	StrictAbort bool // 严格模式下发现未映射单元格后放弃后续阶段（报告仍然完整返回）
}

// Result 映射阶段的完整产物
type Result struct {
	Facts          []models.Fact
	Diagnostics    []models.Diagnostic
	CellsQueried   int  // 规则查询过的单元格数
	CellsPopulated int  // 实际产出事实的单元格数
	Aborted        bool // 严格中止策略已触发
}

// Mapper 事实映射器
type Mapper struct {
	dc *utils.DataConverter
}

// NewMapper 创建事实映射器实例
func NewMapper() *Mapper {
	return &Mapper{dc: utils.NewDataConverter()}
}

// Map 执行一次完整映射
func (m *Mapper) Map(ctx context.Context, wb *workbook.Workbook, schema *template.Schema, cat *taxonomy.Catalog, opts Options) *Result {
	res := &Result{}
	consumed := map[string]bool{}

	entity, period := m.resolveEntityPeriod(wb, schema, res, consumed)

	// 单元格规则
	for _, rule := range schema.Rules() {
		if ctx.Err() != nil {
			return res
		}
		res.CellsQueried++
		consumed[rule.Ref.String()] = true
		v := wb.Cell(rule.Ref.Sheet, rule.Ref.Cell)
		if v.IsBlank() {
			continue
		}
		m.mapOne(v, rule, cat, entity, period, nil, res)
	}

	// 重复区域
	for _, region := range schema.Regions() {
		if ctx.Err() != nil {
			return res
		}
		m.mapRegion(wb, &region, cat, entity, period, consumed, res)
	}

	// 未映射单元格检查
	m.reportUnmapped(wb, schema, consumed, opts, res)

	return res
}

// resolveEntityPeriod 解析主体标识与报告期间绑定
// 解析失败产出诊断并以空值继续，以便后续单元格问题仍能一次性暴露
func (m *Mapper) resolveEntityPeriod(wb *workbook.Workbook, schema *template.Schema, res *Result, consumed map[string]bool) (models.Entity, models.Period) {
	entity := models.Entity{Scheme: schema.Entity.Scheme}
	period := models.Period{}

	idCell := schema.Entity.IdentifierCell
	consumed[idCell.String()] = true
	res.CellsQueried++
	if v := wb.Cell(idCell.Sheet, idCell.Cell); v.IsBlank() {
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Severity: models.SeverityError,
			Code:     meta.CodeMissingEntity,
			Message:  "报告主体标识单元格为空",
			Phase:    models.PhaseConversion,
			Ref:      idCell,
		})
	} else {
		entity.Identifier = m.dc.ToCleanString(v)
		res.CellsPopulated++
	}

	readDate := func(ref models.CellRef, label string) string {
		consumed[ref.String()] = true
		res.CellsQueried++
		v := wb.Cell(ref.Sheet, ref.Cell)
		if v.IsBlank() {
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeMissingPeriod,
				Message:  fmt.Sprintf("报告期间%s单元格为空", label),
				Phase:    models.PhaseConversion,
				Ref:      ref,
			})
			return ""
		}
		iso, err := m.dc.ToISODate(v)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeMissingPeriod,
				Message:  fmt.Sprintf("报告期间%s非法: %v", label, err),
				Phase:    models.PhaseConversion,
				Ref:      ref,
			})
			return ""
		}
		res.CellsPopulated++
		return iso
	}
	period.Start = readDate(schema.Period.StartCell, "起始")
	period.End = readDate(schema.Period.EndCell, "结束")

	return entity, period
}

// mapOne 映射单个单元格为一条事实
func (m *Mapper) mapOne(v models.RawCellValue, rule *models.CellMappingRule, cat *taxonomy.Catalog, entity models.Entity, period models.Period, extraDims []models.DimensionValue, res *Result) {
	concept := cat.Resolve(rule.Concept)
	if concept == nil {
		// 模板已通过交叉检查，此处仅防御目录热替换后的漂移
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Severity: models.SeverityError,
			Code:     meta.CodeUnknownConcept,
			Message:  fmt.Sprintf("概念 %s 不在当前分类标准中", rule.Concept),
			Phase:    models.PhaseConversion,
			Ref:      v.Ref,
			Concept:  rule.Concept,
		})
		return
	}

	coerce := coercers[concept.DataType]
	if coerce == nil {
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Severity: models.SeverityError,
			Code:     meta.CodeTypeCoercion,
			Message:  fmt.Sprintf("概念 %s 的数据类型 %s 不受支持", concept.QName, concept.DataType),
			Phase:    models.PhaseConversion,
			Ref:      v.Ref,
			Concept:  concept.QName,
		})
		return
	}
	out, err := coerce(m.dc, v, rule)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Severity: models.SeverityError,
			Code:     meta.CodeTypeCoercion,
			Message:  fmt.Sprintf("无法将取值转换为 %s 类型: %v", concept.DataType, err),
			Phase:    models.PhaseConversion,
			Ref:      v.Ref,
			Concept:  concept.QName,
		})
		return
	}

	if concept.DataType == models.DataTypeEnum && len(concept.EnumValues) > 0 {
		legal := false
		for _, e := range concept.EnumValues {
			if e == out.value {
				legal = true
				break
			}
		}
		if !legal {
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeEnumValue,
				Message:  fmt.Sprintf("取值 %q 不在概念 %s 的枚举成员内", out.value, concept.QName),
				Phase:    models.PhaseConversion,
				Ref:      v.Ref,
				Concept:  concept.QName,
			})
			return
		}
	}

	dims := make([]models.DimensionValue, 0, len(rule.Dimensions)+len(extraDims))
	for _, axis := range sortedKeys(rule.Dimensions) {
		dims = append(dims, models.DimensionValue{Axis: axis, Value: rule.Dimensions[axis]})
	}
	dims = append(dims, extraDims...)

	fact := models.Fact{
		Concept:    concept.QName,
		Value:      out.value,
		Numeric:    out.numeric,
		Decimals:   rule.Decimals,
		Entity:     entity,
		Period:     factPeriod(concept, period),
		Dimensions: dims,
		Origin:     v.Ref,
	}
	if concept.DataType.IsNumeric() {
		fact.UnitRef = rule.Unit
	}
	res.Facts = append(res.Facts, fact)
	res.CellsPopulated++
}

// factPeriod 按概念期间类型裁剪上下文期间形状
func factPeriod(concept *models.Concept, period models.Period) models.Period {
	if concept.PeriodType == models.PeriodInstant {
		return models.Period{Instant: period.End}
	}
	return models.Period{Start: period.Start, End: period.End}
}

// mapRegion 展开一个重复区域：逐行映射直至首个整行空白
func (m *Mapper) mapRegion(wb *workbook.Workbook, region *models.RepeatingRegion, cat *taxonomy.Catalog, entity models.Entity, period models.Period, consumed map[string]bool, res *Result) {
	rowsMapped := 0
	for offset := 0; offset < region.MaxRows; offset++ {
		row := region.StartRow + offset

		// 整行空白即终止；键列与数据列一并参与空白判定
		allBlank := true
		var keyVal models.RawCellValue
		if region.KeyColumn != "" {
			keyVal = wb.Cell(region.Sheet, region.KeyColumn+fmt.Sprint(row))
			consumed[keyVal.Ref.String()] = true
			if !keyVal.IsBlank() {
				allBlank = false
			}
		}
		values := make(map[string]models.RawCellValue, len(region.Columns))
		for _, col := range region.Columns {
			cell := col.Column + fmt.Sprint(row)
			v := wb.Cell(region.Sheet, cell)
			values[col.Column] = v
			consumed[v.Ref.String()] = true
			if !v.IsBlank() {
				allBlank = false
			}
		}
		if allBlank {
			return
		}
		rowsMapped++

		// 行维度成员：优先取键列取值，缺省用行序号
		key := fmt.Sprintf("row-%d", rowsMapped)
		if !keyVal.IsBlank() {
			if s := m.dc.ToCleanString(keyVal); s != "" {
				key = s
			}
		}
		rowDim := []models.DimensionValue{{Axis: region.Axis, Value: key, Typed: true}}

		for _, col := range region.Columns {
			v := values[col.Column]
			res.CellsQueried++
			if v.IsBlank() {
				continue
			}
			rule := models.CellMappingRule{
				Ref:      v.Ref,
				Concept:  col.Concept,
				Scale:    col.Scale,
				Negate:   col.Negate,
				Unit:     col.Unit,
				Decimals: col.Decimals,
			}
			m.mapOne(v, &rule, cat, entity, period, rowDim, res)
		}
	}

	// 扫描上限耗尽仍未见空白行：探查上限外首行，整行空白说明数据恰好填满，不告警
	next := region.StartRow + region.MaxRows
	overflow := false
	if region.KeyColumn != "" {
		keyVal := wb.Cell(region.Sheet, region.KeyColumn+fmt.Sprint(next))
		overflow = !keyVal.IsBlank()
	}
	for _, col := range region.Columns {
		if overflow {
			break
		}
		v := wb.Cell(region.Sheet, col.Column+fmt.Sprint(next))
		overflow = !v.IsBlank()
	}
	if !overflow {
		return
	}

	endCell, _ := excelize.CoordinatesToCellName(1, region.StartRow+region.MaxRows-1)
	res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
		Severity: models.SeverityWarning,
		Code:     meta.CodeRegionOverflow,
		Message:  fmt.Sprintf("重复区域 %s 在 %d 行扫描上限内未出现空白终止行，超出部分被忽略", region.Name, region.MaxRows),
		Phase:    models.PhaseConversion,
		Ref:      models.CellRef{Sheet: region.Sheet, Cell: endCell},
	})
}

// reportUnmapped 上报模板工作表上未被任何规则消费的非空单元格
func (m *Mapper) reportUnmapped(wb *workbook.Workbook, schema *template.Schema, consumed map[string]bool, opts Options, res *Result) {
	severity := models.SeverityWarning
	if opts.Strict {
		severity = models.SeverityError
	}

	schemaSheets := map[string]bool{}
	for _, s := range schema.Sheets() {
		schemaSheets[s] = true
	}

	found := false
	for _, v := range wb.NonBlankValues() {
		if !schemaSheets[v.Ref.Sheet] {
			continue
		}
		if consumed[v.Ref.String()] || schema.IsIgnored(v.Ref) {
			continue
		}
		found = true
		res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
			Severity: severity,
			Code:     meta.CodeUnmappedCell,
			Message:  fmt.Sprintf("单元格 %s 含有内容但没有匹配的映射规则", v.Ref),
			Phase:    models.PhaseConversion,
			Ref:      v.Ref,
		})
	}

	if found && opts.Strict && opts.StrictAbort {
		res.Aborted = true
	}
}

// sortedKeys 返回map键的字典序列表，保证维度遍历顺序确定
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
