/*
 * @module service/template/schema
 * @description 模板映射定义，声明式描述模板单元格与分类标准概念的绑定，并在加载时
 *              与分类标准目录做交叉检查
 * @architecture 分层架构 - 领域服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow YAML解析 -> 坐标解析 -> 与目录交叉检查 -> 只读发布
 * @rules 交叉检查本身是产出诊断的阶段；任何错误级诊断导致加载失败（SchemaLoadError）
 * @dependencies gopkg.in/yaml.v3, github.com/xuri/excelize/v2
 * @refs service/taxonomy, service/mapper
 */

package template

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"vsme-xbrl-service/service/meta"
	"vsme-xbrl-service/service/models"
	"vsme-xbrl-service/service/taxonomy"
)

// ErrLoad 模板定义加载失败，进程级致命错误
var ErrLoad = errors.New("template schema load failed")

// defaultRegionScanLimit 重复区域缺省扫描上限（行数）
const defaultRegionScanLimit = 1000

// yaml定义结构，ref统一采用 Sheet!A1 形式
type definition struct {
	Name   string `yaml:"name"`
	Entity struct {
		IdentifierCell string `yaml:"identifier_cell"`
		Scheme         string `yaml:"scheme"`
	} `yaml:"entity"`
	Period struct {
		StartCell string `yaml:"start_cell"`
		EndCell   string `yaml:"end_cell"`
	} `yaml:"period"`
	Defaults struct {
		Currency string `yaml:"currency"`
	} `yaml:"defaults"`
	Mappings []struct {
		Ref                    string `yaml:"ref"`
		models.CellMappingRule `yaml:",inline"`
	} `yaml:"mappings"`
	Regions []models.RepeatingRegion `yaml:"regions"`
	Ignore  []string                 `yaml:"ignore"` // 标签/说明区域，Sheet!A1:B20 形式，不参与未映射检查
}

// ignoreRange 已解析的忽略区域
type ignoreRange struct {
	sheet                    string
	left, top, right, bottom int
}

// Schema 已加载并通过交叉检查的模板定义
// 加载完成后不可变，可被多个请求无锁并发读取
type Schema struct {
	Name     string
	Entity   models.EntityBinding
	Period   models.PeriodBinding
	Currency string // 缺省货币度量，如 iso4217:EUR

	rules   map[string]*models.CellMappingRule // 键为 Sheet!Cell
	order   []string                           // 规则声明顺序
	regions []models.RepeatingRegion
	sheets  []string // 模板引用到的工作表（去重，声明顺序）
	ignored []ignoreRange
}

// Load 从文件加载模板定义并与目录交叉检查
// 返回的诊断属于PhaseSchema；存在错误级诊断时err非空
func Load(path string, cat *taxonomy.Catalog) (*Schema, []models.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: 读取 %s: %v", ErrLoad, path, err)
	}
	return Parse(data, cat)
}

// Parse 解析模板定义并与目录交叉检查
func Parse(data []byte, cat *taxonomy.Catalog) (*Schema, []models.Diagnostic, error) {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, nil, fmt.Errorf("%w: YAML解析: %v", ErrLoad, err)
	}

	s := &Schema{
		Name:     def.Name,
		Currency: def.Defaults.Currency,
		rules:    make(map[string]*models.CellMappingRule, len(def.Mappings)),
	}

	var diags []models.Diagnostic
	addErr := func(code, msg string, ref models.CellRef, concept string) {
		diags = append(diags, models.Diagnostic{
			Severity: models.SeverityError,
			Code:     code,
			Message:  msg,
			Phase:    models.PhaseSchema,
			Ref:      ref,
			Concept:  concept,
		})
	}

	// 主体与期间绑定
	var ok bool
	if s.Entity.IdentifierCell, ok = parseRef(def.Entity.IdentifierCell); !ok {
		addErr(meta.CodeBadCellRef, fmt.Sprintf("主体标识单元格坐标非法: %q", def.Entity.IdentifierCell), models.CellRef{}, "")
	}
	s.Entity.Scheme = def.Entity.Scheme
	if s.Period.StartCell, ok = parseRef(def.Period.StartCell); !ok {
		addErr(meta.CodeBadCellRef, fmt.Sprintf("期间起始单元格坐标非法: %q", def.Period.StartCell), models.CellRef{}, "")
	}
	if s.Period.EndCell, ok = parseRef(def.Period.EndCell); !ok {
		addErr(meta.CodeBadCellRef, fmt.Sprintf("期间结束单元格坐标非法: %q", def.Period.EndCell), models.CellRef{}, "")
	}

	seenSheet := map[string]bool{}
	trackSheet := func(name string) {
		if name != "" && !seenSheet[name] {
			seenSheet[name] = true
			s.sheets = append(s.sheets, name)
		}
	}
	trackSheet(s.Entity.IdentifierCell.Sheet)
	trackSheet(s.Period.StartCell.Sheet)
	trackSheet(s.Period.EndCell.Sheet)

	// 单元格规则
	for i := range def.Mappings {
		m := &def.Mappings[i]
		ref, ok := parseRef(m.Ref)
		if !ok {
			addErr(meta.CodeBadCellRef, fmt.Sprintf("映射规则单元格坐标非法: %q", m.Ref), models.CellRef{}, m.Concept)
			continue
		}
		rule := m.CellMappingRule
		rule.Ref = ref
		checkRule(cat, &rule, addErr)
		key := ref.String()
		if _, dup := s.rules[key]; dup {
			addErr(meta.CodeBadCellRef, fmt.Sprintf("单元格 %s 被多条规则绑定", key), ref, rule.Concept)
			continue
		}
		s.rules[key] = &rule
		s.order = append(s.order, key)
		trackSheet(ref.Sheet)
	}

	// 重复区域
	for i := range def.Regions {
		r := &def.Regions[i]
		if r.Sheet == "" || r.StartRow < 1 {
			addErr(meta.CodeBadCellRef, fmt.Sprintf("重复区域 %s 的位置描述非法", r.Name), models.CellRef{}, "")
			continue
		}
		if r.MaxRows <= 0 {
			r.MaxRows = defaultRegionScanLimit
		}
		if dim := cat.Dimension(r.Axis); dim == nil || !dim.Typed {
			addErr(meta.CodeIllegalDimension, fmt.Sprintf("重复区域 %s 的行维度轴 %s 不是已定义的类型化维度", r.Name, r.Axis), models.CellRef{}, r.Axis)
		}
		for j := range r.Columns {
			col := &r.Columns[j]
			if _, err := excelize.ColumnNameToNumber(col.Column); err != nil {
				addErr(meta.CodeBadCellRef, fmt.Sprintf("重复区域 %s 的列 %q 非法", r.Name, col.Column), models.CellRef{}, col.Concept)
				continue
			}
			rule := models.CellMappingRule{
				Concept:  col.Concept,
				Scale:    col.Scale,
				Negate:   col.Negate,
				Unit:     col.Unit,
				Decimals: col.Decimals,
			}
			checkRule(cat, &rule, func(code, msg string, _ models.CellRef, concept string) {
				addErr(code, fmt.Sprintf("重复区域 %s 列 %s: %s", r.Name, col.Column, msg), models.CellRef{}, concept)
			})
		}
		s.regions = append(s.regions, *r)
		trackSheet(r.Sheet)
	}

	// 忽略区域
	for _, raw := range def.Ignore {
		ir, ok := parseRange(raw)
		if !ok {
			addErr(meta.CodeBadCellRef, fmt.Sprintf("忽略区域 %q 非法", raw), models.CellRef{}, "")
			continue
		}
		s.ignored = append(s.ignored, ir)
	}

	if models.CountBySeverity(diags, models.SeverityError) > 0 {
		return nil, diags, fmt.Errorf("%w: 交叉检查发现 %d 处错误", ErrLoad, models.CountBySeverity(diags, models.SeverityError))
	}
	return s, diags, nil
}

// checkRule 对单条规则做目录交叉检查
func checkRule(cat *taxonomy.Catalog, rule *models.CellMappingRule, addErr func(code, msg string, ref models.CellRef, concept string)) {
	concept := cat.Resolve(rule.Concept)
	if concept == nil {
		addErr(meta.CodeUnknownConcept, fmt.Sprintf("概念 %s 不在分类标准中", rule.Concept), rule.Ref, rule.Concept)
		return
	}
	if concept.DataType.IsNumeric() && rule.Unit == "" {
		addErr(meta.CodeMissingUnit, fmt.Sprintf("数值概念 %s 的规则缺少单位", rule.Concept), rule.Ref, rule.Concept)
	}
	for axis, member := range rule.Dimensions {
		if !concept.AllowsDimension(axis) {
			addErr(meta.CodeIllegalDimension, fmt.Sprintf("概念 %s 不允许维度 %s", rule.Concept, axis), rule.Ref, rule.Concept)
			continue
		}
		if !cat.IsLegalMember(axis, member) {
			addErr(meta.CodeIllegalDimension, fmt.Sprintf("成员 %s 对维度 %s 不合法", member, axis), rule.Ref, rule.Concept)
		}
	}
}

// parseRef 解析 Sheet!A1 形式的单元格引用
func parseRef(ref string) (models.CellRef, bool) {
	i := strings.LastIndex(ref, "!")
	if i <= 0 || i == len(ref)-1 {
		return models.CellRef{}, false
	}
	sheet, cell := ref[:i], ref[i+1:]
	if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
		return models.CellRef{}, false
	}
	return models.CellRef{Sheet: sheet, Cell: cell}, true
}

// parseRange 解析 Sheet!A1:B20 形式的区域引用；单格形式 Sheet!A1 也可接受
func parseRange(raw string) (ignoreRange, bool) {
	i := strings.LastIndex(raw, "!")
	if i <= 0 || i == len(raw)-1 {
		return ignoreRange{}, false
	}
	sheet, area := raw[:i], raw[i+1:]
	first, second, ok := strings.Cut(area, ":")
	if !ok {
		second = first
	}
	lc, tr, err := excelize.CellNameToCoordinates(first)
	if err != nil {
		return ignoreRange{}, false
	}
	rc, br, err := excelize.CellNameToCoordinates(second)
	if err != nil {
		return ignoreRange{}, false
	}
	if rc < lc || br < tr {
		return ignoreRange{}, false
	}
	return ignoreRange{sheet: sheet, left: lc, top: tr, right: rc, bottom: br}, true
}

// IsIgnored 判断单元格是否落在声明的忽略区域内
func (s *Schema) IsIgnored(ref models.CellRef) bool {
	col, row := ref.RowCol()
	for _, ir := range s.ignored {
		if ir.sheet != ref.Sheet {
			continue
		}
		if col >= ir.left && col <= ir.right && row >= ir.top && row <= ir.bottom {
			return true
		}
	}
	return false
}

// RuleFor 查询指定位置的映射规则，无匹配时返回nil
func (s *Schema) RuleFor(sheet, cell string) *models.CellMappingRule {
	return s.rules[models.CellRef{Sheet: sheet, Cell: cell}.String()]
}

// Rules 按声明顺序返回全部单元格规则
func (s *Schema) Rules() []*models.CellMappingRule {
	out := make([]*models.CellMappingRule, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.rules[key])
	}
	return out
}

// Regions 返回全部重复区域描述
func (s *Schema) Regions() []models.RepeatingRegion {
	return s.regions
}

// Sheets 返回模板引用到的工作表名（声明顺序，去重）
func (s *Schema) Sheets() []string {
	return s.sheets
}

// RuleCount 返回单元格规则条数
func (s *Schema) RuleCount() int {
	return len(s.rules)
}
