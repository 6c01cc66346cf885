/*
 * @module service/mapper/mapper_test
 * @description 事实映射器单元测试
 * @architecture 测试层 - 使用内存工作簿与测试夹具验证映射语义
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 工作簿构建 -> 映射执行 -> 事实与诊断验证
 * @rules 覆盖类型转换、比例因子、重复区域终止、主体/期间缺失与未映射单元格策略
 * @dependencies testing, testify, vsme-xbrl-service/testutil
 * @refs mapper.go, coercion.go
 */

package mapper

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsme-xbrl-service/service/meta"
	"vsme-xbrl-service/service/models"
	"vsme-xbrl-service/service/taxonomy"
	"vsme-xbrl-service/service/template"
	"vsme-xbrl-service/testutil"
)

type fixtures struct {
	cat *taxonomy.Catalog
	sch *template.Schema
}

func loadFixtures(t *testing.T) fixtures {
	t.Helper()
	cat := testutil.LoadTestCatalog(t)
	return fixtures{cat: cat, sch: testutil.LoadTestSchema(t, cat)}
}

func mapWorkbook(t *testing.T, b *testutil.WorkbookBuilder, opts Options) *Result {
	t.Helper()
	f := loadFixtures(t)
	wb, err := readWorkbook(b.Bytes())
	require.NoError(t, err)
	return NewMapper().Map(context.Background(), wb, f.sch, f.cat, opts)
}

func factByConcept(res *Result, qname string) *models.Fact {
	for i := range res.Facts {
		if res.Facts[i].Concept == qname {
			return &res.Facts[i]
		}
	}
	return nil
}

func diagsByCode(res *Result, code string) []models.Diagnostic {
	var out []models.Diagnostic
	for _, d := range res.Diagnostics {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

func TestMapValidWorkbook(t *testing.T) {
	res := mapWorkbook(t, testutil.NewValidWorkbook(), Options{})

	assert.False(t, res.Aborted)
	assert.Empty(t, diagsByCode(res, meta.CodeTypeCoercion))
	assert.Empty(t, diagsByCode(res, meta.CodeMissingEntity))
	assert.Empty(t, diagsByCode(res, meta.CodeMissingPeriod))

	// 单值规则9条 + 区域2行×2列 = 13条事实
	assert.Len(t, res.Facts, 13)
	assert.Greater(t, res.CellsQueried, 0)
	assert.Equal(t, res.CellsPopulated, 16) // 主体1 + 期间2 + 单值9 + 区域4

	// 主体与期间传播到每条事实
	name := factByConcept(res, "vsme:EntityName")
	require.NotNil(t, name)
	assert.Equal(t, "测试责任有限公司", name.Value)
	assert.Equal(t, "529900T8BM49AURSDO55", name.Entity.Identifier)
	assert.Equal(t, "http://standards.iso.org/iso/17442", name.Entity.Scheme)
	assert.Equal(t, "2024-01-01", name.Period.Start)
	assert.Equal(t, "2024-12-31", name.Period.End)

	// 比例因子：千为单位的1250 -> 1250000
	revenue := factByConcept(res, "vsme:Revenue")
	require.NotNil(t, revenue)
	require.NotNil(t, revenue.Numeric)
	assert.Equal(t, "1250000", revenue.Numeric.String())
	assert.Equal(t, "iso4217:EUR", revenue.UnitRef)

	// 时点型概念裁剪为instant上下文，取期间结束日
	employees := factByConcept(res, "vsme:EmployeeCount")
	require.NotNil(t, employees)
	assert.Equal(t, "2024-12-31", employees.Period.Instant)
	assert.Empty(t, employees.Period.Start)

	// 布尔与枚举
	policy := factByConcept(res, "vsme:HasPolicy")
	require.NotNil(t, policy)
	assert.Equal(t, "true", policy.Value)
	basis := factByConcept(res, "vsme:ReportingBasis")
	require.NotNil(t, basis)
	assert.Equal(t, "vsme:Consolidated", basis.Value)
}

func TestMapRegionRowsCarryTypedDimension(t *testing.T) {
	res := mapWorkbook(t, testutil.NewValidWorkbook(), Options{})

	var energies []models.Fact
	for _, f := range res.Facts {
		if f.Concept == "vsme:SiteEnergy" {
			energies = append(energies, f)
		}
	}
	require.Len(t, energies, 2)

	// 每行独立的类型化维度成员，键取自键列
	require.Len(t, energies[0].Dimensions, 1)
	assert.Equal(t, "vsme:SiteAxis", energies[0].Dimensions[0].Axis)
	assert.True(t, energies[0].Dimensions[0].Typed)
	assert.Equal(t, "site-1", energies[0].Dimensions[0].Value)
	assert.Equal(t, "site-2", energies[1].Dimensions[0].Value)
	assert.NotEqual(t, energies[0].Dimensions[0].Value, energies[1].Dimensions[0].Value)
}

func TestMapRegionTerminatesAtBlankRow(t *testing.T) {
	// 第4行整行空白，第5行的内容不应被当作区域数据
	b := testutil.NewValidWorkbook().
		Set("Sites", "A5", "orphan").
		Set("Sites", "B5", "孤立行").
		Set("Sites", "C5", 1.0)

	res := mapWorkbook(t, b, Options{})

	var names []string
	for _, f := range res.Facts {
		if f.Concept == "vsme:SiteName" {
			names = append(names, f.Value)
		}
	}
	assert.Len(t, names, 2, "空白行之后的内容不应被映射")

	// 孤立行按未映射单元格上报
	unmapped := diagsByCode(res, meta.CodeUnmappedCell)
	assert.NotEmpty(t, unmapped)
}

func TestMapRegionOverflowOnlyWhenDataContinues(t *testing.T) {
	// 数据行数恰好填满扫描上限，上限外首行空白，不应告警
	full := testutil.NewValidWorkbook()
	for row := 4; row <= 51; row++ {
		full.Set("Sites", fmt.Sprintf("A%d", row), fmt.Sprintf("site-%d", row)).
			Set("Sites", fmt.Sprintf("C%d", row), 1.0)
	}
	res := mapWorkbook(t, full, Options{})
	assert.Empty(t, diagsByCode(res, meta.CodeRegionOverflow))

	rows := 0
	for _, f := range res.Facts {
		if f.Concept == "vsme:SiteEnergy" {
			rows++
		}
	}
	assert.Equal(t, 50, rows, "区域行数应达到扫描上限")

	// 上限外首行仍有数据才告警
	over := testutil.NewValidWorkbook()
	for row := 4; row <= 52; row++ {
		over.Set("Sites", fmt.Sprintf("A%d", row), fmt.Sprintf("site-%d", row)).
			Set("Sites", fmt.Sprintf("C%d", row), 1.0)
	}
	res = mapWorkbook(t, over, Options{})
	assert.Len(t, diagsByCode(res, meta.CodeRegionOverflow), 1)
}

func TestMapRegionKeyFallsBackToRowNumber(t *testing.T) {
	// 键列空白时使用行序号作为维度成员
	b := testutil.NewValidWorkbook()
	b.Set("Sites", "A2", " ")

	res := mapWorkbook(t, b, Options{})
	var first *models.Fact
	for i := range res.Facts {
		f := &res.Facts[i]
		if f.Concept == "vsme:SiteName" && f.Value == "上海工厂" {
			first = f
		}
	}
	require.NotNil(t, first)
	assert.Equal(t, "row-1", first.Dimensions[0].Value)
}

func TestMapCoercionFailureProducesDiagnosticAndContinues(t *testing.T) {
	b := testutil.NewValidWorkbook().
		Set("Report", "C5", "不是数字")

	res := mapWorkbook(t, b, Options{})

	diags := diagsByCode(res, meta.CodeTypeCoercion)
	require.Len(t, diags, 1)
	assert.Equal(t, models.SeverityError, diags[0].Severity)
	assert.Equal(t, models.PhaseConversion, diags[0].Phase)
	assert.Equal(t, models.CellRef{Sheet: "Report", Cell: "C5"}, diags[0].Ref)
	assert.Equal(t, "vsme:Scope1Emissions", diags[0].Concept)

	// 其余单元格照常映射
	assert.Nil(t, factByConcept(res, "vsme:Scope1Emissions"))
	assert.NotNil(t, factByConcept(res, "vsme:Revenue"))
}

func TestMapEnumRejectsIllegalMember(t *testing.T) {
	b := testutil.NewValidWorkbook().
		Set("Report", "C11", "vsme:Imaginary")

	res := mapWorkbook(t, b, Options{})

	diags := diagsByCode(res, meta.CodeEnumValue)
	require.Len(t, diags, 1)
	assert.Nil(t, factByConcept(res, "vsme:ReportingBasis"))
}

func TestMapMissingEntityAndPeriodContinues(t *testing.T) {
	b := testutil.NewValidWorkbook().
		Set("General", "C4", " ").
		Set("General", "C6", "不是日期")

	res := mapWorkbook(t, b, Options{})

	assert.Len(t, diagsByCode(res, meta.CodeMissingEntity), 1)
	assert.Len(t, diagsByCode(res, meta.CodeMissingPeriod), 1)

	// 解析失败后仍以空值继续映射，不中止整次转换
	assert.NotEmpty(t, res.Facts)
	revenue := factByConcept(res, "vsme:Revenue")
	require.NotNil(t, revenue)
	assert.Empty(t, revenue.Entity.Identifier)
	assert.Empty(t, revenue.Period.End)
}

func TestMapUnmappedCellPolicy(t *testing.T) {
	b := testutil.NewValidWorkbook().
		Set("Report", "D4", "计划外内容")

	// 宽松模式：警告，不中止
	res := mapWorkbook(t, b, Options{})
	diags := diagsByCode(res, meta.CodeUnmappedCell)
	require.Len(t, diags, 1)
	assert.Equal(t, models.SeverityWarning, diags[0].Severity)
	assert.False(t, res.Aborted)

	// 严格模式：错误，不中止
	res = mapWorkbook(t, b, Options{Strict: true})
	diags = diagsByCode(res, meta.CodeUnmappedCell)
	require.Len(t, diags, 1)
	assert.Equal(t, models.SeverityError, diags[0].Severity)
	assert.False(t, res.Aborted)

	// 严格中止模式：错误且标记中止，报告仍然完整
	res = mapWorkbook(t, b, Options{Strict: true, StrictAbort: true})
	assert.True(t, res.Aborted)
	assert.NotEmpty(t, res.Facts)
}

func TestMapIgnoredAreasNotReported(t *testing.T) {
	// 忽略区域内的标签内容不产生未映射诊断
	b := testutil.NewValidWorkbook().
		Set("Report", "A3", "营业收入（千欧元）").
		Set("General", "A3", "公司名称")

	res := mapWorkbook(t, b, Options{})
	assert.Empty(t, diagsByCode(res, meta.CodeUnmappedCell))
}

func TestMapNonSchemaSheetNotScanned(t *testing.T) {
	b := testutil.NewValidWorkbook().
		Set("Notes", "A1", "自由备注")

	res := mapWorkbook(t, b, Options{Strict: true})
	assert.Empty(t, diagsByCode(res, meta.CodeUnmappedCell))
	assert.False(t, res.Aborted)
}

func TestCoercePercentVariants(t *testing.T) {
	dc := newTestConverter()
	rule := &models.CellMappingRule{Concept: "vsme:RenewableShare"}

	out, err := coercePercent(dc, textCell("42%"), rule)
	require.NoError(t, err)
	assert.Equal(t, "0.42", out.numeric.String())

	out, err = coercePercent(dc, textCell("0.42"), rule)
	require.NoError(t, err)
	assert.Equal(t, "0.42", out.numeric.String())

	out, err = coercePercent(dc, numberCell("0.42"), rule)
	require.NoError(t, err)
	assert.Equal(t, "0.42", out.numeric.String())

	_, err = coercePercent(dc, textCell("百分之四十二"), rule)
	assert.Error(t, err)
}

func TestApplyTransformScaleAndNegate(t *testing.T) {
	dc := newTestConverter()
	rule := &models.CellMappingRule{Concept: "vsme:Revenue", Scale: 3, Negate: true}

	out, err := coerceNumeric(dc, numberCell("2"), rule)
	require.NoError(t, err)
	assert.Equal(t, "-2000", out.numeric.String())
	assert.Equal(t, "-2000", out.value)
}
