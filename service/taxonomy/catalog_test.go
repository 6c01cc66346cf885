/*
 * @module service/taxonomy/catalog_test
 * @description 分类标准目录单元测试
 * @architecture 测试层 - 针对JSON包解析、索引构建与一致性校验
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow JSON包解析 -> 目录查询 -> 结果验证
 * @rules 覆盖合法包的索引查询与各类非法包的拒绝路径
 * @dependencies testing, testify
 * @refs catalog.go, models/concept.go
 */

package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsme-xbrl-service/service/models"
)

const validBundle = `{
  "name": "vsme-core",
  "version": "2024-12-17",
  "entryPoint": "https://xbrl.efrag.org/taxonomy/vsme/2024-12-17/vsme-all.xsd",
  "namespaces": {"vsme": "https://xbrl.efrag.org/taxonomy/vsme"},
  "concepts": [
    {"qname": "vsme:Revenue", "label": "营业收入", "data_type": "monetary", "period_type": "duration"},
    {"qname": "vsme:Scope1Emissions", "data_type": "numeric", "period_type": "duration"},
    {"qname": "vsme:Scope2Emissions", "data_type": "numeric", "period_type": "duration"},
    {"qname": "vsme:TotalEmissions", "data_type": "numeric", "period_type": "duration"},
    {"qname": "vsme:EmployeeCount", "data_type": "integer", "period_type": "instant"},
    {"qname": "vsme:SiteEnergy", "data_type": "numeric", "period_type": "duration", "dimensions": ["vsme:SiteAxis"]},
    {"qname": "vsme:Region", "data_type": "string", "period_type": "duration", "dimensions": ["vsme:CountryAxis"]}
  ],
  "dimensions": [
    {"qname": "vsme:SiteAxis", "typed": true},
    {"qname": "vsme:CountryAxis", "members": ["vsme:Germany", "vsme:France"]}
  ],
  "calculations": [
    {"total": "vsme:TotalEmissions",
     "components": [
       {"concept": "vsme:Scope1Emissions", "weight": 1},
       {"concept": "vsme:Scope2Emissions", "weight": 1}
     ]}
  ],
  "requiredConcepts": ["vsme:Revenue"],
  "valueRanges": [{"concept": "vsme:Revenue", "min": 0}]
}`

func TestParseValidBundle(t *testing.T) {
	cat, err := Parse([]byte(validBundle))
	require.NoError(t, err)

	assert.Equal(t, "vsme-core", cat.Name)
	assert.Equal(t, 7, cat.ConceptCount())
	assert.Equal(t, "https://xbrl.efrag.org/taxonomy/vsme/2024-12-17/vsme-all.xsd", cat.EntryPoint)

	// 概念查询
	revenue := cat.Resolve("vsme:Revenue")
	require.NotNil(t, revenue)
	assert.Equal(t, models.DataTypeMonetary, revenue.DataType)
	assert.Equal(t, models.PeriodDuration, revenue.PeriodType)
	assert.Nil(t, cat.Resolve("vsme:Unknown"))

	// 声明顺序保持
	qnames := cat.ConceptQNames()
	require.Len(t, qnames, 7)
	assert.Equal(t, "vsme:Revenue", qnames[0])
	assert.Equal(t, "vsme:Region", qnames[6])

	// 维度查询
	site := cat.Dimension("vsme:SiteAxis")
	require.NotNil(t, site)
	assert.True(t, site.Typed)
	assert.Equal(t, []string{"vsme:SiteAxis"}, cat.AllowedDimensions("vsme:SiteEnergy"))
	assert.Empty(t, cat.AllowedDimensions("vsme:Revenue"))

	// 计算关系与约束
	require.Len(t, cat.Calculations(), 1)
	assert.Equal(t, "vsme:TotalEmissions", cat.Calculations()[0].Total)
	assert.Equal(t, []string{"vsme:Revenue"}, cat.RequiredConcepts())
	require.Len(t, cat.ValueRanges(), 1)
}

func TestIsLegalMember(t *testing.T) {
	cat, err := Parse([]byte(validBundle))
	require.NoError(t, err)

	// 类型化维度任意取值合法
	assert.True(t, cat.IsLegalMember("vsme:SiteAxis", "site-1"))
	assert.True(t, cat.IsLegalMember("vsme:SiteAxis", "随便什么值"))

	// 显式维度仅枚举成员合法
	assert.True(t, cat.IsLegalMember("vsme:CountryAxis", "vsme:Germany"))
	assert.False(t, cat.IsLegalMember("vsme:CountryAxis", "vsme:Spain"))

	// 未定义维度一律非法
	assert.False(t, cat.IsLegalMember("vsme:MissingAxis", "vsme:Germany"))
}

func TestCalculationTolerance(t *testing.T) {
	c := Calculation{Total: "vsme:TotalEmissions"}
	assert.Equal(t, "0.01", c.ToleranceDecimal().String())

	c.Tolerance = "0.5"
	assert.Equal(t, "0.5", c.ToleranceDecimal().String())

	// 非法容差回退默认值
	c.Tolerance = "abc"
	assert.Equal(t, "0.01", c.ToleranceDecimal().String())
}

func TestParseRejectsInvalidBundle(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"非法JSON", `{`},
		{"概念列表为空", `{"concepts": []}`},
		{"概念缺少qname", `{"concepts": [{"data_type": "string", "period_type": "duration"}]}`},
		{"概念重复定义", `{"concepts": [
			{"qname": "vsme:A", "data_type": "string", "period_type": "duration"},
			{"qname": "vsme:A", "data_type": "string", "period_type": "duration"}]}`},
		{"期间类型非法", `{"concepts": [{"qname": "vsme:A", "data_type": "string", "period_type": "sometimes"}]}`},
		{"引用未定义维度", `{"concepts": [
			{"qname": "vsme:A", "data_type": "string", "period_type": "duration", "dimensions": ["vsme:NoAxis"]}]}`},
		{"维度重复定义", `{
			"concepts": [{"qname": "vsme:A", "data_type": "string", "period_type": "duration"}],
			"dimensions": [{"qname": "vsme:X"}, {"qname": "vsme:X"}]}`},
		{"计算关系引用未定义概念", `{
			"concepts": [{"qname": "vsme:A", "data_type": "numeric", "period_type": "duration"}],
			"calculations": [{"total": "vsme:B", "components": []}]}`},
		{"必报概念未定义", `{
			"concepts": [{"qname": "vsme:A", "data_type": "string", "period_type": "duration"}],
			"requiredConcepts": ["vsme:B"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Parse([]byte(tt.json))
			assert.Nil(t, cat)
			assert.ErrorIs(t, err, ErrLoad)
		})
	}
}
