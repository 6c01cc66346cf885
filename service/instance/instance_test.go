/*
 * @module service/instance/instance_test
 * @description 实例构建器与序列化器单元测试
 * @architecture 测试层 - 针对上下文/单位去重不变量与序列化确定性
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 事实集构建 -> 上下文/单位验证 -> 序列化字节流验证
 * @rules 结构相同的上下文必须折叠，标识符按首次出现顺序分配，同一输入序列化结果逐字节一致
 * @dependencies testing, testify
 * @refs builder.go, serializer.go
 */

package instance

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsme-xbrl-service/service/models"
	"vsme-xbrl-service/service/taxonomy"
)

var testEntity = models.Entity{
	Scheme:     "http://standards.iso.org/iso/17442",
	Identifier: "529900T8BM49AURSDO55",
}

var testPeriod = models.Period{Start: "2024-01-01", End: "2024-12-31"}

func numericFact(concept, value, unit string) models.Fact {
	d := decimal.RequireFromString(value)
	return models.Fact{
		Concept: concept,
		Value:   value,
		Numeric: &d,
		Entity:  testEntity,
		Period:  testPeriod,
		UnitRef: unit,
		Origin:  models.CellRef{Sheet: "Report", Cell: "C4"},
	}
}

func textFact(concept, value string) models.Fact {
	return models.Fact{
		Concept: concept,
		Value:   value,
		Entity:  testEntity,
		Period:  testPeriod,
		Origin:  models.CellRef{Sheet: "General", Cell: "C3"},
	}
}

func TestBuildCollapsesIdenticalContexts(t *testing.T) {
	facts := []models.Fact{
		textFact("vsme:EntityName", "测试公司"),
		numericFact("vsme:Revenue", "1000", "iso4217:EUR"),
		numericFact("vsme:Scope1Emissions", "60.5", "vsme:tCO2e"),
	}

	res := Build(facts)

	// 三条事实共享同一上下文
	require.Len(t, res.Contexts, 1)
	assert.Equal(t, "c-1", res.Contexts[0].ID)
	for _, f := range res.Facts {
		assert.Equal(t, "c-1", f.ContextID)
	}

	// 两种度量两个单位，文本事实无单位
	require.Len(t, res.Units, 2)
	assert.Equal(t, "u-1", res.Units[0].ID)
	assert.Equal(t, "iso4217:EUR", res.Units[0].Measure)
	assert.Equal(t, "u-2", res.Units[1].ID)
	assert.Empty(t, res.Facts[0].UnitID)
	assert.Equal(t, "u-1", res.Facts[1].UnitID)
	assert.Equal(t, "u-2", res.Facts[2].UnitID)
}

func TestBuildSeparatesDifferingContexts(t *testing.T) {
	instant := numericFact("vsme:EmployeeCount", "87", "xbrli:pure")
	instant.Period = models.Period{Instant: "2024-12-31"}

	dimensioned := numericFact("vsme:SiteEnergy", "320.5", "vsme:MWh")
	dimensioned.Dimensions = []models.DimensionValue{
		{Axis: "vsme:SiteAxis", Value: "site-1", Typed: true},
	}

	facts := []models.Fact{
		textFact("vsme:EntityName", "测试公司"),
		instant,
		dimensioned,
	}

	res := Build(facts)
	require.Len(t, res.Contexts, 3)

	// 首次出现顺序分配标识符
	assert.Equal(t, "c-1", res.Facts[0].ContextID)
	assert.Equal(t, "c-2", res.Facts[1].ContextID)
	assert.Equal(t, "c-3", res.Facts[2].ContextID)
}

func TestBuildIsDeterministic(t *testing.T) {
	facts := []models.Fact{
		textFact("vsme:EntityName", "测试公司"),
		numericFact("vsme:Revenue", "1000", "iso4217:EUR"),
	}

	a := Build(facts)
	b := Build(facts)

	require.Equal(t, len(a.Contexts), len(b.Contexts))
	for i := range a.Contexts {
		assert.Equal(t, a.Contexts[i].ID, b.Contexts[i].ID)
		assert.Equal(t, a.Contexts[i].CanonicalKey(), b.Contexts[i].CanonicalKey())
	}
}

func testCatalog(t *testing.T) *taxonomy.Catalog {
	t.Helper()
	cat, err := taxonomy.Parse([]byte(`{
		"name": "vsme-test",
		"entryPoint": "https://xbrl.efrag.org/taxonomy/vsme/2024-12-17/vsme-all.xsd",
		"namespaces": {"vsme": "https://xbrl.efrag.org/taxonomy/vsme"},
		"concepts": [
			{"qname": "vsme:EntityName", "data_type": "string", "period_type": "duration"},
			{"qname": "vsme:Revenue", "data_type": "monetary", "period_type": "duration"},
			{"qname": "vsme:SiteEnergy", "data_type": "numeric", "period_type": "duration", "dimensions": ["vsme:SiteAxis"]}
		],
		"dimensions": [{"qname": "vsme:SiteAxis", "typed": true}]
	}`))
	require.NoError(t, err)
	return cat
}

func TestSerializeWellFormedInstance(t *testing.T) {
	cat := testCatalog(t)

	dimensioned := numericFact("vsme:SiteEnergy", "320.5", "vsme:MWh")
	dimensioned.Dimensions = []models.DimensionValue{
		{Axis: "vsme:SiteAxis", Value: "site-1", Typed: true},
	}
	two := 2
	rev := numericFact("vsme:Revenue", "1250000", "iso4217:EUR")
	rev.Decimals = &two

	res := Build([]models.Fact{
		textFact("vsme:EntityName", "测试公司 <&> \"特殊\""),
		rev,
		dimensioned,
	})

	doc, err := NewSerializer(cat).Serialize(res)
	require.NoError(t, err)
	xml := string(doc)

	// 文档骨架
	assert.True(t, strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, xml, `<xbrli:xbrl`)
	assert.Contains(t, xml, `xmlns:vsme="https://xbrl.efrag.org/taxonomy/vsme"`)
	assert.Contains(t, xml, `xlink:href="https://xbrl.efrag.org/taxonomy/vsme/2024-12-17/vsme-all.xsd"`)

	// 上下文与单位
	assert.Contains(t, xml, `<xbrli:context id="c-1">`)
	assert.Contains(t, xml, `scheme="http://standards.iso.org/iso/17442"`)
	assert.Contains(t, xml, `<xbrli:startDate>2024-01-01</xbrli:startDate>`)
	assert.Contains(t, xml, `<xbrli:endDate>2024-12-31</xbrli:endDate>`)
	assert.Contains(t, xml, `<xbrli:unit id="u-1">`)
	assert.Contains(t, xml, `<xbrli:measure>iso4217:EUR</xbrli:measure>`)

	// 类型化维度
	assert.Contains(t, xml, `<xbrldi:typedMember dimension="vsme:SiteAxis">`)
	assert.Contains(t, xml, `site-1`)

	// 事实标签与转义
	assert.Contains(t, xml, `<vsme:Revenue contextRef="c-1" unitRef="u-1" decimals="2">1250000</vsme:Revenue>`)
	assert.Contains(t, xml, `测试公司 &lt;&amp;&gt;`)
	assert.NotContains(t, xml, `<&>`)
}

func TestSerializeIsByteIdentical(t *testing.T) {
	cat := testCatalog(t)
	facts := []models.Fact{
		textFact("vsme:EntityName", "测试公司"),
		numericFact("vsme:Revenue", "1000", "iso4217:EUR"),
	}

	first, err := NewSerializer(cat).Serialize(Build(facts))
	require.NoError(t, err)
	second, err := NewSerializer(cat).Serialize(Build(facts))
	require.NoError(t, err)

	assert.Equal(t, first, second, "同一输入的序列化结果必须逐字节一致")
}

func TestSerializeRejectsInvariantViolations(t *testing.T) {
	cat := testCatalog(t)

	t.Run("悬空上下文引用", func(t *testing.T) {
		res := Build([]models.Fact{textFact("vsme:EntityName", "x")})
		res.Facts[0].ContextID = "c-99"
		_, err := NewSerializer(cat).Serialize(res)
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("悬空单位引用", func(t *testing.T) {
		res := Build([]models.Fact{numericFact("vsme:Revenue", "1", "iso4217:EUR")})
		res.Facts[0].UnitID = "u-99"
		_, err := NewSerializer(cat).Serialize(res)
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("数值事实缺少单位", func(t *testing.T) {
		res := Build([]models.Fact{numericFact("vsme:Revenue", "1", "iso4217:EUR")})
		res.Facts[0].UnitID = ""
		_, err := NewSerializer(cat).Serialize(res)
		assert.ErrorIs(t, err, ErrInvariant)
	})
}
