/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference .specify/memory/test_plan.md
 * @rules 提供可重用的测试夹具（分类标准、模板定义、工作簿），确保测试环境的一致性
 * @dependencies excelize, testify, net/http/httptest
 * @refs service/taxonomy, service/template, service/workbook
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vsme-xbrl-service/service/taxonomy"
	"vsme-xbrl-service/service/template"
)

// FixtureTaxonomyJSON 测试用分类标准JSON包
// 覆盖货币/数值/整数/百分比/字符串/布尔/枚举概念、类型化维度、计算关系、
// 必填概念与取值范围约束
const FixtureTaxonomyJSON = `{
  "name": "vsme-test",
  "version": "2024-12-17",
  "entryPoint": "https://xbrl.efrag.org/taxonomy/vsme/2024-12-17/vsme-all.xsd",
  "namespaces": {
    "vsme": "https://xbrl.efrag.org/taxonomy/vsme"
  },
  "concepts": [
    {"qname": "vsme:EntityName", "label": "主体名称", "data_type": "string", "period_type": "duration"},
    {"qname": "vsme:Revenue", "label": "营业收入", "data_type": "monetary", "period_type": "duration"},
    {"qname": "vsme:Scope1Emissions", "label": "范围一排放", "data_type": "numeric", "period_type": "duration"},
    {"qname": "vsme:Scope2Emissions", "label": "范围二排放", "data_type": "numeric", "period_type": "duration"},
    {"qname": "vsme:TotalEmissions", "label": "排放合计", "data_type": "numeric", "period_type": "duration"},
    {"qname": "vsme:RenewableShare", "label": "可再生能源占比", "data_type": "percent", "period_type": "duration"},
    {"qname": "vsme:EmployeeCount", "label": "员工人数", "data_type": "integer", "period_type": "instant"},
    {"qname": "vsme:HasPolicy", "label": "是否制定政策", "data_type": "boolean", "period_type": "duration"},
    {"qname": "vsme:ReportingBasis", "label": "报告口径", "data_type": "enum", "period_type": "duration",
     "enum_values": ["vsme:Individual", "vsme:Consolidated"]},
    {"qname": "vsme:SiteName", "label": "场所名称", "data_type": "string", "period_type": "duration",
     "dimensions": ["vsme:SiteAxis"]},
    {"qname": "vsme:SiteEnergy", "label": "场所能耗", "data_type": "numeric", "period_type": "duration",
     "dimensions": ["vsme:SiteAxis"]}
  ],
  "dimensions": [
    {"qname": "vsme:SiteAxis", "typed": true}
  ],
  "calculations": [
    {"total": "vsme:TotalEmissions",
     "components": [
       {"concept": "vsme:Scope1Emissions", "weight": 1},
       {"concept": "vsme:Scope2Emissions", "weight": 1}
     ],
     "tolerance": "0.01"}
  ],
  "requiredConcepts": ["vsme:EntityName"],
  "valueRanges": [
    {"concept": "vsme:RenewableShare", "min": 0, "max": 1}
  ]
}`

// FixtureTemplateYAML 测试用模板映射定义
// General工作表承载主体与期间绑定，Report工作表承载单值映射，
// Sites工作表为类型化维度重复区域
const FixtureTemplateYAML = `name: vsme-test-template
entity:
  identifier_cell: General!C4
  scheme: http://standards.iso.org/iso/17442
period:
  start_cell: General!C5
  end_cell: General!C6
defaults:
  currency: iso4217:EUR
mappings:
  - ref: General!C3
    concept: vsme:EntityName
  - ref: Report!C4
    concept: vsme:Revenue
    unit: iso4217:EUR
    scale: 3
    decimals: 0
  - ref: Report!C5
    concept: vsme:Scope1Emissions
    unit: vsme:tCO2e
    decimals: 2
  - ref: Report!C6
    concept: vsme:Scope2Emissions
    unit: vsme:tCO2e
    decimals: 2
  - ref: Report!C7
    concept: vsme:TotalEmissions
    unit: vsme:tCO2e
    decimals: 2
  - ref: Report!C8
    concept: vsme:RenewableShare
    unit: xbrli:pure
  - ref: Report!C9
    concept: vsme:EmployeeCount
    unit: xbrli:pure
    decimals: 0
  - ref: Report!C10
    concept: vsme:HasPolicy
  - ref: Report!C11
    concept: vsme:ReportingBasis
regions:
  - name: sites
    sheet: Sites
    start_row: 2
    max_rows: 50
    axis: vsme:SiteAxis
    key_column: A
    columns:
      - column: B
        concept: vsme:SiteName
      - column: C
        concept: vsme:SiteEnergy
        unit: vsme:MWh
        decimals: 1
ignore:
  - General!A1:B10
  - Report!A1:B20
  - Sites!A1:C1
`

// LoadTestCatalog 解析测试分类标准，失败即中止测试
func LoadTestCatalog(t *testing.T) *taxonomy.Catalog {
	t.Helper()
	cat, err := taxonomy.Parse([]byte(FixtureTaxonomyJSON))
	require.NoError(t, err, "解析测试分类标准失败")
	return cat
}

// LoadTestSchema 解析测试模板定义并完成交叉检查，失败即中止测试
func LoadTestSchema(t *testing.T, cat *taxonomy.Catalog) *template.Schema {
	t.Helper()
	sch, diags, err := template.Parse([]byte(FixtureTemplateYAML), cat)
	require.NoError(t, err, "解析测试模板定义失败: %v", diags)
	return sch
}

// WorkbookBuilder 测试工作簿构建器
type WorkbookBuilder struct {
	file *excelize.File
}

// NewWorkbookBuilder 创建空白测试工作簿
func NewWorkbookBuilder() *WorkbookBuilder {
	return &WorkbookBuilder{file: excelize.NewFile()}
}

// Sheet 确保工作表存在
func (b *WorkbookBuilder) Sheet(name string) *WorkbookBuilder {
	if idx, _ := b.file.GetSheetIndex(name); idx < 0 {
		b.file.NewSheet(name)
	}
	return b
}

// Set 写入单元格值
func (b *WorkbookBuilder) Set(sheet, cell string, value interface{}) *WorkbookBuilder {
	b.Sheet(sheet)
	if err := b.file.SetCellValue(sheet, cell, value); err != nil {
		panic(fmt.Sprintf("failed to set test cell %s!%s: %v", sheet, cell, err))
	}
	return b
}

// Bytes 序列化为xlsx字节流
func (b *WorkbookBuilder) Bytes() []byte {
	var buf bytes.Buffer
	if err := b.file.Write(&buf); err != nil {
		panic(fmt.Sprintf("failed to serialize test workbook: %v", err))
	}
	return buf.Bytes()
}

// NewValidWorkbook 构建与测试模板定义完全匹配的合法工作簿
// 排放合计与分项一致，取值均落在约束范围内
func NewValidWorkbook() *WorkbookBuilder {
	return NewWorkbookBuilder().
		Set("General", "C3", "测试责任有限公司").
		Set("General", "C4", "529900T8BM49AURSDO55").
		Set("General", "C5", "2024-01-01").
		Set("General", "C6", "2024-12-31").
		Set("Report", "C4", 1250).
		Set("Report", "C5", 60.5).
		Set("Report", "C6", 39.5).
		Set("Report", "C7", 100.0).
		Set("Report", "C8", 0.42).
		Set("Report", "C9", 87).
		Set("Report", "C10", true).
		Set("Report", "C11", "vsme:Consolidated").
		Set("Sites", "A2", "site-1").
		Set("Sites", "B2", "上海工厂").
		Set("Sites", "C2", 320.5).
		Set("Sites", "A3", "site-2").
		Set("Sites", "B3", "苏州仓库").
		Set("Sites", "C3", 88.0)
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// CreateMultipartRequest 创建带文件字段的multipart请求
func (h *HTTPTestHelper) CreateMultipartRequest(url, filename string, content []byte, fields map[string]string) (*http.Request, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}

// DecodeAPIResponse 解析统一响应包裹并返回data字段
func (h *HTTPTestHelper) DecodeAPIResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Status int             `json:"status"`
		Msg    string          `json:"msg"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), "响应不是合法JSON")

	if len(envelope.Data) == 0 {
		return nil
	}
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	return data
}
