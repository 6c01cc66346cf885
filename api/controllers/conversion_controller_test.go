/*
 * @module api/controllers/conversion_controller_test
 * @description 转换控制器单元测试
 * @architecture 测试层 - 通过httptest验证HTTP契约
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 请求构造 -> 控制器处理 -> 响应状态与报告体验证
 * @rules 覆盖200/400/404/422/503各响应路径与表单旗标透传
 * @dependencies testing, testify, net/http/httptest, vsme-xbrl-service/testutil
 * @refs conversion_controller.go, health_controller.go, meta_controller.go
 */

package controllers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsme-xbrl-service/service"
	"vsme-xbrl-service/service/conversion"
	"vsme-xbrl-service/testutil"
)

func publishTestArtifacts(t *testing.T) {
	t.Helper()
	cat := testutil.LoadTestCatalog(t)
	sch := testutil.LoadTestSchema(t, cat)
	service.PublishArtifacts(&conversion.Artifacts{Catalog: cat, Schema: sch})
	t.Cleanup(func() { service.PublishArtifacts(nil) })
}

func TestValidateEndpointSuccess(t *testing.T) {
	publishTestArtifacts(t)
	h := testutil.NewHTTPTestHelper()

	req, err := h.CreateMultipartRequest("/validate", "vsme-report.xlsx", testutil.NewValidWorkbook().Bytes(), nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	NewConversionController().Validate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := h.DecodeAPIResponse(t, w)
	require.NotNil(t, data)
	assert.Equal(t, true, data["success"])
	assert.Equal(t, true, data["xbrl_valid"])
	assert.Equal(t, "vsme-report.xlsx", data["filename"])
	assert.Equal(t, float64(13), data["fact_count"])
	assert.NotContains(t, data, "document")
}

func TestValidateEndpointFlags(t *testing.T) {
	publishTestArtifacts(t)
	h := testutil.NewHTTPTestHelper()

	req, err := h.CreateMultipartRequest("/validate", "r.xlsx", testutil.NewValidWorkbook().Bytes(), map[string]string{
		"skip_xbrl":        "true",
		"include_document": "true",
	})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	NewConversionController().Validate(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := h.DecodeAPIResponse(t, w)
	// 跳过校验时xbrl_valid为null，JSON中省略
	_, present := data["xbrl_valid"]
	assert.False(t, present)
	assert.Contains(t, data, "document")
}

func TestValidateEndpoint422OnRejectedWorkbook(t *testing.T) {
	publishTestArtifacts(t)
	h := testutil.NewHTTPTestHelper()

	req, err := h.CreateMultipartRequest("/validate", "broken.xlsx", []byte("损坏内容"), nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	NewConversionController().Validate(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	data := h.DecodeAPIResponse(t, w)
	require.NotNil(t, data)
	assert.Equal(t, false, data["success"])
	assert.Equal(t, true, data["has_errors"])
	messages, ok := data["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, messages, 1)
}

func TestValidateEndpoint422OnConversionError(t *testing.T) {
	publishTestArtifacts(t)
	h := testutil.NewHTTPTestHelper()

	// 可解析的工作簿，但数值单元格填了不可转换的文本
	content := testutil.NewValidWorkbook().Set("Report", "C5", "not a number").Bytes()
	req, err := h.CreateMultipartRequest("/validate", "report.xlsx", content, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	NewConversionController().Validate(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	data := h.DecodeAPIResponse(t, w)
	require.NotNil(t, data)
	assert.Equal(t, false, data["success"])
	assert.Equal(t, true, data["has_errors"])
}

func TestValidateEndpointRejectsNonXlsx(t *testing.T) {
	publishTestArtifacts(t)
	h := testutil.NewHTTPTestHelper()

	req, err := h.CreateMultipartRequest("/validate", "report.csv", []byte("a,b"), nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	NewConversionController().Validate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateEndpointMissingFile(t *testing.T) {
	publishTestArtifacts(t)

	req := httptest.NewRequest(http.MethodPost, "/validate", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	NewConversionController().Validate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateEndpointServiceUnavailable(t *testing.T) {
	service.PublishArtifacts(nil)
	h := testutil.NewHTTPTestHelper()

	req, err := h.CreateMultipartRequest("/validate", "r.xlsx", testutil.NewValidWorkbook().Bytes(), nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	NewConversionController().Validate(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestValidatePathEndpoint(t *testing.T) {
	publishTestArtifacts(t)
	h := testutil.NewHTTPTestHelper()

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, os.WriteFile(path, testutil.NewValidWorkbook().Bytes(), 0o600))

	req, err := h.CreateJSONRequest(http.MethodPost, "/validate/path", ValidatePathRequest{Path: path})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	NewConversionController().ValidatePath(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := h.DecodeAPIResponse(t, w)
	assert.Equal(t, true, data["success"])
	assert.Equal(t, "report.xlsx", data["filename"])
}

func TestValidatePathEndpointNotFound(t *testing.T) {
	publishTestArtifacts(t)
	h := testutil.NewHTTPTestHelper()

	req, err := h.CreateJSONRequest(http.MethodPost, "/validate/path", ValidatePathRequest{Path: "/不存在/的/文件.xlsx"})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	NewConversionController().ValidatePath(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidatePathEndpointEmptyPath(t *testing.T) {
	publishTestArtifacts(t)
	h := testutil.NewHTTPTestHelper()

	req, err := h.CreateJSONRequest(http.MethodPost, "/validate/path", ValidatePathRequest{})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	NewConversionController().ValidatePath(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadyEndpoint(t *testing.T) {
	service.PublishArtifacts(nil)
	w := httptest.NewRecorder()
	NewHealthController().Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	publishTestArtifacts(t)
	w = httptest.NewRecorder()
	NewHealthController().Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthController().Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMetaConceptsEndpoint(t *testing.T) {
	publishTestArtifacts(t)
	h := testutil.NewHTTPTestHelper()

	w := httptest.NewRecorder()
	NewMetaController().GetConcepts(w, httptest.NewRequest(http.MethodGet, "/meta/concepts", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := h.DecodeAPIResponse(t, w)
	assert.Equal(t, "vsme-test", data["name"])
	assert.Equal(t, float64(11), data["concept_count"])
	concepts, ok := data["concepts"].([]interface{})
	require.True(t, ok)
	assert.Len(t, concepts, 11)
}

func TestMetaTemplateEndpoint(t *testing.T) {
	publishTestArtifacts(t)
	h := testutil.NewHTTPTestHelper()

	w := httptest.NewRecorder()
	NewMetaController().GetTemplate(w, httptest.NewRequest(http.MethodGet, "/meta/template", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := h.DecodeAPIResponse(t, w)
	assert.Equal(t, "vsme-test-template", data["name"])
	assert.Equal(t, float64(9), data["rule_count"])
	assert.Equal(t, float64(1), data["region_count"])
}

func TestMetaEndpointsUnavailableBeforeLoad(t *testing.T) {
	service.PublishArtifacts(nil)

	w := httptest.NewRecorder()
	NewMetaController().GetConcepts(w, httptest.NewRequest(http.MethodGet, "/meta/concepts", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	NewMetaController().GetTemplate(w, httptest.NewRequest(http.MethodGet, "/meta/template", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetaDiagnosticCodesEndpoint(t *testing.T) {
	h := testutil.NewHTTPTestHelper()

	w := httptest.NewRecorder()
	NewMetaController().GetDiagnosticCodes(w, httptest.NewRequest(http.MethodGet, "/meta/diagnostic-codes", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := h.DecodeAPIResponse(t, w)
	assert.Contains(t, data, "calc-inconsistent")
	assert.Contains(t, data, "unmapped-cell")
}
