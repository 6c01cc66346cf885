/*
 * @module api/controllers/meta_controller
 * @description 元数据控制器，暴露当前已加载的分类标准概念、模板定义与诊断码表
 * @architecture RESTful API架构 - 控制器层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow HTTP请求 -> 读取当前产物快照 -> 响应返回
 * @rules 元数据接口只读，全部基于当前已发布的产物快照，与在途转换请求互不干扰
 * @dependencies vsme-xbrl-service/service, github.com/go-chi/render
 * @refs service/taxonomy, service/template, service/meta
 */

package controllers

import (
	"net/http"

	"vsme-xbrl-service/service"
	"vsme-xbrl-service/service/meta"

	"github.com/go-chi/render"
)

// MetaController 元数据控制器
type MetaController struct{}

// NewMetaController 创建元数据控制器实例
func NewMetaController() *MetaController {
	return &MetaController{}
}

// ConceptInfo 概念元数据条目
type ConceptInfo struct {
	QName      string   `json:"qname" example:"vsme:Revenue"`
	Label      string   `json:"label" example:"营业收入"`
	DataType   string   `json:"data_type" example:"monetary"`
	PeriodType string   `json:"period_type" example:"duration"`
	Dimensions []string `json:"dimensions,omitempty"`
}

// CatalogInfo 分类标准概览
type CatalogInfo struct {
	Name         string        `json:"name"`
	EntryPoint   string        `json:"entry_point,omitempty"`
	ConceptCount int           `json:"concept_count"`
	Concepts     []ConceptInfo `json:"concepts"`
}

// TemplateInfo 模板定义概览
type TemplateInfo struct {
	Name        string   `json:"name"`
	RuleCount   int      `json:"rule_count"`
	RegionCount int      `json:"region_count"`
	Sheets      []string `json:"sheets"`
}

// GetConcepts 查询分类标准概念列表
// @Summary 查询分类标准概念
// @Description 返回当前已加载分类标准中的全部概念及其类型信息
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=CatalogInfo}
// @Failure 503 {object} APIResponse
// @Router /meta/concepts [get]
func (c *MetaController) GetConcepts(w http.ResponseWriter, r *http.Request) {
	art := service.CurrentArtifacts()
	if art == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, ErrorResponse(http.StatusServiceUnavailable, "分类标准尚未加载", nil))
		return
	}

	cat := art.Catalog
	concepts := make([]ConceptInfo, 0, cat.ConceptCount())
	for _, qname := range cat.ConceptQNames() {
		concept := cat.Resolve(qname)
		concepts = append(concepts, ConceptInfo{
			QName:      concept.QName,
			Label:      concept.Label,
			DataType:   string(concept.DataType),
			PeriodType: string(concept.PeriodType),
			Dimensions: concept.Dimensions,
		})
	}

	render.JSON(w, r, SuccessResponse("查询成功", CatalogInfo{
		Name:         cat.Name,
		EntryPoint:   cat.EntryPoint,
		ConceptCount: cat.ConceptCount(),
		Concepts:     concepts,
	}))
}

// GetTemplate 查询模板定义概览
// @Summary 查询模板定义概览
// @Description 返回当前已加载模板定义的映射规则数、重复区域数与涉及的工作表
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=TemplateInfo}
// @Failure 503 {object} APIResponse
// @Router /meta/template [get]
func (c *MetaController) GetTemplate(w http.ResponseWriter, r *http.Request) {
	art := service.CurrentArtifacts()
	if art == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, ErrorResponse(http.StatusServiceUnavailable, "模板定义尚未加载", nil))
		return
	}

	sch := art.Schema
	render.JSON(w, r, SuccessResponse("查询成功", TemplateInfo{
		Name:        sch.Name,
		RuleCount:   sch.RuleCount(),
		RegionCount: len(sch.Regions()),
		Sheets:      sch.Sheets(),
	}))
}

// GetDiagnosticCodes 查询诊断码表
// @Summary 查询诊断码表
// @Description 返回全部诊断消息码及其含义说明
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=map[string]string}
// @Router /meta/diagnostic-codes [get]
func (c *MetaController) GetDiagnosticCodes(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("查询成功", meta.CodeDescriptions))
}
