/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供服务健康状态与就绪状态检查
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/requirements.md
 * @stateFlow HTTP请求处理流程
 * @rules 健康检查始终返回200；就绪检查在转换产物未加载时返回503
 * @dependencies net/http, github.com/go-chi/render
 * @refs dev_docs/model.md
 */

package controllers

import (
	"net/http"
	"time"

	"vsme-xbrl-service/service"

	"github.com/go-chi/render"
)

// HealthController 健康检查控制器
type HealthController struct{}

// NewHealthController 创建健康检查控制器实例
func NewHealthController() *HealthController {
	return &HealthController{}
}

// HealthResponse 健康检查响应结构
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string    `json:"version" example:"1.0.0"`
	Service   string    `json:"service" example:"vsme-xbrl-service"`
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "vsme-xbrl-service",
	}

	render.JSON(w, r, response)
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 检查分类标准与模板定义是否已加载，未就绪时返回503
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} APIResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	if !service.Ready() {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, ErrorResponse(http.StatusServiceUnavailable, "转换产物尚未加载", nil))
		return
	}

	response := HealthResponse{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Service:   "vsme-xbrl-service",
	}

	render.JSON(w, r, response)
}
