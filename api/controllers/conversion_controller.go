/*
 * @module api/controllers/conversion_controller
 * @description 转换控制器，接收VSME模板工作簿，驱动转换流水线并返回诊断报告
 * @architecture RESTful API架构 - 控制器层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 文件上传 -> 大小/格式预检 -> 转换流水线 -> 按结果状态返回200或422
 * @rules 转换失败（含被拒绝的工作簿）返回422并携带完整诊断报告；仅服务未就绪与内部不变量
 *        破坏不产生报告体
 * @dependencies vsme-xbrl-service/service, github.com/go-chi/render, github.com/spf13/cast
 * @refs service/conversion, dev_docs/api.md
 */

package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"vsme-xbrl-service/service"
	"vsme-xbrl-service/service/conversion"
	"vsme-xbrl-service/service/models"

	"github.com/go-chi/render"
	"github.com/spf13/cast"
)

// defaultMaxFileSize 上传文件大小上限，可由MAX_FILE_SIZE环境变量覆盖（字节）
const defaultMaxFileSize = 16 << 20

// ConversionController 转换控制器
type ConversionController struct {
	service     *conversion.Service
	maxFileSize int64
}

// NewConversionController 创建转换控制器实例
func NewConversionController() *ConversionController {
	maxSize := int64(defaultMaxFileSize)
	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		if n := cast.ToInt64(v); n > 0 {
			maxSize = n
		}
	}
	return &ConversionController{
		service:     service.GlobalConversionService,
		maxFileSize: maxSize,
	}
}

// ValidatePathRequest 按服务器本地路径转换的请求体
type ValidatePathRequest struct {
	Path            string `json:"path"`
	Strict          bool   `json:"strict"`
	StrictAbort     bool   `json:"strict_abort"`
	SkipXBRL        bool   `json:"skip_xbrl"`
	IncludeDocument bool   `json:"include_document"`
}

// Validate 转换并校验上传的模板工作簿
// @Summary 转换并校验模板工作簿
// @Description 上传xlsx模板文件，执行单元格映射、实例构建与三阶段XBRL校验，返回完整诊断报告
// @Tags 转换
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "VSME模板工作簿(xlsx)"
// @Param strict formData boolean false "严格模式：未映射单元格按错误上报"
// @Param strict_abort formData boolean false "严格模式下发现未映射单元格即放弃后续阶段"
// @Param skip_xbrl formData boolean false "跳过XBRL校验阶段"
// @Param include_document formData boolean false "结果中内联序列化实例文档"
// @Success 200 {object} APIResponse{data=models.ConversionResult}
// @Failure 400 {object} APIResponse
// @Failure 422 {object} APIResponse{data=models.ConversionResult}
// @Failure 503 {object} APIResponse
// @Router /validate [post]
func (c *ConversionController) Validate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxFileSize)
	if err := r.ParseMultipartForm(c.maxFileSize); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("解析上传表单失败，文件可能超过大小限制", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("缺少file文件字段", err))
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("仅支持xlsx格式文件", nil))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("读取上传文件失败", err))
		return
	}

	opts := conversion.Options{
		Filename:        header.Filename,
		Strict:          cast.ToBool(r.FormValue("strict")),
		StrictAbort:     cast.ToBool(r.FormValue("strict_abort")),
		SkipValidation:  cast.ToBool(r.FormValue("skip_xbrl")),
		IncludeDocument: cast.ToBool(r.FormValue("include_document")),
	}

	c.convert(w, r, data, opts)
}

// ValidatePath 转换并校验服务器本地路径下的模板工作簿
// @Summary 按本地路径转换模板工作簿
// @Description 读取服务器本地文件系统中的xlsx模板文件并执行转换流水线，用于批处理与联调场景
// @Tags 转换
// @Accept json
// @Produce json
// @Param request body ValidatePathRequest true "转换请求"
// @Success 200 {object} APIResponse{data=models.ConversionResult}
// @Failure 400 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 422 {object} APIResponse{data=models.ConversionResult}
// @Failure 503 {object} APIResponse
// @Router /validate/path [post]
func (c *ConversionController) ValidatePath(w http.ResponseWriter, r *http.Request) {
	var req ValidatePathRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("请求参数解析失败", err))
		return
	}

	if req.Path == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("path不能为空", nil))
		return
	}

	data, err := os.ReadFile(req.Path)
	if err != nil {
		if os.IsNotExist(err) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, NotFoundResponse("文件不存在", err))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, BadRequestResponse("读取文件失败", err))
		return
	}

	opts := conversion.Options{
		Filename:        filepath.Base(req.Path),
		Strict:          req.Strict,
		StrictAbort:     req.StrictAbort,
		SkipValidation:  req.SkipXBRL,
		IncludeDocument: req.IncludeDocument,
	}

	c.convert(w, r, data, opts)
}

// convert 执行转换流水线并按结果状态写响应
func (c *ConversionController) convert(w http.ResponseWriter, r *http.Request, data []byte, opts conversion.Options) {
	result, err := c.service.Convert(r.Context(), data, opts)
	if err != nil {
		if errors.Is(err, conversion.ErrNotReady) {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, ErrorResponse(http.StatusServiceUnavailable, "转换产物尚未加载", err))
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// 客户端已断开，不再写响应体
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, InternalErrorResponse("转换流水线内部错误", err))
		return
	}

	c.writeResult(w, r, result)
}

// writeResult 成功跑完返回200，存在转换级错误或被拒绝的输入返回422
func (c *ConversionController) writeResult(w http.ResponseWriter, r *http.Request, result *models.ConversionResult) {
	if !result.Success {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, APIResponse{
			Status: http.StatusUnprocessableEntity,
			Msg:    "转换未通过，详见诊断报告",
			Data:   result,
		})
		return
	}

	render.JSON(w, r, SuccessResponse("转换完成", result))
}
