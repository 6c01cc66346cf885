/*
 * @module api/controllers/response
 * @description 统一API响应结构与响应构造辅助函数
 * @architecture RESTful API架构 - 控制器层
 * @documentReference dev_docs/requirements.md
 * @stateFlow HTTP响应序列化流程
 * @rules 所有控制器通过本模块构造响应，保证响应格式一致
 * @dependencies github.com/go-chi/render
 * @refs dev_docs/model.md
 */

package controllers

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// SuccessResponse 构造成功响应
func SuccessResponse(msg string, data interface{}) APIResponse {
	return APIResponse{
		Status: 0,
		Msg:    msg,
		Data:   data,
	}
}

// ErrorResponse 构造指定状态码的错误响应
func ErrorResponse(status int, msg string, err error) APIResponse {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return APIResponse{
		Status: status,
		Msg:    msg,
	}
}

// BadRequestResponse 构造请求参数错误响应
func BadRequestResponse(msg string, err error) APIResponse {
	return ErrorResponse(400, msg, err)
}

// NotFoundResponse 构造资源不存在响应
func NotFoundResponse(msg string, err error) APIResponse {
	return ErrorResponse(404, msg, err)
}

// InternalErrorResponse 构造服务内部错误响应
func InternalErrorResponse(msg string, err error) APIResponse {
	return ErrorResponse(500, msg, err)
}
