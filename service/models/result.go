/*
 * @module service/models/result
 * @description 转换结果模型，一次转换/校验请求的最终产物
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 编排器按请求创建并返回调用方，核心不做持久化
 * @rules 调用方总能拿到结构化报告；仅启动失败和完全不可解析的输入不产生报告体
 * @dependencies 无
 * @refs service/conversion, api/controllers
 */

package models

// ConversionResult 一次转换/校验的完整结果
type ConversionResult struct {
	ID              string       `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Filename        string       `json:"filename,omitempty" example:"vsme-report.xlsx"`
	Success         bool         `json:"success"`              // 转换流水线是否无转换级错误地跑完
	XBRLValid       *bool        `json:"xbrl_valid,omitempty"` // 校验被跳过时为null
	OverallSeverity string       `json:"overall_severity" example:"warning"`
	CellsQueried    int          `json:"cells_queried"`   // 模板规则查询过的单元格数
	CellsPopulated  int          `json:"cells_populated"` // 实际产出事实的单元格数
	FactCount       int          `json:"fact_count"`
	HasErrors       bool         `json:"has_errors"`
	HasWarnings     bool         `json:"has_warnings"`
	ErrorCount      int          `json:"error_count"`
	WarningCount    int          `json:"warning_count"`
	Document        []byte       `json:"document,omitempty"` // 序列化实例文档，按需内联返回
	Messages        []Diagnostic `json:"messages"`           // 已做确定性排序
}

// Finalize 依据诊断列表回填汇总字段
func (r *ConversionResult) Finalize() {
	SortDiagnostics(r.Messages)
	r.OverallSeverity = OverallSeverity(r.Messages)
	r.ErrorCount = CountBySeverity(r.Messages, SeverityError)
	r.WarningCount = CountBySeverity(r.Messages, SeverityWarning)
	r.HasErrors = r.ErrorCount > 0
	r.HasWarnings = r.WarningCount > 0
}
