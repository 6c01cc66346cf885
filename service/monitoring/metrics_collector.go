/*
 * @module service/monitoring/metrics_collector
 * @description 指标收集器，暴露转换流水线的Prometheus指标（次数、时延、诊断分布、内部不变量告警）
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 指标定义 -> 流水线埋点 -> /metrics 暴露
 * @rules 内部不变量破坏使用独立计数器，与用户输入问题在指标上严格区分
 * @dependencies github.com/prometheus/client_golang
 * @refs service/conversion, main
 */

package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 转换结果标签取值
const (
	OutcomeOK       = "ok"       // 转换完成且无错误级诊断
	OutcomeReported = "reported" // 转换完成但报告含错误级诊断
	OutcomeRejected = "rejected" // 输入整体被拒绝（无法解析的工作簿）
	OutcomeInternal = "internal" // 内部不变量破坏
	OutcomeCanceled = "canceled" // 请求在流水线中途被取消
)

var (
	conversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vsme",
		Name:      "conversions_total",
		Help:      "转换请求总数，按结果分类",
	}, []string{"outcome"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vsme",
		Name:      "conversion_stage_duration_seconds",
		Help:      "各流水线阶段耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	diagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vsme",
		Name:      "diagnostics_total",
		Help:      "产出的诊断条数，按严重级别分类",
	}, []string{"severity"})

	invariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vsme",
		Name:      "internal_invariant_violations_total",
		Help:      "内部不变量破坏次数，非零意味着核心存在缺陷",
	})
)

// RecordConversion 记录一次转换请求的结果
func RecordConversion(outcome string) {
	conversionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage 记录一个流水线阶段的耗时
func ObserveStage(stage string, start time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordDiagnostics 按严重级别累计诊断条数
func RecordDiagnostics(severity string, n int) {
	if n > 0 {
		diagnosticsTotal.WithLabelValues(severity).Add(float64(n))
	}
}

// RecordInvariantViolation 记录一次内部不变量破坏
func RecordInvariantViolation() {
	invariantViolations.Inc()
}
