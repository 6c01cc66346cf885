/*
 * @module service/conversion/service
 * @description 流水线编排器：按序驱动 工作簿读取 -> 事实映射 -> 上下文构建 -> 序列化 -> 校验，
 *              聚合诊断与产物为单一转换结果
 * @architecture 分层架构 - 业务服务层（编排）
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 读取(可短路) -> 映射(尽力而为) -> 构建 -> 序列化(不变量防御) -> 校验(尽力而为)
 * @rules 工作簿无法解析与序列化不变量破坏短路返回；映射与校验诊断聚合后继续，
 *        调用方在一次往返中拿到最大化的可行动报告
 * @dependencies github.com/google/uuid
 * @refs service/workbook, service/mapper, service/instance, service/validator
 */

package conversion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vsme-xbrl-service/service/instance"
	"vsme-xbrl-service/service/mapper"
	"vsme-xbrl-service/service/meta"
	"vsme-xbrl-service/service/models"
	"vsme-xbrl-service/service/monitoring"
	"vsme-xbrl-service/service/taxonomy"
	"vsme-xbrl-service/service/template"
	"vsme-xbrl-service/service/validator"
	"vsme-xbrl-service/service/workbook"
)

// ErrNotReady 分类标准目录或模板定义尚未加载完成
var ErrNotReady = errors.New("taxonomy catalog and template schema not loaded")

// Artifacts 目录与模板定义的一致快照
// 两者一起原子发布，单次请求全程使用同一快照
type Artifacts struct {
	Catalog *taxonomy.Catalog
	Schema  *template.Schema
}

// Provider 返回当前已发布的快照，未就绪时返回nil
type Provider func() *Artifacts

// Options 单次转换的策略选项
type Options struct {
	Filename        string
	Strict          bool // 未映射单元格按错误上报
	StrictAbort     bool // 严格模式下发现未映射单元格即放弃后续阶段
	SkipValidation  bool // 跳过XBRL校验阶段（仅做转换）
	IncludeDocument bool // 结果中内联序列化文档
}

// Service 转换流水线编排服务
type Service struct {
	provide Provider
	mapper  *mapper.Mapper
}

// NewService 创建编排服务实例
func NewService(p Provider) *Service {
	return &Service{provide: p, mapper: mapper.NewMapper()}
}

// Ready 判断依赖的目录与模板是否已加载完成
func (s *Service) Ready() bool {
	return s.provide() != nil
}

// Convert 执行一次完整的转换/校验请求
// 返回error仅在：未就绪、请求取消、内部不变量破坏；
// 其它一切问题都以诊断形式进入返回的转换结果
func (s *Service) Convert(ctx context.Context, data []byte, opts Options) (*models.ConversionResult, error) {
	art := s.provide()
	if art == nil {
		return nil, ErrNotReady
	}

	result := &models.ConversionResult{
		ID:       uuid.NewString(),
		Filename: opts.Filename,
	}
	log := slog.Default().With("conversion_id", result.ID)

	// 阶段1：工作簿读取（致命短路）
	start := time.Now()
	wb, err := workbook.Read(ctx, data)
	monitoring.ObserveStage("workbook_read", start)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			monitoring.RecordConversion(monitoring.OutcomeCanceled)
			return nil, err
		}
		// 完全不可解析的输入：单条顶层诊断，无部分报告
		result.Messages = []models.Diagnostic{{
			Severity: models.SeverityError,
			Code:     meta.CodeWorkbookFormat,
			Message:  err.Error(),
			Phase:    models.PhaseConversion,
		}}
		result.Finalize()
		monitoring.RecordConversion(monitoring.OutcomeRejected)
		log.Warn("工作簿被拒绝", "error", err)
		return result, nil
	}

	// 阶段2：事实映射（尽力而为）
	start = time.Now()
	mapped := s.mapper.Map(ctx, wb, art.Schema, art.Catalog, mapper.Options{
		Strict:      opts.Strict,
		StrictAbort: opts.StrictAbort,
	})
	monitoring.ObserveStage("fact_mapping", start)
	if err := ctx.Err(); err != nil {
		monitoring.RecordConversion(monitoring.OutcomeCanceled)
		return nil, err
	}

	result.Messages = append(result.Messages, mapped.Diagnostics...)
	result.CellsQueried = mapped.CellsQueried
	result.CellsPopulated = mapped.CellsPopulated
	result.FactCount = len(mapped.Facts)

	if mapped.Aborted {
		result.Finalize()
		monitoring.RecordConversion(monitoring.OutcomeReported)
		log.Info("严格模式中止", "facts", result.FactCount, "errors", result.ErrorCount)
		return result, nil
	}

	// 阶段3+4：上下文/单位构建与序列化（不变量防御）
	start = time.Now()
	built := instance.Build(mapped.Facts)
	doc, err := instance.NewSerializer(art.Catalog).Serialize(built)
	monitoring.ObserveStage("serialization", start)
	if err != nil {
		monitoring.RecordConversion(monitoring.OutcomeInternal)
		monitoring.RecordInvariantViolation()
		log.Error("内部不变量破坏", "error", err)
		return nil, fmt.Errorf("serialize instance: %w", err)
	}
	if opts.IncludeDocument {
		result.Document = doc
	}

	// 阶段5：校验（尽力而为，可跳过）
	if opts.SkipValidation {
		result.XBRLValid = nil
	} else {
		start = time.Now()
		vdiags := validator.NewValidator(art.Catalog).Validate(doc, built)
		monitoring.ObserveStage("validation", start)
		result.Messages = append(result.Messages, vdiags...)
		valid := models.CountBySeverity(vdiags, models.SeverityError) == 0
		result.XBRLValid = &valid
	}

	result.Success = conversionClean(result.Messages)
	result.Finalize()

	monitoring.RecordDiagnostics(string(models.SeverityError), result.ErrorCount)
	monitoring.RecordDiagnostics(string(models.SeverityWarning), result.WarningCount)
	if result.HasErrors {
		monitoring.RecordConversion(monitoring.OutcomeReported)
	} else {
		monitoring.RecordConversion(monitoring.OutcomeOK)
	}
	log.Info("转换完成",
		"facts", result.FactCount,
		"cells_queried", result.CellsQueried,
		"cells_populated", result.CellsPopulated,
		"errors", result.ErrorCount,
		"warnings", result.WarningCount)
	return result, nil
}

// conversionClean 判断转换阶段（模板交叉检查与事实映射）是否无错误级诊断
// 校验阶段的错误不影响success，由XBRLValid单独承载
func conversionClean(diags []models.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity != models.SeverityError {
			continue
		}
		if d.Phase == models.PhaseSchema || d.Phase == models.PhaseConversion {
			return false
		}
	}
	return true
}
