/*
 * @module service/models/diagnostic
 * @description 诊断信息模型，承载转换与校验过程中发现的全部问题
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 各阶段产出诊断 -> 编排器聚合 -> 稳定排序后返回调用方
 * @rules 每个检出的问题恰好产生一条诊断，不允许静默丢弃；排序按位置优先、阶段次之
 * @dependencies 无
 * @refs service/mapper, service/validator, service/conversion
 */

package models

import "sort"

// Severity 诊断严重级别
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// rank 数值越小越严重，用于整体严重级别归并
func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	}
	return 3
}

// Phase 诊断产生的阶段，与校验器的三个有序阶段及转换阶段对应
type Phase string

const (
	PhaseSchema      Phase = "schema"      // 模板定义与分类标准交叉检查
	PhaseConversion  Phase = "conversion"  // 工作簿读取与事实映射
	PhaseStructural  Phase = "structural"  // 实例文档结构校验
	PhaseConformance Phase = "conformance" // 分类标准符合性校验
	PhaseBusiness    Phase = "business"    // 业务规则校验
)

// phaseOrder 阶段在报告中的固定次序
var phaseOrder = map[Phase]int{
	PhaseSchema:      0,
	PhaseConversion:  1,
	PhaseStructural:  2,
	PhaseConformance: 3,
	PhaseBusiness:    4,
}

// Diagnostic 一条校验发现
// 位置信息必须能回溯到触发事实所在的模板单元格
type Diagnostic struct {
	Severity Severity `json:"severity" example:"error"`
	Code     string   `json:"code" example:"type-coercion"`
	Message  string   `json:"message"`
	Phase    Phase    `json:"phase" example:"conversion"`
	Ref      CellRef  `json:"ref,omitempty"`               // 模板单元格位置，可为空（文档级）
	Concept  string   `json:"concept,omitempty"`           // 相关概念QName
	Location string   `json:"location,omitempty"`          // 生成文档内的坐标，如 context c-2
}

// SortDiagnostics 对诊断列表做确定性稳定排序
// 规则：文档级（无单元格位置）在前；有位置的按 工作表、行、列 排序；
// 同一位置按阶段次序，再按代码字典序
func SortDiagnostics(list []Diagnostic) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		al, bl := a.Ref.String() != "", b.Ref.String() != ""
		if al != bl {
			return !al
		}
		if al {
			if a.Ref.Sheet != b.Ref.Sheet {
				return a.Ref.Sheet < b.Ref.Sheet
			}
			ac, ar := a.Ref.RowCol()
			bc, br := b.Ref.RowCol()
			if ar != br {
				return ar < br
			}
			if ac != bc {
				return ac < bc
			}
		}
		if phaseOrder[a.Phase] != phaseOrder[b.Phase] {
			return phaseOrder[a.Phase] < phaseOrder[b.Phase]
		}
		return a.Code < b.Code
	})
}

// OverallSeverity 归并出诊断列表的整体严重级别，空列表返回 "none"
func OverallSeverity(list []Diagnostic) string {
	best := 99
	for _, d := range list {
		if r := d.Severity.rank(); r < best {
			best = r
		}
	}
	switch best {
	case 0:
		return string(SeverityError)
	case 1:
		return string(SeverityWarning)
	case 2:
		return string(SeverityInfo)
	}
	return "none"
}

// CountBySeverity 统计指定严重级别的诊断条数
func CountBySeverity(list []Diagnostic, s Severity) int {
	n := 0
	for _, d := range list {
		if d.Severity == s {
			n++
		}
	}
	return n
}
