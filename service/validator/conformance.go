/*
 * @module service/validator/conformance
 * @description 分类标准符合性校验阶段：概念存在性、期间类型匹配、维度合法性、单位要求
 * @architecture 分层架构 - 校验层第二阶段
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 逐事实检查 概念 -> 期间形状 -> 单位 -> 维度
 * @rules 货币单位必须是合法的ISO 4217代码，使用golang.org/x/text/currency判定
 * @dependencies golang.org/x/text/currency
 * @refs service/validator
 */

package validator

import (
	"fmt"

	"golang.org/x/text/currency"

	"vsme-xbrl-service/service/instance"
	"vsme-xbrl-service/service/meta"
	"vsme-xbrl-service/service/models"
)

// checkConformance 执行分类标准符合性校验
func (v *Validator) checkConformance(built *instance.BuildResult) []models.Diagnostic {
	var diags []models.Diagnostic

	ctxByID := make(map[string]*models.Context, len(built.Contexts))
	for i := range built.Contexts {
		ctxByID[built.Contexts[i].ID] = &built.Contexts[i]
	}
	unitByID := make(map[string]*models.Unit, len(built.Units))
	for i := range built.Units {
		unitByID[built.Units[i].ID] = &built.Units[i]
	}

	for _, f := range built.Facts {
		concept := v.cat.Resolve(f.Concept)
		if concept == nil {
			diags = append(diags, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeUnknownConcept,
				Message:  fmt.Sprintf("概念 %s 不在分类标准中", f.Concept),
				Phase:    models.PhaseConformance,
				Ref:      f.Origin,
				Concept:  f.Concept,
			})
			continue
		}

		// 期间类型与上下文期间形状必须一致
		if ctx := ctxByID[f.ContextID]; ctx != nil {
			instant := ctx.Period.IsInstant()
			if (concept.PeriodType == models.PeriodInstant) != instant {
				diags = append(diags, models.Diagnostic{
					Severity: models.SeverityError,
					Code:     meta.CodePeriodMismatch,
					Message:  fmt.Sprintf("概念 %s 期间类型为 %s，与上下文 %s 的期间形状不符", f.Concept, concept.PeriodType, ctx.ID),
					Phase:    models.PhaseConformance,
					Ref:      f.Origin,
					Concept:  f.Concept,
					Location: "context " + ctx.ID,
				})
			}

			// 维度合法性
			for _, d := range ctx.Dimensions {
				if !concept.AllowsDimension(d.Axis) {
					diags = append(diags, models.Diagnostic{
						Severity: models.SeverityError,
						Code:     meta.CodeDimensionIllegal,
						Message:  fmt.Sprintf("概念 %s 不允许维度 %s", f.Concept, d.Axis),
						Phase:    models.PhaseConformance,
						Ref:      f.Origin,
						Concept:  f.Concept,
					})
					continue
				}
				if !d.Typed && !v.cat.IsLegalMember(d.Axis, d.Value) {
					diags = append(diags, models.Diagnostic{
						Severity: models.SeverityError,
						Code:     meta.CodeDimensionIllegal,
						Message:  fmt.Sprintf("成员 %s 对维度 %s 不合法", d.Value, d.Axis),
						Phase:    models.PhaseConformance,
						Ref:      f.Origin,
						Concept:  f.Concept,
					})
				}
			}
		}

		// 数值概念的单位要求
		if concept.DataType.IsNumeric() {
			unit := unitByID[f.UnitID]
			if unit == nil {
				diags = append(diags, models.Diagnostic{
					Severity: models.SeverityError,
					Code:     meta.CodeUnitRequired,
					Message:  fmt.Sprintf("数值概念 %s 的事实缺少单位", f.Concept),
					Phase:    models.PhaseConformance,
					Ref:      f.Origin,
					Concept:  f.Concept,
				})
				continue
			}
			if concept.DataType == models.DataTypeMonetary {
				code := meta.CurrencyCode(unit.Measure)
				if code == "" {
					diags = append(diags, models.Diagnostic{
						Severity: models.SeverityError,
						Code:     meta.CodeUnitCurrency,
						Message:  fmt.Sprintf("货币概念 %s 的单位 %s 不是ISO 4217货币度量", f.Concept, unit.Measure),
						Phase:    models.PhaseConformance,
						Ref:      f.Origin,
						Concept:  f.Concept,
					})
				} else if _, err := currency.ParseISO(code); err != nil {
					diags = append(diags, models.Diagnostic{
						Severity: models.SeverityError,
						Code:     meta.CodeUnitCurrency,
						Message:  fmt.Sprintf("货币代码 %q 不是合法的ISO 4217代码", code),
						Phase:    models.PhaseConformance,
						Ref:      f.Origin,
						Concept:  f.Concept,
					})
				}
			}
		}
	}

	return diags
}
