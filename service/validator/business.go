/*
 * @module service/validator/business
 * @description 业务规则校验阶段：计算关系一致性、必报概念存在性、取值范围约束
 * @architecture 分层架构 - 校验层第三阶段
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 按上下文分组 -> 计算关系核对 -> 必报概念检查 -> 取值范围检查
 * @rules 规则内容完全由分类标准包的数据驱动，本阶段不硬编码任何具体规则；
 *        计算不一致的诊断定位到合计事实的来源单元格
 * @dependencies github.com/shopspring/decimal
 * @refs service/validator, service/taxonomy
 */

package validator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"vsme-xbrl-service/service/instance"
	"vsme-xbrl-service/service/meta"
	"vsme-xbrl-service/service/models"
)

// checkBusinessRules 执行业务规则校验
func (v *Validator) checkBusinessRules(built *instance.BuildResult) []models.Diagnostic {
	var diags []models.Diagnostic

	// 按 (概念, 上下文) 索引数值事实
	type key struct{ concept, ctx string }
	numeric := map[key]*models.Fact{}
	present := map[string]bool{}
	for i := range built.Facts {
		f := &built.Facts[i]
		present[f.Concept] = true
		if f.IsNumeric() {
			numeric[key{f.Concept, f.ContextID}] = f
		}
	}

	// 计算关系：合计 = Σ(分项×权重)，容差内一致
	for _, calc := range v.cat.Calculations() {
		for _, c := range built.Contexts {
			total, ok := numeric[key{calc.Total, c.ID}]
			if !ok {
				continue
			}
			sum := decimal.Zero
			found := 0
			for _, comp := range calc.Components {
				f, ok := numeric[key{comp.Concept, c.ID}]
				if !ok {
					continue
				}
				found++
				sum = sum.Add(f.Numeric.Mul(decimal.NewFromFloat(comp.Weight)))
			}
			if found == 0 {
				continue
			}
			diff := total.Numeric.Sub(sum).Abs()
			if diff.GreaterThan(calc.ToleranceDecimal()) {
				diags = append(diags, models.Diagnostic{
					Severity: models.SeverityError,
					Code:     meta.CodeCalcInconsistent,
					Message: fmt.Sprintf("合计 %s 声明为 %s，但分项之和为 %s（差额 %s 超出容差 %s）",
						calc.Total, total.Numeric.String(), sum.String(), diff.String(), calc.ToleranceDecimal().String()),
					Phase:    models.PhaseBusiness,
					Ref:      total.Origin,
					Concept:  calc.Total,
					Location: "context " + c.ID,
				})
			}
		}
	}

	// 必报概念存在性
	for _, q := range v.cat.RequiredConcepts() {
		if !present[q] {
			diags = append(diags, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeRequiredMissing,
				Message:  fmt.Sprintf("必报概念 %s 没有任何事实", q),
				Phase:    models.PhaseBusiness,
				Concept:  q,
			})
		}
	}

	// 取值范围约束
	for _, vr := range v.cat.ValueRanges() {
		for i := range built.Facts {
			f := &built.Facts[i]
			if f.Concept != vr.Concept || !f.IsNumeric() {
				continue
			}
			if vr.Min != nil && f.Numeric.LessThan(decimal.NewFromFloat(*vr.Min)) {
				diags = append(diags, models.Diagnostic{
					Severity: models.SeverityError,
					Code:     meta.CodeRangeViolation,
					Message:  fmt.Sprintf("概念 %s 的取值 %s 低于下限 %v", f.Concept, f.Numeric.String(), *vr.Min),
					Phase:    models.PhaseBusiness,
					Ref:      f.Origin,
					Concept:  f.Concept,
				})
			}
			if vr.Max != nil && f.Numeric.GreaterThan(decimal.NewFromFloat(*vr.Max)) {
				diags = append(diags, models.Diagnostic{
					Severity: models.SeverityError,
					Code:     meta.CodeRangeViolation,
					Message:  fmt.Sprintf("概念 %s 的取值 %s 高于上限 %v", f.Concept, f.Numeric.String(), *vr.Max),
					Phase:    models.PhaseBusiness,
					Ref:      f.Origin,
					Concept:  f.Concept,
				})
			}
		}
	}

	return diags
}
