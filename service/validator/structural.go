/*
 * @module service/validator/structural
 * @description 结构校验阶段：文档良构性、上下文/单位定义唯一性、引用可解析性
 * @architecture 分层架构 - 校验层第一阶段
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 标记流解析 -> 定义唯一性检查 -> 引用解析检查
 * @rules 非良构文档为致命发现，后续校验阶段不再执行
 * @dependencies encoding/xml
 * @refs service/validator
 */

package validator

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"vsme-xbrl-service/service/instance"
	"vsme-xbrl-service/service/meta"
	"vsme-xbrl-service/service/models"
)

// checkStructural 执行结构校验，fatal为true时中止后续阶段
func (v *Validator) checkStructural(doc []byte, built *instance.BuildResult) (diags []models.Diagnostic, fatal bool) {
	// 良构性：完整走一遍标记流
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			diags = append(diags, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeMalformedDocument,
				Message:  fmt.Sprintf("实例文档非良构: %v", err),
				Phase:    models.PhaseStructural,
			})
			return diags, true
		}
	}

	// 定义唯一性
	seenCtx := map[string]bool{}
	ctxKeys := map[string]string{}
	for _, c := range built.Contexts {
		if seenCtx[c.ID] {
			diags = append(diags, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeDuplicateContext,
				Message:  fmt.Sprintf("上下文标识符 %s 重复定义", c.ID),
				Phase:    models.PhaseStructural,
				Location: "context " + c.ID,
			})
		}
		seenCtx[c.ID] = true
		key := c.CanonicalKey()
		if prev, dup := ctxKeys[key]; dup {
			diags = append(diags, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeDuplicateContext,
				Message:  fmt.Sprintf("上下文 %s 与 %s 结构相同但未折叠", c.ID, prev),
				Phase:    models.PhaseStructural,
				Location: "context " + c.ID,
			})
		}
		ctxKeys[key] = c.ID
	}
	seenUnit := map[string]bool{}
	unitKeys := map[string]string{}
	for _, u := range built.Units {
		if seenUnit[u.ID] {
			diags = append(diags, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeDuplicateUnit,
				Message:  fmt.Sprintf("单位标识符 %s 重复定义", u.ID),
				Phase:    models.PhaseStructural,
				Location: "unit " + u.ID,
			})
		}
		seenUnit[u.ID] = true
		if prev, dup := unitKeys[u.CanonicalKey()]; dup {
			diags = append(diags, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeDuplicateUnit,
				Message:  fmt.Sprintf("单位 %s 与 %s 结构相同但未折叠", u.ID, prev),
				Phase:    models.PhaseStructural,
				Location: "unit " + u.ID,
			})
		}
		unitKeys[u.CanonicalKey()] = u.ID
	}

	// 引用可解析性
	for _, f := range built.Facts {
		if !seenCtx[f.ContextID] {
			diags = append(diags, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeDanglingRef,
				Message:  fmt.Sprintf("事实 %s 引用了未定义的上下文 %q", f.Concept, f.ContextID),
				Phase:    models.PhaseStructural,
				Ref:      f.Origin,
				Concept:  f.Concept,
			})
		}
		if f.UnitID != "" && !seenUnit[f.UnitID] {
			diags = append(diags, models.Diagnostic{
				Severity: models.SeverityError,
				Code:     meta.CodeDanglingRef,
				Message:  fmt.Sprintf("事实 %s 引用了未定义的单位 %q", f.Concept, f.UnitID),
				Phase:    models.PhaseStructural,
				Ref:      f.Origin,
				Concept:  f.Concept,
			})
		}
	}

	return diags, false
}
