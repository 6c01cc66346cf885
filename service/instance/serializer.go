/*
 * @module service/instance/serializer
 * @description 实例文档序列化器，将事实/上下文/单位输出为XBRL实例标记文本
 * @architecture 分层架构 - 领域服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 引用一致性检查 -> 命名空间声明 -> 上下文 -> 单位 -> 事实，顺序确定
 * @rules 输出顺序完全确定：上下文与单位先于事实，各组按分配顺序排列，
 *        相同输入的重复转换必须产生字节一致的输出；
 *        悬空引用属于内部不变量破坏，以防御性致命错误处理
 * @dependencies encoding/xml (转义)
 * @refs service/instance/builder, service/validator
 */

package instance

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"

	"vsme-xbrl-service/service/meta"
	"vsme-xbrl-service/service/models"
	"vsme-xbrl-service/service/taxonomy"
)

// ErrInvariant 内部不变量破坏（如事实引用未构建的上下文），标志核心缺陷而非用户输入问题
var ErrInvariant = errors.New("instance serialization invariant violation")

// Serializer 实例文档序列化器
type Serializer struct {
	cat *taxonomy.Catalog
}

// NewSerializer 创建序列化器实例
func NewSerializer(cat *taxonomy.Catalog) *Serializer {
	return &Serializer{cat: cat}
}

// Serialize 输出实例文档字节流
func (s *Serializer) Serialize(res *BuildResult) ([]byte, error) {
	ctxIDs := make(map[string]bool, len(res.Contexts))
	for _, c := range res.Contexts {
		ctxIDs[c.ID] = true
	}
	unitIDs := make(map[string]bool, len(res.Units))
	for _, u := range res.Units {
		unitIDs[u.ID] = true
	}
	for _, f := range res.Facts {
		if !ctxIDs[f.ContextID] {
			return nil, fmt.Errorf("%w: 事实 %s 引用了未构建的上下文 %q", ErrInvariant, f.Concept, f.ContextID)
		}
		if f.UnitID != "" && !unitIDs[f.UnitID] {
			return nil, fmt.Errorf("%w: 事实 %s 引用了未构建的单位 %q", ErrInvariant, f.Concept, f.UnitID)
		}
		if f.IsNumeric() && f.UnitID == "" {
			return nil, fmt.Errorf("%w: 数值事实 %s 缺少单位引用", ErrInvariant, f.Concept)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<xbrli:xbrl")
	for _, decl := range s.namespaceDecls() {
		buf.WriteString(decl)
	}
	buf.WriteString(">\n")

	if s.cat.EntryPoint != "" {
		buf.WriteString(`  <link:schemaRef xlink:type="simple" xlink:href="`)
		escapeAttr(&buf, s.cat.EntryPoint)
		buf.WriteString("\"/>\n")
	}

	for _, c := range res.Contexts {
		writeContext(&buf, &c)
	}
	for _, u := range res.Units {
		buf.WriteString(`  <xbrli:unit id="`)
		escapeAttr(&buf, u.ID)
		buf.WriteString("\">\n    <xbrli:measure>")
		escapeText(&buf, u.Measure)
		buf.WriteString("</xbrli:measure>\n  </xbrli:unit>\n")
	}
	for _, f := range res.Facts {
		writeFact(&buf, &f)
	}

	buf.WriteString("</xbrli:xbrl>\n")
	return buf.Bytes(), nil
}

// namespaceDecls 返回排序后的命名空间声明属性，保证字节级确定性
func (s *Serializer) namespaceDecls() []string {
	merged := map[string]string{}
	for p, ns := range meta.StandardNamespaces {
		merged[p] = ns
	}
	for p, ns := range s.cat.Namespaces() {
		merged[p] = ns
	}
	prefixes := make([]string, 0, len(merged))
	for p := range merged {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	decls := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		decls = append(decls, fmt.Sprintf(" xmlns:%s=\"%s\"", p, merged[p]))
	}
	return decls
}

// writeContext 输出一个上下文定义
func writeContext(buf *bytes.Buffer, c *models.Context) {
	buf.WriteString(`  <xbrli:context id="`)
	escapeAttr(buf, c.ID)
	buf.WriteString("\">\n    <xbrli:entity>\n      <xbrli:identifier scheme=\"")
	escapeAttr(buf, c.Entity.Scheme)
	buf.WriteString("\">")
	escapeText(buf, c.Entity.Identifier)
	buf.WriteString("</xbrli:identifier>\n    </xbrli:entity>\n    <xbrli:period>\n")
	if c.Period.IsInstant() {
		buf.WriteString("      <xbrli:instant>")
		escapeText(buf, c.Period.Instant)
		buf.WriteString("</xbrli:instant>\n")
	} else {
		buf.WriteString("      <xbrli:startDate>")
		escapeText(buf, c.Period.Start)
		buf.WriteString("</xbrli:startDate>\n      <xbrli:endDate>")
		escapeText(buf, c.Period.End)
		buf.WriteString("</xbrli:endDate>\n")
	}
	buf.WriteString("    </xbrli:period>\n")
	if len(c.Dimensions) > 0 {
		buf.WriteString("    <xbrli:scenario>\n")
		for _, d := range c.Dimensions {
			if d.Typed {
				domain := typedDomainElement(d.Axis)
				buf.WriteString(`      <xbrldi:typedMember dimension="`)
				escapeAttr(buf, d.Axis)
				buf.WriteString("\"><")
				buf.WriteString(domain)
				buf.WriteString(">")
				escapeText(buf, d.Value)
				buf.WriteString("</")
				buf.WriteString(domain)
				buf.WriteString("></xbrldi:typedMember>\n")
			} else {
				buf.WriteString(`      <xbrldi:explicitMember dimension="`)
				escapeAttr(buf, d.Axis)
				buf.WriteString("\">")
				escapeText(buf, d.Value)
				buf.WriteString("</xbrldi:explicitMember>\n")
			}
		}
		buf.WriteString("    </xbrli:scenario>\n")
	}
	buf.WriteString("  </xbrli:context>\n")
}

// writeFact 输出一条事实
func writeFact(buf *bytes.Buffer, f *models.Fact) {
	buf.WriteString("  <")
	buf.WriteString(f.Concept)
	buf.WriteString(` contextRef="`)
	escapeAttr(buf, f.ContextID)
	buf.WriteString(`"`)
	if f.UnitID != "" {
		buf.WriteString(` unitRef="`)
		escapeAttr(buf, f.UnitID)
		buf.WriteString(`"`)
	}
	if f.Decimals != nil {
		buf.WriteString(fmt.Sprintf(` decimals="%d"`, *f.Decimals))
	}
	buf.WriteString(">")
	escapeText(buf, f.Value)
	buf.WriteString("</")
	buf.WriteString(f.Concept)
	buf.WriteString(">\n")
}

// typedDomainElement 由维度轴QName推导类型化域元素名：<prefix>:<Local去Axis后缀>Domain
func typedDomainElement(axis string) string {
	prefix := models.QNamePrefix(axis)
	local := models.QNameLocal(axis)
	if len(local) > 4 && local[len(local)-4:] == "Axis" {
		local = local[:len(local)-4]
	}
	if prefix == "" {
		return local + "Domain"
	}
	return prefix + ":" + local + "Domain"
}

func escapeText(buf *bytes.Buffer, s string) {
	_ = xml.EscapeText(buf, []byte(s))
}

func escapeAttr(buf *bytes.Buffer, s string) {
	_ = xml.EscapeText(buf, []byte(s))
}
