/*
 * @module service/meta/vsme
 * @description VSME报告静态元数据：命名空间表、主体标识scheme、内置单位度量
 * @architecture 常量层 - 元数据定义
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 常量定义 -> 校验函数 -> 业务逻辑使用
 * @rules 统一管理XBRL实例文档依赖的固定命名空间与度量，确保序列化输出一致
 * @dependencies 无外部依赖
 * @refs service/instance, service/validator
 */

package meta

// 实例文档固定命名空间
const (
	NamespaceXBRLI   = "http://www.xbrl.org/2003/instance"
	NamespaceLink    = "http://www.xbrl.org/2003/linkbase"
	NamespaceXLink   = "http://www.w3.org/1999/xlink"
	NamespaceISO4217 = "http://www.xbrl.org/2003/iso4217"
	NamespaceXBRLDI  = "http://xbrl.org/2006/xbrldi"
	NamespaceVSME    = "https://xbrl.efrag.org/taxonomy/vsme"
)

// 固定命名空间前缀映射，序列化时按此表声明
var StandardNamespaces = map[string]string{
	"xbrli":   NamespaceXBRLI,
	"link":    NamespaceLink,
	"xlink":   NamespaceXLink,
	"iso4217": NamespaceISO4217,
	"xbrldi":  NamespaceXBRLDI,
}

// 内置单位度量
const (
	MeasurePure   = "xbrli:pure"
	MeasureShares = "xbrli:shares"
)

// 主体标识scheme
const (
	SchemeLEI       = "http://standards.iso.org/iso/17442"
	SchemeEUID      = "https://eurofiling.info/eu/rs"
	SchemePermIdOrg = "https://permid.org/"
)

// IsKnownScheme 校验主体标识scheme是否为已知取值
func IsKnownScheme(scheme string) bool {
	switch scheme {
	case SchemeLEI, SchemeEUID, SchemePermIdOrg:
		return true
	}
	return false
}

// IsCurrencyMeasure 判断度量是否为ISO 4217货币度量
func IsCurrencyMeasure(measure string) bool {
	return len(measure) > 8 && measure[:8] == "iso4217:"
}

// CurrencyCode 提取货币度量中的货币代码，非货币度量返回空串
func CurrencyCode(measure string) string {
	if !IsCurrencyMeasure(measure) {
		return ""
	}
	return measure[8:]
}
