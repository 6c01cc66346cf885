/*
 * @module service/meta/diagnostic_codes
 * @description 诊断代码目录，统一管理各阶段可能产生的诊断代码及其说明
 * @architecture 常量层 - 元数据定义
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 常量定义 -> 各阶段引用 -> API文档展示
 * @rules 诊断代码一经发布不可变更含义，新问题使用新代码
 * @dependencies 无外部依赖
 * @refs service/mapper, service/validator
 */

package meta

// 转换阶段诊断代码
const (
	CodeWorkbookFormat = "workbook-format" // 工作簿无法解析
	CodeTypeCoercion   = "type-coercion"   // 单元格值无法转为概念声明类型
	CodeUnmappedCell   = "unmapped-cell"   // 非空单元格无匹配映射规则
	CodeMissingEntity  = "missing-entity"  // 主体标识单元格为空
	CodeMissingPeriod  = "missing-period"  // 报告期间单元格为空或非法
	CodeEnumValue      = "enum-value"      // 取值不在枚举成员列表内
	CodeRegionOverflow = "region-overflow" // 重复区域超出扫描上限
)

// 模板定义交叉检查诊断代码
const (
	CodeUnknownConcept   = "unknown-concept"   // 规则引用的概念不在分类标准内
	CodeIllegalDimension = "illegal-dimension" // 静态维度对概念不合法
	CodeBadCellRef       = "bad-cell-ref"      // 单元格坐标非法
	CodeMissingUnit      = "missing-unit"      // 数值概念的规则缺少单位
)

// 校验阶段诊断代码
const (
	CodeMalformedDocument = "malformed-document" // 实例文档非良构
	CodeDuplicateContext  = "duplicate-context"  // 上下文定义重复
	CodeDuplicateUnit     = "duplicate-unit"     // 单位定义重复
	CodeDanglingRef       = "dangling-ref"       // 事实引用了未定义的上下文/单位
	CodePeriodMismatch    = "period-mismatch"    // 概念期间类型与上下文形状不符
	CodeUnitRequired      = "unit-required"      // 数值事实缺少单位
	CodeUnitCurrency      = "unit-currency"      // 货币单位非合法ISO 4217代码
	CodeDimensionIllegal  = "dimension-illegal"  // 上下文维度对概念不合法
	CodeCalcInconsistent  = "calc-inconsistent"  // 计算关系不一致
	CodeRequiredMissing   = "required-missing"   // 必报概念缺失
	CodeRangeViolation    = "range-violation"    // 取值超出允许范围
)

// CodeDescriptions 诊断代码说明，供API文档与前端展示
var CodeDescriptions = map[string]string{
	CodeWorkbookFormat:    "上传的工作簿无法解析",
	CodeTypeCoercion:      "单元格取值无法转换为概念声明的数据类型",
	CodeUnmappedCell:      "非空单元格没有匹配的映射规则",
	CodeMissingEntity:     "报告主体标识缺失",
	CodeMissingPeriod:     "报告期间缺失或非法",
	CodeEnumValue:         "取值不在枚举允许的成员列表内",
	CodeRegionOverflow:    "重复区域行数超出扫描上限",
	CodeUnknownConcept:    "映射规则引用了分类标准中不存在的概念",
	CodeIllegalDimension:  "静态维度取值对目标概念不合法",
	CodeBadCellRef:        "模板单元格坐标非法",
	CodeMissingUnit:       "数值概念的映射规则缺少单位",
	CodeMalformedDocument: "实例文档非良构",
	CodeDuplicateContext:  "实例文档中存在重复的上下文定义",
	CodeDuplicateUnit:     "实例文档中存在重复的单位定义",
	CodeDanglingRef:       "事实引用了未定义的上下文或单位",
	CodePeriodMismatch:    "概念期间类型与上下文期间形状不一致",
	CodeUnitRequired:      "数值事实缺少单位",
	CodeUnitCurrency:      "货币单位不是合法的ISO 4217代码",
	CodeDimensionIllegal:  "上下文携带了概念不允许的维度",
	CodeCalcInconsistent:  "合计值与分项之和在容差内不一致",
	CodeRequiredMissing:   "分类标准要求的必报概念缺失",
	CodeRangeViolation:    "取值超出分类标准声明的允许范围",
}
