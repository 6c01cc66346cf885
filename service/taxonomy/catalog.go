/*
 * @module service/taxonomy/catalog
 * @description 分类标准目录，加载并索引报告分类标准（概念、维度、计算关系、校验规则数据）
 * @architecture 分层架构 - 领域服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow JSON包解析 -> 索引构建 -> 原子发布 -> 并发只读查询
 * @rules 加载是唯一的变更操作；读取方要么看到完整构建的目录，要么什么都看不到
 * @dependencies encoding/json, github.com/shopspring/decimal
 * @refs service/template, service/mapper, service/validator
 */

package taxonomy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"vsme-xbrl-service/service/models"
)

// ErrLoad 分类标准加载失败，进程级致命错误
var ErrLoad = errors.New("taxonomy load failed")

// defaultCalcTolerance 计算关系一致性检查的默认容差
var defaultCalcTolerance = decimal.RequireFromString("0.01")

// Dimension 维度轴定义
type Dimension struct {
	QName   string   `json:"qname"`
	Typed   bool     `json:"typed,omitempty"`   // 类型化维度无成员列表，取值自由
	Members []string `json:"members,omitempty"` // 显式维度的合法成员QName
}

// CalcComponent 计算关系中的一个分项
type CalcComponent struct {
	Concept string  `json:"concept"`
	Weight  float64 `json:"weight"` // 通常为1或-1
}

// Calculation 计算关系：合计 = Σ(分项×权重)，容差内判定一致
type Calculation struct {
	Total      string          `json:"total"`
	Components []CalcComponent `json:"components"`
	Tolerance  string          `json:"tolerance,omitempty"` // 十进制字符串，缺省0.01
}

// ToleranceDecimal 返回该计算关系的容差
func (c *Calculation) ToleranceDecimal() decimal.Decimal {
	if c.Tolerance == "" {
		return defaultCalcTolerance
	}
	t, err := decimal.NewFromString(c.Tolerance)
	if err != nil {
		return defaultCalcTolerance
	}
	return t
}

// ValueRange 概念的取值范围约束
type ValueRange struct {
	Concept string   `json:"concept"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// bundle 分类标准JSON包的顶层结构
type bundle struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	EntryPoint       string            `json:"entryPoint"`
	Namespaces       map[string]string `json:"namespaces"`
	Concepts         []models.Concept  `json:"concepts"`
	Dimensions       []Dimension       `json:"dimensions"`
	Calculations     []Calculation     `json:"calculations"`
	RequiredConcepts []string          `json:"requiredConcepts"`
	ValueRanges      []ValueRange      `json:"valueRanges"`
}

// Catalog 已完成索引构建的分类标准目录
// 构建完成后不可变，可被多个请求无锁并发读取
type Catalog struct {
	Name       string
	Version    string
	EntryPoint string

	namespaces map[string]string
	concepts   map[string]*models.Concept
	order      []string // 概念声明顺序，供确定性遍历
	dimensions map[string]*Dimension
	calcs      []Calculation
	required   []string
	ranges     []ValueRange
}

// Load 从文件路径加载分类标准JSON包
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取 %s: %v", ErrLoad, path, err)
	}
	return Parse(data)
}

// Parse 解析分类标准JSON包并构建索引
func Parse(data []byte) (*Catalog, error) {
	var b bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: JSON解析: %v", ErrLoad, err)
	}
	if len(b.Concepts) == 0 {
		return nil, fmt.Errorf("%w: 概念列表为空", ErrLoad)
	}

	cat := &Catalog{
		Name:       b.Name,
		Version:    b.Version,
		EntryPoint: b.EntryPoint,
		namespaces: b.Namespaces,
		concepts:   make(map[string]*models.Concept, len(b.Concepts)),
		dimensions: make(map[string]*Dimension, len(b.Dimensions)),
		calcs:      b.Calculations,
		required:   b.RequiredConcepts,
		ranges:     b.ValueRanges,
	}

	for i := range b.Dimensions {
		d := &b.Dimensions[i]
		if _, dup := cat.dimensions[d.QName]; dup {
			return nil, fmt.Errorf("%w: 维度 %s 重复定义", ErrLoad, d.QName)
		}
		cat.dimensions[d.QName] = d
	}

	for i := range b.Concepts {
		c := &b.Concepts[i]
		if c.QName == "" {
			return nil, fmt.Errorf("%w: 第%d个概念缺少qname", ErrLoad, i+1)
		}
		if _, dup := cat.concepts[c.QName]; dup {
			return nil, fmt.Errorf("%w: 概念 %s 重复定义", ErrLoad, c.QName)
		}
		switch c.PeriodType {
		case models.PeriodInstant, models.PeriodDuration:
		default:
			return nil, fmt.Errorf("%w: 概念 %s 期间类型非法: %q", ErrLoad, c.QName, c.PeriodType)
		}
		for _, axis := range c.Dimensions {
			if _, ok := cat.dimensions[axis]; !ok {
				return nil, fmt.Errorf("%w: 概念 %s 引用了未定义维度 %s", ErrLoad, c.QName, axis)
			}
		}
		cat.concepts[c.QName] = c
		cat.order = append(cat.order, c.QName)
	}

	for _, calc := range b.Calculations {
		if _, ok := cat.concepts[calc.Total]; !ok {
			return nil, fmt.Errorf("%w: 计算关系合计概念 %s 未定义", ErrLoad, calc.Total)
		}
		for _, comp := range calc.Components {
			if _, ok := cat.concepts[comp.Concept]; !ok {
				return nil, fmt.Errorf("%w: 计算关系分项概念 %s 未定义", ErrLoad, comp.Concept)
			}
		}
	}
	for _, q := range b.RequiredConcepts {
		if _, ok := cat.concepts[q]; !ok {
			return nil, fmt.Errorf("%w: 必报概念 %s 未定义", ErrLoad, q)
		}
	}

	return cat, nil
}

// Resolve 按限定名查找概念，不存在时返回nil
func (c *Catalog) Resolve(qname string) *models.Concept {
	return c.concepts[qname]
}

// ConceptQNames 返回概念声明顺序的QName列表
func (c *Catalog) ConceptQNames() []string {
	return c.order
}

// Dimension 按限定名查找维度轴定义
func (c *Catalog) Dimension(axis string) *Dimension {
	return c.dimensions[axis]
}

// AllowedDimensions 返回概念允许挂载的维度轴集合
func (c *Catalog) AllowedDimensions(qname string) []string {
	concept := c.concepts[qname]
	if concept == nil {
		return nil
	}
	return concept.Dimensions
}

// IsLegalMember 判断成员取值对维度轴是否合法；类型化维度任意取值合法
func (c *Catalog) IsLegalMember(axis, member string) bool {
	d := c.dimensions[axis]
	if d == nil {
		return false
	}
	if d.Typed {
		return true
	}
	for _, m := range d.Members {
		if m == member {
			return true
		}
	}
	return false
}

// Namespaces 返回分类标准声明的命名空间表
func (c *Catalog) Namespaces() map[string]string {
	return c.namespaces
}

// Calculations 返回全部计算关系
func (c *Catalog) Calculations() []Calculation {
	return c.calcs
}

// RequiredConcepts 返回必报概念列表
func (c *Catalog) RequiredConcepts() []string {
	return c.required
}

// ValueRanges 返回全部取值范围约束
func (c *Catalog) ValueRanges() []ValueRange {
	return c.ranges
}

// ConceptCount 返回概念总数
func (c *Catalog) ConceptCount() int {
	return len(c.concepts)
}
