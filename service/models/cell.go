/*
 * @module service/models/cell
 * @description 原始单元格值模型，承载从Excel工作簿提取的未映射单元格数据
 * @architecture 分层架构 - 数据模型层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 每次上传创建，映射完成后丢弃
 * @rules 空白单元格显式表示，不允许省略，以便映射阶段区分"缺失"和"存在但为空"
 * @dependencies github.com/xuri/excelize/v2 (单元格坐标工具)
 * @refs service/workbook, service/mapper
 */

package models

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// CellKind 单元格原始值的类别，按工作簿格式元数据判定
type CellKind string

const (
	CellKindNumber  CellKind = "number"
	CellKindText    CellKind = "text"
	CellKindBoolean CellKind = "boolean"
	CellKindDate    CellKind = "date"
	CellKindBlank   CellKind = "blank"
)

// CellRef 单元格位置，用于诊断信息回溯定位
type CellRef struct {
	Sheet string `json:"sheet" example:"Report"`
	Cell  string `json:"cell" example:"C4"` // A1格式坐标
}

// String 返回 Sheet!Cell 形式的引用，与Excel显示习惯一致
func (r CellRef) String() string {
	if r.Sheet == "" && r.Cell == "" {
		return ""
	}
	return fmt.Sprintf("%s!%s", r.Sheet, r.Cell)
}

// RowCol 解析A1坐标为列、行序号，坐标非法时返回0,0
func (r CellRef) RowCol() (col, row int) {
	col, row, err := excelize.CellNameToCoordinates(r.Cell)
	if err != nil {
		return 0, 0
	}
	return col, row
}

// RawCellValue 从工作簿提取的单条原始单元格值
type RawCellValue struct {
	Ref   CellRef  `json:"ref"`
	Kind  CellKind `json:"kind"`
	Value string   `json:"value"` // 原始字符串形式，空白单元格为空串
}

// IsBlank 判断是否为空白单元格
func (v *RawCellValue) IsBlank() bool {
	return v.Kind == CellKindBlank
}
