/*
 * @module service/workbook/reader
 * @description 工作簿读取器，从上传的xlsx字节流中提取带类型的原始单元格值
 * @architecture 分层架构 - 领域服务层
 * @documentReference dev_docs/backend_requirements.md
 * @stateFlow 打开归档 -> 逐表扫描 -> 按格式元数据判型 -> 产出原始值快照
 * @rules 纯提取，不做业务逻辑；歧义值按单元格格式元数据判定而非猜测内容形状；
 *        空白单元格在查询时显式表示，不允许省略
 * @dependencies github.com/xuri/excelize/v2
 * @refs service/mapper
 */

package workbook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"vsme-xbrl-service/service/models"
)

// ErrFormat 工作簿无法解析（损坏、加密或版本不受支持），整体拒绝输入
var ErrFormat = errors.New("workbook format error")

// Workbook 一次上传的只读单元格快照
type Workbook struct {
	sheets []string
	index  map[string]map[string]models.RawCellValue
}

// Read 解析xlsx字节流并构建单元格快照
// 大工作簿解析支持通过ctx在表边界取消
func Read(ctx context.Context, data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer f.Close()

	wb := &Workbook{
		sheets: f.GetSheetList(),
		index:  make(map[string]map[string]models.RawCellValue),
	}

	for _, sheet := range wb.sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: 读取工作表 %s: %v", ErrFormat, sheet, err)
		}
		cells := make(map[string]models.RawCellValue)
		for ri, row := range rows {
			for ci, raw := range row {
				if strings.TrimSpace(raw) == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
				if err != nil {
					continue
				}
				cells[cell] = classify(f, sheet, cell, raw)
			}
		}
		wb.index[sheet] = cells
	}
	return wb, nil
}

// classify 按格式元数据判定单元格类型并规范化取值
func classify(f *excelize.File, sheet, cell, raw string) models.RawCellValue {
	ref := models.CellRef{Sheet: sheet, Cell: cell}
	ct, _ := f.GetCellType(sheet, cell)

	switch ct {
	case excelize.CellTypeBool:
		v := "false"
		if raw == "1" || strings.EqualFold(raw, "true") {
			v = "true"
		}
		return models.RawCellValue{Ref: ref, Kind: models.CellKindBoolean, Value: v}
	case excelize.CellTypeDate:
		if iso, ok := serialToISO(raw); ok {
			return models.RawCellValue{Ref: ref, Kind: models.CellKindDate, Value: iso}
		}
		return models.RawCellValue{Ref: ref, Kind: models.CellKindDate, Value: raw}
	case excelize.CellTypeInlineString, excelize.CellTypeSharedString:
		return models.RawCellValue{Ref: ref, Kind: models.CellKindText, Value: raw}
	}

	// 数字与"格式化为日期的数字"按数字格式元数据区分
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		if hasDateFormat(f, sheet, cell) {
			if iso, ok := serialToISO(raw); ok {
				return models.RawCellValue{Ref: ref, Kind: models.CellKindDate, Value: iso}
			}
		}
		return models.RawCellValue{Ref: ref, Kind: models.CellKindNumber, Value: raw}
	}
	return models.RawCellValue{Ref: ref, Kind: models.CellKindText, Value: raw}
}

// builtinDateFormats Excel内置日期/时间数字格式编号
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true,
	21: true, 22: true, 27: true, 28: true, 29: true, 30: true, 31: true,
	32: true, 33: true, 34: true, 35: true, 36: true, 45: true, 46: true,
	47: true, 50: true, 51: true, 52: true, 53: true, 54: true, 55: true,
	56: true, 57: true, 58: true,
}

// hasDateFormat 判断单元格的数字格式是否为日期格式
func hasDateFormat(f *excelize.File, sheet, cell string) bool {
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if builtinDateFormats[style.NumFmt] {
		return true
	}
	if style.CustomNumFmt != nil {
		fmtStr := strings.ToLower(*style.CustomNumFmt)
		// 剔除颜色/条件段后检查日期占位符
		for _, tok := range []string{"yy", "mm", "dd", "hh"} {
			if strings.Contains(fmtStr, tok) {
				return true
			}
		}
	}
	return false
}

// serialToISO 将Excel日期序列值转换为ISO 8601日期
func serialToISO(raw string) (string, bool) {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// 单元格本身以ISO文本存储日期时直接透传
		if len(raw) >= 10 {
			return raw[:10], true
		}
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// Cell 查询指定位置的单元格值；不存在或为空时返回显式的空白值
func (w *Workbook) Cell(sheet, cell string) models.RawCellValue {
	if cells, ok := w.index[sheet]; ok {
		if v, ok := cells[cell]; ok {
			return v
		}
	}
	return models.RawCellValue{
		Ref:  models.CellRef{Sheet: sheet, Cell: cell},
		Kind: models.CellKindBlank,
	}
}

// HasSheet 判断工作簿中是否存在指定工作表
func (w *Workbook) HasSheet(sheet string) bool {
	_, ok := w.index[sheet]
	return ok
}

// Sheets 返回工作表名列表（工作簿内顺序）
func (w *Workbook) Sheets() []string {
	return w.sheets
}

// NonBlankValues 按 工作表、行、列 的确定性顺序返回全部非空单元格
func (w *Workbook) NonBlankValues() []models.RawCellValue {
	var out []models.RawCellValue
	for _, sheet := range w.sheets {
		cells := w.index[sheet]
		keys := make([]string, 0, len(cells))
		for k := range cells {
			keys = append(keys, k)
		}
		sortCellNames(keys)
		for _, k := range keys {
			out = append(out, cells[k])
		}
	}
	return out
}

// sortCellNames 对A1坐标按行优先、列次之排序
func sortCellNames(cells []string) {
	sort.Slice(cells, func(i, j int) bool {
		ac, ar, _ := excelize.CellNameToCoordinates(cells[i])
		bc, br, _ := excelize.CellNameToCoordinates(cells[j])
		if ar != br {
			return ar < br
		}
		return ac < bc
	})
}
