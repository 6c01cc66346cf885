package mapper

import (
	"context"

	"vsme-xbrl-service/service/models"
	"vsme-xbrl-service/service/utils"
	"vsme-xbrl-service/service/workbook"
)

func readWorkbook(data []byte) (*workbook.Workbook, error) {
	return workbook.Read(context.Background(), data)
}

func newTestConverter() *utils.DataConverter {
	return utils.NewDataConverter()
}

func textCell(value string) models.RawCellValue {
	return models.RawCellValue{
		Ref:   models.CellRef{Sheet: "Report", Cell: "C8"},
		Kind:  models.CellKindText,
		Value: value,
	}
}

func numberCell(value string) models.RawCellValue {
	return models.RawCellValue{
		Ref:   models.CellRef{Sheet: "Report", Cell: "C8"},
		Kind:  models.CellKindNumber,
		Value: value,
	}
}
