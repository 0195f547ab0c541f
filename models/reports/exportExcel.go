package reports

import (
	"io"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/xuri/excelize/v2"
)

const excelSheet = "Transactions"

// WriteTransactionsExcel writes the detailed export columns as an xlsx
// workbook. Numeric columns are stored as numbers.
func WriteTransactionsExcel(w io.Writer, views []*models.TransactionView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", excelSheet); err != nil {
		return err
	}
	for i, h := range detailedExportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(excelSheet, cell, h); err != nil {
			return err
		}
	}

	for r, v := range views {
		row := exportRow(v, true)
		values := []interface{}{
			row[0],
			row[1],
			row[2],
			row[3],
			v.HnyWeight.InexactFloat64(),
			v.BlackWeight.InexactFloat64(),
			v.TotalWeight.InexactFloat64(),
			v.TotalPayment.InexactFloat64(),
			v.Rate().InexactFloat64(),
			row[9],
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(excelSheet, cell, &values); err != nil {
			return err
		}
	}
	return f.Write(w)
}
