package reports

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/mmdatafocus/ledger_backend/utils"
)

var (
	basicExportHeader    = []string{"Date", "Type", "Party", "Phone", "Weight", "Payment"}
	detailedExportHeader = []string{"Date", "Type", "Party", "Phone", "HNY Weight", "Black Weight", "Total Weight", "Total Payment", "Rate", "Created By"}
)

func exportHeader(detailed bool) []string {
	if detailed {
		return detailedExportHeader
	}
	return basicExportHeader
}

func exportRow(v *models.TransactionView, detailed bool) []string {
	date := v.Date.UTC().Format(utils.DateLayout)
	if !detailed {
		return []string{
			date,
			string(v.Type),
			v.PartyName,
			v.Phone,
			v.TotalWeight.String(),
			v.TotalPayment.String(),
		}
	}
	createdBy := v.CreatedByEmail
	if createdBy == "" {
		createdBy = v.CreatedBy
	}
	return []string{
		date,
		v.TransactionType,
		v.PartyName,
		v.Phone,
		v.HnyWeight.String(),
		v.BlackWeight.String(),
		v.TotalWeight.String(),
		v.TotalPayment.String(),
		v.Rate().StringFixed(2),
		createdBy,
	}
}

// WriteTransactionsCSV writes a header row and one row per view. Fields
// containing commas or quotes are quoted.
func WriteTransactionsCSV(w io.Writer, views []*models.TransactionView, detailed bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader(detailed)); err != nil {
		return err
	}
	for _, v := range views {
		if err := cw.Write(exportRow(v, detailed)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename is e.g. transactions_report_2026-10-16.csv.
func ExportFilename(prefix string, now time.Time, ext string) string {
	return prefix + "_" + now.Format(utils.DateLayout) + "." + ext
}
