package reports

import (
	"sort"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/shopspring/decimal"
)

const (
	DefaultTrendMonths = 6
	monthLabelLayout   = "Jan 2006"
)

type MonthBucket struct {
	Month   string          `json:"month"`
	Year    int             `json:"year"`
	MonthNo int             `json:"month_no"`
	Buying  decimal.Decimal `json:"buying"`
	Selling decimal.Decimal `json:"selling"`
}

func (b MonthBucket) before(o MonthBucket) bool {
	if b.Year != o.Year {
		return b.Year < o.Year
	}
	return b.MonthNo < o.MonthNo
}

// MonthlyTrend buckets payments by calendar month of the transaction date
// and keeps the latest months buckets in chronological order. Months with
// no activity are absent.
func MonthlyTrend(views []*models.TransactionView, months int) []MonthBucket {
	byKey := map[int]*MonthBucket{}
	for _, v := range views {
		if v.Date.IsZero() {
			continue
		}
		d := v.Date.UTC()
		key := d.Year()*100 + int(d.Month())
		b, ok := byKey[key]
		if !ok {
			b = &MonthBucket{
				Month:   time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).Format(monthLabelLayout),
				Year:    d.Year(),
				MonthNo: int(d.Month()),
				Buying:  decimal.Zero,
				Selling: decimal.Zero,
			}
			byKey[key] = b
		}
		switch v.Type {
		case models.TransactionTypeBuy:
			b.Buying = b.Buying.Add(v.TotalPayment)
		case models.TransactionTypeSell:
			b.Selling = b.Selling.Add(v.TotalPayment)
		}
	}

	results := make([]MonthBucket, 0, len(byKey))
	for _, b := range byKey {
		results = append(results, *b)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].before(results[j]) })
	if months > 0 && len(results) > months {
		results = results[len(results)-months:]
	}
	return results
}
