package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/shopspring/decimal"
)

type TypeSummary struct {
	Count      int             `json:"count"`
	SumWeight  decimal.Decimal `json:"sum_weight"`
	SumPayment decimal.Decimal `json:"sum_payment"`
}

type Summary struct {
	Buying  TypeSummary `json:"buying"`
	Selling TypeSummary `json:"selling"`
}

func newTypeSummary() TypeSummary {
	return TypeSummary{SumWeight: decimal.Zero, SumPayment: decimal.Zero}
}

func (s *TypeSummary) add(v *models.TransactionView) {
	s.Count++
	s.SumWeight = s.SumWeight.Add(v.TotalWeight)
	s.SumPayment = s.SumPayment.Add(v.TotalPayment)
}

// Summarize folds views into per-type totals. Empty buckets have zero sums.
func Summarize(views []*models.TransactionView) Summary {
	s := Summary{Buying: newTypeSummary(), Selling: newTypeSummary()}
	for _, v := range views {
		switch v.Type {
		case models.TransactionTypeBuy:
			s.Buying.add(v)
		case models.TransactionTypeSell:
			s.Selling.add(v)
		}
	}
	return s
}

// Balance is selling minus buying payments.
func (s Summary) Balance() decimal.Decimal {
	return s.Selling.SumPayment.Sub(s.Buying.SumPayment)
}

func GetSummary(ctx context.Context, filter *models.TransactionFilter) (*Summary, error) {
	started := time.Now()
	var cached Summary
	key := cacheKey(ctx, "Summary", filter)
	if ok := cacheLoad(key, &cached); ok {
		return &cached, nil
	}

	views, err := models.ListTransactionViews(ctx, filter)
	if err != nil {
		return nil, err
	}
	s := Summarize(views)
	cacheStore(key, &s)
	logSlowReport(ctx, "summary", started, len(views))
	return &s, nil
}
