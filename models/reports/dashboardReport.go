package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/shopspring/decimal"
)

// Dashboard is the reports page in one payload.
type Dashboard struct {
	Summary        Summary         `json:"summary"`
	TotalBuying    decimal.Decimal `json:"total_buying"`
	TotalSelling   decimal.Decimal `json:"total_selling"`
	TotalWeight    decimal.Decimal `json:"total_weight"`
	Balance        decimal.Decimal `json:"balance"`
	UniqueParties  int             `json:"unique_parties"`
	PartyBreakdown []PartyBalance  `json:"party_breakdown"`
	MonthlyTrend   []MonthBucket   `json:"monthly_trend"`
}

func BuildDashboard(views []*models.TransactionView) Dashboard {
	s := Summarize(views)
	breakdown := BreakdownByParty(views)
	return Dashboard{
		Summary:        s,
		TotalBuying:    s.Buying.SumPayment,
		TotalSelling:   s.Selling.SumPayment,
		TotalWeight:    s.Buying.SumWeight.Add(s.Selling.SumWeight),
		Balance:        s.Balance(),
		UniqueParties:  len(breakdown),
		PartyBreakdown: breakdown,
		MonthlyTrend:   MonthlyTrend(views, DefaultTrendMonths),
	}
}

func GetDashboard(ctx context.Context, filter *models.TransactionFilter) (*Dashboard, error) {
	started := time.Now()
	var cached Dashboard
	key := cacheKey(ctx, "Dashboard", filter)
	if ok := cacheLoad(key, &cached); ok {
		return &cached, nil
	}

	views, err := models.ListTransactionViews(ctx, filter)
	if err != nil {
		return nil, err
	}
	d := BuildDashboard(views)
	cacheStore(key, &d)
	logSlowReport(ctx, "dashboard", started, len(views))
	return &d, nil
}
