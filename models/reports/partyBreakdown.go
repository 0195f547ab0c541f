package reports

import (
	"sort"

	"github.com/mmdatafocus/ledger_backend/models"
	"github.com/shopspring/decimal"
)

type PartyBalance struct {
	Name    string          `json:"name"`
	Buying  decimal.Decimal `json:"buying"`
	Selling decimal.Decimal `json:"selling"`
	Weight  decimal.Decimal `json:"weight"`
	Balance decimal.Decimal `json:"balance"`
}

// BreakdownByParty groups by party display name, so two parties sharing a
// name are reported together. Busiest parties come first.
func BreakdownByParty(views []*models.TransactionView) []PartyBalance {
	index := map[string]int{}
	results := make([]PartyBalance, 0)
	for _, v := range views {
		i, ok := index[v.PartyName]
		if !ok {
			i = len(results)
			index[v.PartyName] = i
			results = append(results, PartyBalance{
				Name:    v.PartyName,
				Buying:  decimal.Zero,
				Selling: decimal.Zero,
				Weight:  decimal.Zero,
			})
		}
		p := &results[i]
		switch v.Type {
		case models.TransactionTypeBuy:
			p.Buying = p.Buying.Add(v.TotalPayment)
		case models.TransactionTypeSell:
			p.Selling = p.Selling.Add(v.TotalPayment)
		}
		p.Weight = p.Weight.Add(v.TotalWeight)
	}

	for i := range results {
		results[i].Balance = results[i].Selling.Sub(results[i].Buying)
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Buying.Add(results[a].Selling).GreaterThan(results[b].Buying.Add(results[b].Selling))
	})
	return results
}
