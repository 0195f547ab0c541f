package models

import (
	"time"

	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
)

func init() {
	// weights and payments go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type BuyItemView struct {
	ID         string          `json:"id"`
	HnyColor   decimal.Decimal `json:"hny_color"`
	BlackColor decimal.Decimal `json:"black_color"`
}

type SellItemView struct {
	ID         string          `json:"id"`
	ItemCode   string          `json:"item_code"`
	Payment    decimal.Decimal `json:"payment"`
	ShoesHny   decimal.Decimal `json:"shoes_hny"`
	SheetHny   decimal.Decimal `json:"sheet_hny"`
	ShoesBlack decimal.Decimal `json:"shoes_black"`
	SheetBlack decimal.Decimal `json:"sheet_black"`
}

// TransactionView is the API shape of a transaction. It is also what report
// snapshots store, so renaming a json tag changes archived reports too.
type TransactionView struct {
	ID              string          `json:"id"`
	TransactionType string          `json:"transaction_type"`
	Type            TransactionType `json:"type"`
	Date            time.Time       `json:"date"`
	PartyId         string          `json:"party_id"`
	PartyName       string          `json:"party_name"`
	Phone           string          `json:"phone"`
	TotalWeight     decimal.Decimal `json:"total_weight"`
	TotalPayment    decimal.Decimal `json:"total_payment"`
	Notes           string          `json:"notes"`
	InvoiceImage    *string         `json:"invoice_image"`
	ReceiptImage    *string         `json:"receipt_image"`
	CreatedBy       string          `json:"created_by"`
	CreatedByEmail  string          `json:"created_by_email,omitempty"`
	CreatedDate     time.Time       `json:"created_date"`
	HnyWeight       decimal.Decimal `json:"hny_weight"`
	BlackWeight     decimal.Decimal `json:"black_weight"`
	BuyItems        []BuyItemView   `json:"buy_items"`
	SellItems       []SellItemView  `json:"sell_items"`
}

// MapTransaction never returns nil item slices.
func MapTransaction(t *Transaction) *TransactionView {
	v := &TransactionView{
		ID:              t.ID,
		TransactionType: t.Type.APIName(),
		Type:            t.Type,
		Date:            t.Date,
		PartyId:         t.PartyID,
		PartyName:       UnknownPartyName,
		Phone:           t.Phone,
		TotalWeight:     t.TotalWeight,
		TotalPayment:    t.TotalPayment,
		Notes:           t.Notes,
		InvoiceImage:    utils.NilIfEmpty(t.InvoiceImage),
		ReceiptImage:    utils.NilIfEmpty(t.ReceiptImage),
		CreatedBy:       t.CreatedBy,
		CreatedDate:     t.CreatedAt,
		HnyWeight:       decimal.Zero,
		BlackWeight:     decimal.Zero,
		BuyItems:        make([]BuyItemView, 0, len(t.BuyItems)),
		SellItems:       make([]SellItemView, 0, len(t.SellItems)),
	}
	if t.Party != nil && t.Party.Name != "" {
		v.PartyName = t.Party.Name
	}

	for _, item := range t.BuyItems {
		v.BuyItems = append(v.BuyItems, BuyItemView{
			ID:         item.ID,
			HnyColor:   item.HnyColor,
			BlackColor: item.BlackColor,
		})
		v.HnyWeight = v.HnyWeight.Add(item.HnyColor)
		v.BlackWeight = v.BlackWeight.Add(item.BlackColor)
	}
	for _, item := range t.SellItems {
		v.SellItems = append(v.SellItems, SellItemView{
			ID:         item.ID,
			ItemCode:   item.ItemCode,
			Payment:    item.Payment,
			ShoesHny:   item.ShoesHny,
			SheetHny:   item.SheetHny,
			ShoesBlack: item.ShoesBlack,
			SheetBlack: item.SheetBlack,
		})
		v.HnyWeight = v.HnyWeight.Add(item.ShoesHny).Add(item.SheetHny)
		v.BlackWeight = v.BlackWeight.Add(item.ShoesBlack).Add(item.SheetBlack)
	}
	return v
}

func MapTransactions(ts []*Transaction) []*TransactionView {
	results := make([]*TransactionView, 0, len(ts))
	for _, t := range ts {
		results = append(results, MapTransaction(t))
	}
	return results
}

// Rate is payment per unit of weight, zero when there is no weight.
func (v *TransactionView) Rate() decimal.Decimal {
	if v.TotalWeight.IsZero() {
		return decimal.Zero
	}
	return v.TotalPayment.DivRound(v.TotalWeight, 2)
}
