package models

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("ledger-backend")

const (
	invoiceFolder = "transactions/invoices"
	receiptFolder = "transactions/receipts"
)

type Transaction struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	Type         TransactionType `gorm:"size:4;not null;index" json:"type"`
	Date         time.Time       `gorm:"not null;index" json:"date"`
	PartyID      string          `gorm:"size:36;not null;index" json:"party_id"`
	Party        *Party          `gorm:"foreignKey:PartyID" json:"party,omitempty"`
	Phone        string          `gorm:"size:50" json:"phone"`
	TotalWeight  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_weight"`
	TotalPayment decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_payment"`
	Notes        string          `gorm:"type:text" json:"notes"`
	InvoiceImage string          `gorm:"size:512" json:"invoice_image"`
	ReceiptImage string          `gorm:"size:512" json:"receipt_image"`
	CreatedBy    string          `gorm:"size:36;not null;index" json:"created_by"`
	BuyItems     []BuyItem       `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"buy_items"`
	SellItems    []SellItem      `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"sell_items"`
	CreatedAt    time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type BuyItem struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	TransactionID string          `gorm:"size:36;not null;index" json:"transaction_id"`
	Seq           int             `gorm:"not null;default:0" json:"-"`
	HnyColor      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"hny_color"`
	BlackColor    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"black_color"`
}

type SellItem struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	TransactionID string          `gorm:"size:36;not null;index" json:"transaction_id"`
	Seq           int             `gorm:"not null;default:0" json:"-"`
	ItemCode      string          `gorm:"size:100" json:"item_code"`
	Payment       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"payment"`
	ShoesHny      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"shoes_hny"`
	SheetHny      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"sheet_hny"`
	ShoesBlack    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"shoes_black"`
	SheetBlack    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"sheet_black"`
}

type NewBuyItem struct {
	HnyColor   utils.FlexString `json:"hny_color"`
	BlackColor utils.FlexString `json:"black_color"`
}

type NewSellItem struct {
	ItemCode   utils.FlexString `json:"item_code"`
	Payment    utils.FlexString `json:"payment"`
	ShoesHny   utils.FlexString `json:"shoes_hny"`
	SheetHny   utils.FlexString `json:"sheet_hny"`
	ShoesBlack utils.FlexString `json:"shoes_black"`
	SheetBlack utils.FlexString `json:"sheet_black"`
}

// NewTransaction is the ingestion payload. Numbers may arrive as JSON
// numbers or as text; anything unparsable counts as zero.
type NewTransaction struct {
	Type            string           `json:"type" form:"type"`
	TransactionType string           `json:"transaction_type" form:"transaction_type"`
	Date            string           `json:"date" form:"date"`
	PartyId         string           `json:"party_id" form:"party_id"`
	PartyName       string           `json:"party_name" form:"party_name"`
	Phone           utils.FlexString `json:"phone" form:"phone"`
	Email           string           `json:"email" form:"email"`
	Address         string           `json:"address" form:"address"`
	TotalWeight     utils.FlexString `json:"total_weight" form:"total_weight"`
	TotalPayment    utils.FlexString `json:"total_payment" form:"total_payment"`
	Notes           string           `json:"notes" form:"notes"`
	BuyItems        []NewBuyItem     `json:"buy_items" form:"-"`
	SellItems       []NewSellItem    `json:"sell_items" form:"-"`
}

// TransactionPatch carries only what the client sent. Empty date, weight,
// payment and party id are treated as absent; phone and notes may be cleared.
type TransactionPatch struct {
	Date         *string           `json:"date" form:"date"`
	PartyId      *string           `json:"party_id" form:"party_id"`
	Phone        *utils.FlexString `json:"phone" form:"phone"`
	TotalWeight  *utils.FlexString `json:"total_weight" form:"total_weight"`
	TotalPayment *utils.FlexString `json:"total_payment" form:"total_payment"`
	Notes        *string           `json:"notes" form:"notes"`
}

type TransactionImages struct {
	Invoice *multipart.FileHeader
	Receipt *multipart.FileHeader
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (i *BuyItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (i *SellItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (input *NewTransaction) partyHint() PartyHint {
	return PartyHint{
		Name:    input.PartyName,
		Phone:   input.Phone.String(),
		Email:   input.Email,
		Address: input.Address,
		Notes:   input.Notes,
	}
}

func (item NewBuyItem) toModel() BuyItem {
	return BuyItem{
		HnyColor:   item.HnyColor.Decimal(),
		BlackColor: item.BlackColor.Decimal(),
	}
}

func (item NewSellItem) toModel() SellItem {
	return SellItem{
		ItemCode:   strings.TrimSpace(item.ItemCode.String()),
		Payment:    item.Payment.Decimal(),
		ShoesHny:   item.ShoesHny.Decimal(),
		SheetHny:   item.SheetHny.Decimal(),
		ShoesBlack: item.ShoesBlack.Decimal(),
		SheetBlack: item.SheetBlack.Decimal(),
	}
}

func nonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return utils.NewValidationError(field + " must not be negative")
	}
	return nil
}

// buildTransaction shapes the row and keeps only the item list that
// matches the transaction type.
func (input *NewTransaction) buildTransaction() (*Transaction, error) {
	rawType := input.Type
	if strings.TrimSpace(rawType) == "" {
		rawType = input.TransactionType
	}
	txType, err := ParseTransactionType(rawType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Date) == "" {
		return nil, utils.NewValidationError("date is required")
	}
	date, err := utils.ParseDate(input.Date)
	if err != nil {
		return nil, utils.NewValidationError("invalid date: " + input.Date)
	}

	t := &Transaction{
		Type:         txType,
		Date:         date,
		Phone:        strings.TrimSpace(input.Phone.String()),
		TotalWeight:  input.TotalWeight.Decimal(),
		TotalPayment: input.TotalPayment.Decimal(),
		Notes:        input.Notes,
	}
	if err := nonNegative("total_weight", t.TotalWeight); err != nil {
		return nil, err
	}
	if err := nonNegative("total_payment", t.TotalPayment); err != nil {
		return nil, err
	}

	switch txType {
	case TransactionTypeBuy:
		for i, item := range input.BuyItems {
			m := item.toModel()
			m.Seq = i
			t.BuyItems = append(t.BuyItems, m)
		}
	case TransactionTypeSell:
		for i, item := range input.SellItems {
			m := item.toModel()
			m.Seq = i
			t.SellItems = append(t.SellItems, m)
		}
	}
	return t, nil
}

func uploadTransactionImages(ctx context.Context, images TransactionImages) (invoice string, receipt string, err error) {
	if invoice, err = utils.UploadImage(ctx, invoiceFolder, images.Invoice); err != nil {
		return "", "", err
	}
	if receipt, err = utils.UploadImage(ctx, receiptFolder, images.Receipt); err != nil {
		return "", "", err
	}
	return invoice, receipt, nil
}

func CreateTransaction(ctx context.Context, input *NewTransaction, images TransactionImages) (*TransactionView, error) {
	ctx, span := tracer.Start(ctx, "models.CreateTransaction")
	defer span.End()

	t, err := input.buildTransaction()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("transaction.type", string(t.Type)))

	actor, err := ResolveActor(ctx)
	if err != nil {
		return nil, err
	}
	t.CreatedBy = actor.ID

	partyId := strings.TrimSpace(input.PartyId)
	hint := input.partyHint().normalized()
	if partyId == "" && hint.empty() {
		return nil, utils.NewValidationError("party_id, party_name or phone is required")
	}

	// the stored record needs the object urls, so uploads finish first
	t.InvoiceImage, t.ReceiptImage, err = uploadTransactionImages(ctx, images)
	if err != nil {
		return nil, err
	}

	if partyId == "" {
		release, err := lockPartyResolution(ctx, hint)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var createdParty *Party
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if partyId != "" {
			if _, err := utils.FetchModelTx[Party](tx, partyId); err != nil {
				if errors.Is(err, utils.ErrorRecordNotFound) {
					return utils.NewValidationError("party not found")
				}
				return err
			}
			t.PartyID = partyId
		} else {
			party, created, err := resolvePartyTraced(ctx, tx, hint, actor.ID)
			if err != nil {
				return err
			}
			t.PartyID = party.ID
			if created {
				createdParty = party
				if err := recordNotification(tx, NotificationActionCreate, EntityTypeParty, party.ID, actor.ID,
					fmt.Sprintf("Party %s created", party.Name)); err != nil {
					return err
				}
			}
		}

		if err := tx.Create(t).Error; err != nil {
			return err
		}
		return recordNotification(tx, NotificationActionCreate, EntityTypeTransaction, t.ID, actor.ID,
			fmt.Sprintf("%s transaction of %s recorded", t.Type.Label(), t.TotalPayment.StringFixed(2)))
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if createdParty != nil {
		publishLedgerEvent(ctx, NotificationActionCreate, EntityTypeParty, createdParty.ID, actor.ID, createdParty)
	}
	return publishAfterCommit(func() (*TransactionView, error) {
		return GetTransaction(ctx, t.ID)
	}, t, func(payload any) {
		publishLedgerEvent(ctx, NotificationActionCreate, EntityTypeTransaction, t.ID, actor.ID, payload)
	})
}

func resolvePartyTraced(ctx context.Context, tx *gorm.DB, hint PartyHint, actorId string) (*Party, bool, error) {
	_, span := tracer.Start(ctx, "models.resolveParty", trace.WithAttributes(
		attribute.Bool("party.by_name", hint.Name != ""),
		attribute.Bool("party.by_phone", hint.Phone != ""),
	))
	defer span.End()

	party, created, err := resolveParty(tx, hint, actorId)
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}
	span.SetAttributes(attribute.Bool("party.created", created))
	return party, created, nil
}

func UpdateTransaction(ctx context.Context, id string, input *TransactionPatch, images TransactionImages) (*TransactionView, error) {
	existing, err := utils.FetchModel[Transaction](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Date != nil && strings.TrimSpace(*input.Date) != "" {
		date, err := utils.ParseDate(*input.Date)
		if err != nil {
			return nil, utils.NewValidationError("invalid date: " + *input.Date)
		}
		updates["date"] = date
	}
	if input.PartyId != nil && strings.TrimSpace(*input.PartyId) != "" {
		partyId := strings.TrimSpace(*input.PartyId)
		if err := utils.ValidateResourceId[Party](ctx, partyId); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, utils.NewValidationError("party not found")
			}
			return nil, err
		}
		updates["party_id"] = partyId
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(input.Phone.String())
	}
	if input.TotalWeight != nil && strings.TrimSpace(input.TotalWeight.String()) != "" {
		w := input.TotalWeight.Decimal()
		if err := nonNegative("total_weight", w); err != nil {
			return nil, err
		}
		updates["total_weight"] = w
	}
	if input.TotalPayment != nil && strings.TrimSpace(input.TotalPayment.String()) != "" {
		p := input.TotalPayment.Decimal()
		if err := nonNegative("total_payment", p); err != nil {
			return nil, err
		}
		updates["total_payment"] = p
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}

	invoice, receipt, err := uploadTransactionImages(ctx, images)
	if err != nil {
		return nil, err
	}
	if invoice != "" {
		updates["invoice_image"] = invoice
	}
	if receipt != "" {
		updates["receipt_image"] = receipt
	}

	if len(updates) > 0 {
		actorId := ActorIdOrEmpty(ctx)
		db := config.GetDB()
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(existing).Updates(updates).Error; err != nil {
				return err
			}
			return recordNotification(tx, NotificationActionUpdate, EntityTypeTransaction, existing.ID, actorId,
				fmt.Sprintf("%s transaction updated", existing.Type.Label()))
		})
		if err != nil {
			return nil, err
		}
		publishLedgerEvent(ctx, NotificationActionUpdate, EntityTypeTransaction, existing.ID, actorId, updates)
	}
	return GetTransaction(ctx, id)
}

func DeleteTransaction(ctx context.Context, id string) error {
	existing, err := utils.FetchModel[Transaction](ctx, id)
	if err != nil {
		return err
	}

	actorId := ActorIdOrEmpty(ctx)
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// items first; schemas created before the cascade constraint still need it
		if err := tx.Where("transaction_id = ?", id).Delete(&BuyItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("transaction_id = ?", id).Delete(&SellItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(existing).Error; err != nil {
			return err
		}
		return recordNotification(tx, NotificationActionDelete, EntityTypeTransaction, id, actorId,
			fmt.Sprintf("%s transaction deleted", existing.Type.Label()))
	})
	if err != nil {
		return err
	}
	publishLedgerEvent(ctx, NotificationActionDelete, EntityTypeTransaction, id, actorId, nil)
	return nil
}

func preloadTransaction(db *gorm.DB) *gorm.DB {
	return db.Preload("Party").
		Preload("BuyItems", func(q *gorm.DB) *gorm.DB { return q.Order("seq") }).
		Preload("SellItems", func(q *gorm.DB) *gorm.DB { return q.Order("seq") })
}

func GetTransaction(ctx context.Context, id string) (*TransactionView, error) {
	var t Transaction
	err := preloadTransaction(config.GetDB().WithContext(ctx)).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return MapTransaction(&t), nil
}

func ListTransactions(ctx context.Context, filter *TransactionFilter) ([]*Transaction, error) {
	results := make([]*Transaction, 0)
	db := preloadTransaction(config.GetDB().WithContext(ctx))
	if err := filter.Apply(db).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func ListTransactionViews(ctx context.Context, filter *TransactionFilter) ([]*TransactionView, error) {
	results, err := ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return MapTransactions(results), nil
}
