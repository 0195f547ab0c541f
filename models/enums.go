package models

import (
	"strings"

	"github.com/mmdatafocus/ledger_backend/utils"
)

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleUser
}

type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "buy"
	TransactionTypeSell TransactionType = "sell"
)

// ParseTransactionType accepts both the stored names (buy/sell) and the
// client-facing names (buying/selling), case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "buying":
		return TransactionTypeBuy, nil
	case "sell", "selling":
		return TransactionTypeSell, nil
	case "":
		return "", utils.NewValidationError("transaction type is required")
	default:
		return "", utils.NewValidationError("invalid transaction type: " + s)
	}
}

// APIName is the client-facing name: buying or selling.
func (t TransactionType) APIName() string {
	switch t {
	case TransactionTypeBuy:
		return "buying"
	case TransactionTypeSell:
		return "selling"
	default:
		return string(t)
	}
}

// Label is APIName capitalised, for messages.
func (t TransactionType) Label() string {
	switch t {
	case TransactionTypeBuy:
		return "Buying"
	case TransactionTypeSell:
		return "Selling"
	default:
		return string(t)
	}
}

type NotificationAction string

const (
	NotificationActionCreate NotificationAction = "create"
	NotificationActionUpdate NotificationAction = "update"
	NotificationActionDelete NotificationAction = "delete"
)

const (
	EntityTypeTransaction = "transaction"
	EntityTypeParty       = "party"
	EntityTypeReport      = "report"
)
