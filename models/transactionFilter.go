package models

import (
	"strings"
	"time"

	"github.com/mmdatafocus/ledger_backend/utils"
	"gorm.io/gorm"
)

const (
	OrderByCreatedDesc = "created_at desc, id desc"
	OrderByDateDesc    = "date desc, created_at desc, id desc"
)

// TransactionFilter is the shared query for listing, summaries, dashboards,
// report snapshots and exports. Both date bounds are inclusive.
type TransactionFilter struct {
	Type      *TransactionType
	PartyId   string
	StartDate *time.Time
	EndDate   *time.Time
	OrderBy   string
}

// TransactionQuery is the raw query-string form.
type TransactionQuery struct {
	Type      string `form:"type"`
	PartyId   string `form:"partyId"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Period    string `form:"period"`
}

// ParseTransactionFilter treats "all" and blanks as no constraint. A plain
// calendar end date covers that whole day. An explicit start or end date
// overrides the matching bound of a named period.
func ParseTransactionFilter(q TransactionQuery, now time.Time) (*TransactionFilter, error) {
	f := &TransactionFilter{OrderBy: OrderByCreatedDesc}

	if t := strings.TrimSpace(q.Type); t != "" && !strings.EqualFold(t, "all") {
		txType, err := ParseTransactionType(t)
		if err != nil {
			return nil, err
		}
		f.Type = &txType
	}
	if p := strings.TrimSpace(q.PartyId); p != "" && !strings.EqualFold(p, "all") {
		f.PartyId = p
	}

	start, end, err := utils.PeriodRange(q.Period, now)
	if err != nil {
		return nil, err
	}
	f.StartDate, f.EndDate = start, end

	if s := strings.TrimSpace(q.StartDate); s != "" {
		d, err := utils.ParseDate(s)
		if err != nil {
			return nil, utils.NewValidationError("invalid startDate: " + s)
		}
		f.StartDate = &d
	}
	if s := strings.TrimSpace(q.EndDate); s != "" {
		d, err := utils.ParseDate(s)
		if err != nil {
			return nil, utils.NewValidationError("invalid endDate: " + s)
		}
		if utils.IsDateOnly(s) {
			d = utils.EndOfDay(d)
		}
		f.EndDate = &d
	}
	return f, nil
}

func (f *TransactionFilter) Apply(db *gorm.DB) *gorm.DB {
	if f == nil {
		return db.Order(OrderByCreatedDesc)
	}
	if f.Type != nil {
		db = db.Where("type = ?", *f.Type)
	}
	if f.PartyId != "" {
		db = db.Where("party_id = ?", f.PartyId)
	}
	if f.StartDate != nil {
		db = db.Where("date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		db = db.Where("date <= ?", *f.EndDate)
	}
	order := f.OrderBy
	if order == "" {
		order = OrderByCreatedDesc
	}
	return db.Order(order)
}

// DateRangeOnly drops everything but the date bounds; report snapshots
// ignore the type and party.
func (f *TransactionFilter) DateRangeOnly() *TransactionFilter {
	if f == nil {
		return &TransactionFilter{OrderBy: OrderByCreatedDesc}
	}
	return &TransactionFilter{StartDate: f.StartDate, EndDate: f.EndDate, OrderBy: f.OrderBy}
}
