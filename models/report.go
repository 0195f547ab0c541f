package models

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/utils"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const reportListLimit = 50

// Report is an archived snapshot; it is never updated after creation.
type Report struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Name        string         `gorm:"size:191;not null" json:"name"`
	Type        string         `gorm:"size:50" json:"type"`
	StartDate   *time.Time     `json:"start_date"`
	EndDate     *time.Time     `json:"end_date"`
	Data        datatypes.JSON `json:"data"`
	GeneratedBy string         `gorm:"size:36;index" json:"generated_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

type NewReport struct {
	Name        string `json:"name" validate:"required,max=191"`
	Type        string `json:"type" validate:"max=50"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	GeneratedBy string `json:"generatedBy"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Transactions decodes the stored snapshot.
func (r *Report) Transactions() ([]*TransactionView, error) {
	results := make([]*TransactionView, 0)
	if len(r.Data) == 0 {
		return results, nil
	}
	if err := json.Unmarshal(r.Data, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// GenerateReport snapshots every transaction in the date range. Type is a
// label only and does not narrow the snapshot.
func GenerateReport(ctx context.Context, input *NewReport) (*Report, error) {
	ctx, span := tracer.Start(ctx, "models.GenerateReport")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	filter, err := ParseTransactionFilter(TransactionQuery{
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}, time.Now())
	if err != nil {
		return nil, err
	}
	filter = filter.DateRangeOnly()

	views, err := ListTransactionViews(ctx, filter)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("report.transactions", len(views)))
	data, err := json.Marshal(views)
	if err != nil {
		return nil, err
	}

	generatedBy := strings.TrimSpace(input.GeneratedBy)
	if generatedBy == "" {
		generatedBy = ActorIdOrEmpty(ctx)
	}
	report := Report{
		Name:        input.Name,
		Type:        strings.TrimSpace(input.Type),
		StartDate:   filter.StartDate,
		EndDate:     filter.EndDate,
		Data:        datatypes.JSON(data),
		GeneratedBy: generatedBy,
	}
	if err := config.GetDB().WithContext(ctx).Create(&report).Error; err != nil {
		return nil, err
	}
	publishLedgerEvent(ctx, NotificationActionCreate, EntityTypeReport, report.ID, generatedBy,
		map[string]interface{}{"name": report.Name, "transactions": len(views)})
	return &report, nil
}

// ListReports returns the most recent reports, snapshots included.
func ListReports(ctx context.Context) ([]*Report, error) {
	results := make([]*Report, 0)
	err := config.GetDB().WithContext(ctx).
		Order("created_at desc").
		Limit(reportListLimit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetReport(ctx context.Context, id string) (*Report, error) {
	report, err := utils.FetchModel[Report](ctx, id)
	if err != nil {
		return nil, err
	}
	return report, nil
}
