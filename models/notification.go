package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/ledger_backend/config"
	"github.com/mmdatafocus/ledger_backend/utils"
	"gorm.io/gorm"
)

type Notification struct {
	ID         string             `gorm:"primaryKey;size:36" json:"id"`
	Action     NotificationAction `gorm:"size:10;not null" json:"type"`
	EntityType string             `gorm:"size:20;not null;index:idx_notification_entity" json:"entity_type"`
	EntityID   string             `gorm:"size:36;not null;index:idx_notification_entity" json:"entity_id"`
	Message    string             `gorm:"size:255" json:"message"`
	ActorID    string             `gorm:"size:36" json:"actor_id"`
	IsRead     *bool              `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt  time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
}

const (
	NotificationFilterAll    = "all"
	NotificationFilterUnread = "unread"
	NotificationFilterRead   = "read"

	notificationListLimit = 200
)

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// recordNotification runs inside the caller's transaction so the activity
// row commits or rolls back with the mutation it describes.
func recordNotification(tx *gorm.DB, action NotificationAction, entityType string, entityId string, actorId string, message string) error {
	n := Notification{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityId,
		ActorID:    actorId,
		Message:    message,
		IsRead:     utils.NewFalse(),
	}
	return tx.Create(&n).Error
}

const reportCacheVersionKey = "ReportCache:version"

// ReportCacheVersion changes after every committed ledger mutation; cached
// aggregates embed it in their keys.
func ReportCacheVersion(ctx context.Context) string {
	client := config.GetRedisDB()
	if client == nil {
		return "0"
	}
	v, err := client.Get(ctx, reportCacheVersionKey).Result()
	if err != nil {
		return "0"
	}
	return v
}

func invalidateReportCache(ctx context.Context) {
	client := config.GetRedisDB()
	if client == nil {
		return
	}
	if err := client.Incr(context.WithoutCancel(ctx), reportCacheVersionKey).Err(); err != nil {
		config.LogError(config.GetLogger(), "notification.go", "invalidateReportCache", "Incr", reportCacheVersionKey, err)
	}
}

// publishLedgerEvent runs after a mutation commits. The pub/sub publish is
// best effort and never blocks the request.
func publishLedgerEvent(ctx context.Context, action NotificationAction, entityType string, entityId string, actorId string, payload any) {
	invalidateReportCache(ctx)
	if !config.PubSubEnabled() {
		return
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	evt := config.LedgerEvent{
		Action:        string(action),
		EntityType:    entityType,
		EntityId:      entityId,
		ActorId:       actorId,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
		CorrelationId: correlationId,
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if _, err := config.PublishLedgerEvent(pubCtx, evt); err != nil {
			config.LogError(config.GetLogger(), "notification.go", "publishLedgerEvent", "PublishLedgerEvent", evt, err)
		}
	}()
}

// publishAfterCommit re-reads a committed row for the event payload. publish
// runs even when the re-read fails, with fallback as the payload, so the
// report cache version always moves past the write.
func publishAfterCommit[T any](reread func() (T, error), fallback any, publish func(payload any)) (T, error) {
	v, err := reread()
	if err != nil {
		publish(fallback)
		return v, err
	}
	publish(v)
	return v, nil
}

func ListNotifications(ctx context.Context, filter string) ([]*Notification, error) {
	db := config.GetDB().WithContext(ctx)
	switch filter {
	case "", NotificationFilterAll:
	case NotificationFilterUnread:
		db = db.Where("is_read = ?", false)
	case NotificationFilterRead:
		db = db.Where("is_read = ?", true)
	default:
		return nil, utils.NewValidationError("invalid filter: " + filter)
	}
	results := make([]*Notification, 0)
	if err := db.Order("created_at desc").Limit(notificationListLimit).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func UnreadNotificationCount(ctx context.Context) (int64, error) {
	return utils.ResourceCountWhere[Notification](ctx, "is_read = ?", false)
}

func MarkNotificationRead(ctx context.Context, id string) (*Notification, error) {
	n, err := utils.FetchModel[Notification](ctx, id)
	if err != nil {
		return nil, err
	}
	if utils.DereferencePtr(n.IsRead) {
		return n, nil
	}
	if err := config.GetDB().WithContext(ctx).Model(n).Update("is_read", true).Error; err != nil {
		return nil, err
	}
	n.IsRead = utils.NewTrue()
	return n, nil
}

// MarkAllNotificationsRead returns the number of rows changed.
func MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	result := config.GetDB().WithContext(ctx).Model(&Notification{}).
		Where("is_read = ?", false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
