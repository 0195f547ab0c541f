package utils

import (
	"context"
	"errors"

	"github.com/mmdatafocus/ledger_backend/config"
	"gorm.io/gorm"
)

// FetchModel loads a T by id with the given associations preloaded.
func FetchModel[T any](ctx context.Context, id string, associations ...string) (*T, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("database not connected")
	}
	return FetchModelTx[T](db.WithContext(ctx), id, associations...)
}

// FetchModelTx is FetchModel inside an open transaction.
func FetchModelTx[T any](tx *gorm.DB, id string, associations ...string) (*T, error) {
	var result T
	q := tx
	for _, a := range associations {
		q = q.Preload(a)
	}
	if err := q.Where("id = ?", id).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}
