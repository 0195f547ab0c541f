package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/ledger_backend/models"
	"gorm.io/gorm"
)

type userReader struct {
	db *gorm.DB
}

// getUsers answers in key order; unknown ids load as nil, not as errors.
func (r *userReader) getUsers(ctx context.Context, ids []string) []*dataloader.Result[*models.User] {
	var results []*models.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.User](len(ids), err)
	}

	resultMap := make(map[string]*models.User, len(results))
	for _, result := range results {
		resultMap[result.ID] = result
	}
	loaderResults := make([]*dataloader.Result[*models.User], 0, len(ids))
	for _, id := range ids {
		loaderResults = append(loaderResults, &dataloader.Result[*models.User]{Data: resultMap[id]})
	}
	return loaderResults
}

func GetUser(ctx context.Context, id string) (*models.User, error) {
	loaders := For(ctx)
	return loaders.UserLoader.Load(ctx, id)()
}

func GetUsers(ctx context.Context, ids []string) ([]*models.User, []error) {
	loaders := For(ctx)
	return loaders.UserLoader.LoadMany(ctx, ids)()
}

// UserEmails maps user id to email for the given ids, skipping blanks,
// duplicates and users that no longer exist.
func UserEmails(ctx context.Context, ids []string) (map[string]string, error) {
	seen := map[string]bool{}
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	emails := make(map[string]string, len(unique))
	if len(unique) == 0 {
		return emails, nil
	}
	users, errs := GetUsers(ctx, unique)
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	for _, u := range users {
		if u != nil {
			emails[u.ID] = u.Email
		}
	}
	return emails, nil
}
