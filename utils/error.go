package utils

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrorRecordNotFound = errors.New("record not found")

// ValidationError marks a client-side problem (bad input, unresolvable
// reference). Its message is passed to the caller verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDuplicateKeyError reports a unique constraint violation on either driver.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// gorm.ErrDuplicatedKey when TranslateError is enabled, or wrapped driver text
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "duplicate entry")
}

var ErrorUnauthorized = errors.New("unauthorized")

var ErrorForbidden = errors.New("forbidden")

var ErrorResourceBusy = errors.New("resource is busy, please retry")
