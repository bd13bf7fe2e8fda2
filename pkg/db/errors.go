package db

import (
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err is a unique constraint failure. When
// constraintName is set only that constraint matches. SQLite errors are
// matched on their message since the driver exposes no SQLSTATE.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.PostgresDetail(err); ok {
		if pg.Code != pkgerrors.PGUniqueViolation {
			return false
		}
		return constraintName == "" || pg.Constraint == constraintName
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}

// IsNotFound reports gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
