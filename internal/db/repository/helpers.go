// Package repository implements the domain store interfaces using SQLite.
package repository

import (
	"database/sql"
	"errors"

	"whereabouts/internal/domain"
)

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func mapDBError(message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: message + ": not found"}
	}
	return domain.ErrStore(message, err)
}
