package persistence

import (
	"database/sql"
	"errors"

	"mailagent/pkg/apperr"
)

// mapDBError translates driver errors into the application taxonomy.
func mapDBError(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(resource)
	}
	return apperr.DatabaseError("query "+resource, err)
}

func mapNoRows(resource string) error {
	return apperr.NotFound(resource)
}
