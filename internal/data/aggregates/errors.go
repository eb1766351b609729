package aggregates

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/lessonplan-backend/internal/domain/errs"
)

// Postgres SQLSTATEs that get a code other than persistence.
var pgCodes = map[string]errs.Code{
	"23505": errs.CodeConflict,   // unique_violation
	"23514": errs.CodeValidation, // check_violation
	"22P02": errs.CodeValidation, // invalid_text_representation
}

// MapError gives driver and GORM failures a domain code. Errors that
// already carry one pass through untouched; anything unrecognised is a
// persistence failure.
func MapError(op string, err error) error {
	if err == nil || errs.CodeOf(err) != "" {
		return err
	}
	return errs.Wrap(classify(err), op, err)
}

func classify(err error) errs.Code {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.CodeConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.CodeNotFound
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrEmptySlice):
		return errs.CodeValidation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgCodes[strings.TrimSpace(pgErr.Code)]; ok {
			return code
		}
		return errs.CodePersistence
	}

	// sqlite reports constraint failures as text only.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key") {
		return errs.CodeConflict
	}
	return errs.CodePersistence
}
