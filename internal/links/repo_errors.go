package links

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/linkshelf/internal/errx"
)

// isIntegrityViolation reports constraint failures (SQLSTATE class 23) and
// malformed input values (22xxx), both caused by the request rather than
// the database.
func isIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return strings.HasPrefix(pgErr.Code, "23") || strings.HasPrefix(pgErr.Code, "22")
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isIntegrityViolation(err):
		return errx.E(op, errx.Invalid, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}
