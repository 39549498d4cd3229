package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a query matches no rows.
var ErrNotFound = errors.New("not found")

// Error classifies a PostgreSQL failure so handlers can produce a clearer
// client message than the raw driver error.
type Error struct {
	Kind       Kind
	Column     string // set for not-null and undefined-column violations
	Constraint string
	cause      error
}

// Kind enumerates the PostgreSQL failure classes the API distinguishes.
type Kind int

const (
	KindOther Kind = iota
	KindUniqueViolation
	KindForeignKeyViolation
	KindNotNullViolation
	KindUndefinedColumn
	KindConnection
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindUniqueViolation:
		return fmt.Sprintf("unique constraint violation: %s", e.Constraint)
	case KindForeignKeyViolation:
		return fmt.Sprintf("foreign key violation: %s", e.Constraint)
	case KindNotNullViolation:
		return fmt.Sprintf("column %q must not be null", e.Column)
	case KindUndefinedColumn:
		return fmt.Sprintf("column %q does not exist (pending migration?)", e.Column)
	case KindConnection:
		return "database connection error"
	default:
		return e.cause.Error()
	}
}

func (e *Error) Unwrap() error { return e.cause }

// ClientMessage is a safe, human-readable message for API responses.
func (e *Error) ClientMessage() string {
	switch e.Kind {
	case KindNotNullViolation:
		return fmt.Sprintf("required field %q is missing", e.Column)
	case KindUndefinedColumn:
		return fmt.Sprintf("schema out of date: column %q missing, run pending migrations", e.Column)
	case KindForeignKeyViolation:
		return "referenced row does not exist"
	default:
		return "database error"
	}
}

// MapError translates pgx errors into sentinel/typed errors. pgx.ErrNoRows
// becomes ErrNotFound; PgError codes become *Error; anything else passes
// through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &Error{Kind: KindUniqueViolation, Constraint: pgErr.ConstraintName, cause: err}
	case pgerrcode.ForeignKeyViolation:
		return &Error{Kind: KindForeignKeyViolation, Constraint: pgErr.ConstraintName, cause: err}
	case pgerrcode.NotNullViolation:
		return &Error{Kind: KindNotNullViolation, Column: pgErr.ColumnName, cause: err}
	case pgerrcode.UndefinedColumn:
		return &Error{Kind: KindUndefinedColumn, Column: pgErr.ColumnName, cause: err}
	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.TooManyConnections:
		return &Error{Kind: KindConnection, cause: err}
	default:
		return &Error{Kind: KindOther, cause: err}
	}
}

// IsUniqueViolation reports whether err is a mapped unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var dbErr *Error
	return errors.As(err, &dbErr) && dbErr.Kind == KindUniqueViolation
}
