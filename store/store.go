package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/mbolis/hvac-survey/database"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned for stale versions, duplicate keys and
	// deletions of records still referenced by surveys.
	ErrConflict = errors.New("conflict")
)

// Store groups the repositories of every record type. Errors coming from
// the database are wrapped and returned unchanged otherwise.
type Store struct {
	Templates *TemplateStore
	Surveys   *SurveyStore
	Equipment *EquipmentStore
	Users     *UserStore

	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{
		Templates: &TemplateStore{db},
		Surveys:   &SurveyStore{db},
		Equipment: &EquipmentStore{db},
		Users:     &UserStore{db},
		db:        db,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == "23503"
	}
	return false
}
