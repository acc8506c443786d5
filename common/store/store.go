package store

import (
	"database/sql"
	"strings"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

type Store struct {
	Db              *gorm.DB `inject:""`
	StringGenerator interface {
		GenerateUuid() string
	} `inject:""`
}

func (s *Store) Tx() *gorm.DB {
	return s.Db.Begin()
}

func (s *Store) dbOrTx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.Db
}

func (s *Store) newId() sql.NullString {
	return DbNullString(s.StringGenerator.GenerateUuid())
}

// Models lists every persisted type, in dependency order.
func Models() []interface{} {
	return []interface{}{&User{}, &Child{}, &Activity{}, &Assessment{}}
}

func DbNullString(value string) sql.NullString {
	if value != "" {
		return sql.NullString{
			String: value,
			Valid:  true,
		}
	}
	return sql.NullString{
		String: "",
		Valid:  false,
	}
}

func DbNullStringPtr(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return DbNullString(*value)
}

func DbNullInt64(value *int64) sql.NullInt64 {
	if value != nil {
		return sql.NullInt64{
			Int64: *value,
			Valid: true,
		}
	}
	return sql.NullInt64{
		Valid: false,
	}
}

func DbNullFloat64(value *float64) sql.NullFloat64 {
	if value != nil {
		return sql.NullFloat64{
			Float64: *value,
			Valid:   true,
		}
	}
	return sql.NullFloat64{
		Valid: false,
	}
}

type SearchOptions struct {
	CaregiverId string
	Limit       int
}

// translateConstraintError maps postgres constraint violations to the store sentinels so
// that concurrent writes slipping past the pre-checks still name the conflicting field.
func translateConstraintError(err error) error {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok {
		return err
	}
	if pqErr.Code == foreignKeyViolation && pqErr.Table == "children" {
		return ErrUserInUse
	}
	if pqErr.Code != uniqueViolation {
		return err
	}
	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return ErrEmailTaken
	case strings.Contains(pqErr.Constraint, "phone"):
		return ErrPhoneTaken
	case strings.Contains(pqErr.Constraint, "level"):
		return ErrActiveLevelExists
	}
	return err
}
