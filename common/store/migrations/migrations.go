package migrations

import (
	"github.com/mattes/migrate"
	_ "github.com/mattes/migrate/database/postgres"
	_ "github.com/mattes/migrate/source/file"
	"github.com/pkg/errors"
)

type ApplyOptions struct {
	SourceURL   string
	DatabaseURL string
}

type ApplyResult struct {
	Err     error
	Changes bool
	Version uint
}

// Up applies every pending migration found under SourceURL.
func Up(options ApplyOptions) (res ApplyResult) {
	m, err := migrate.New(options.SourceURL, options.DatabaseURL)
	if err != nil {
		res.Err = errors.Wrap(err, "failed to open migration source")
		return
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		res.Err = errors.Wrap(err, "failed to apply migrations")
		return
	} else if err == nil {
		res.Changes = true
	}

	version, _, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		res.Err = errors.Wrap(err, "failed to read schema version")
		return
	}
	res.Version = version
	return
}
