// Package settingsstore persists the viewer settings edited through the
// settings form.
package settingsstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/SayaAndy/photobox/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db       *sql.DB
	defaults photobox.GallerySettings

	cached   *photobox.GallerySettings
	cacheMux sync.RWMutex
}

// Open connects to the database and applies pending migrations. Defaults are
// returned by Load until settings are saved for the first time.
func Open(dbType string, dsn string, defaults photobox.GallerySettings) (*Store, error) {
	db, err := sql.Open(dbType, dsn)
	if err != nil {
		return nil, fmt.Errorf("fail to initialize db: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, defaults: defaults}, nil
}

func Migrate(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("fail to initialize driver for migrating db: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("fail to read migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("fail to initialize migration client: %w", err)
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("fail to apply migrations: %w", err)
	}
	slog.Debug("successfully applied migrations")

	return nil
}

func (s *Store) Load(ctx context.Context) (photobox.GallerySettings, error) {
	s.cacheMux.RLock()
	if s.cached != nil {
		settings := *s.cached
		s.cacheMux.RUnlock()
		return settings, nil
	}
	s.cacheMux.RUnlock()

	s.cacheMux.Lock()
	defer s.cacheMux.Unlock()

	if s.cached != nil {
		return *s.cached, nil
	}

	var settings photobox.GallerySettings
	err := s.db.QueryRowContext(ctx,
		"select history, loop, thumbs, zoomable from photobox_settings where name = ?;",
		photobox.SettingsConfigName,
	).Scan(&settings.History, &settings.Loop, &settings.Thumbs, &settings.Zoomable)
	if errors.Is(err, sql.ErrNoRows) {
		settings = s.defaults
	} else if err != nil {
		return photobox.GallerySettings{}, fmt.Errorf("fail to query photobox settings: %w", err)
	}

	s.cached = &settings
	return settings, nil
}

func (s *Store) Save(ctx context.Context, settings photobox.GallerySettings) error {
	s.cacheMux.Lock()
	defer s.cacheMux.Unlock()

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO photobox_settings (name, history, loop, thumbs, zoomable, updated)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(name) DO UPDATE SET
		history = excluded.history,
		loop = excluded.loop,
		thumbs = excluded.thumbs,
		zoomable = excluded.zoomable,
		updated = excluded.updated;
	`, photobox.SettingsConfigName, settings.History, settings.Loop, settings.Thumbs, settings.Zoomable)
	if err != nil {
		s.cached = nil
		return fmt.Errorf("fail to store photobox settings: %w", err)
	}

	s.cached = &settings
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
