package storage

import (
	"fmt"

	_ "github.com/lib/pq"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS classes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		instructor_name TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL,
		level TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		goals_json TEXT NOT NULL,
		video_url TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		premium BOOLEAN NOT NULL DEFAULT TRUE,
		sequence_json JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS progress (
		user_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TIMESTAMPTZ,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, class_id)
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		user_id TEXT PRIMARY KEY,
		plan TEXT NOT NULL,
		status TEXT NOT NULL,
		billing_cycle TEXT NOT NULL,
		current_period_start TIMESTAMPTZ NOT NULL,
		current_period_end TIMESTAMPTZ NOT NULL,
		trial_ends_at TIMESTAMPTZ,
		cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		goal TEXT NOT NULL DEFAULT '',
		bmi DOUBLE PRECISION,
		weight DOUBLE PRECISION,
		height DOUBLE PRECISION,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		planned_sec INTEGER NOT NULL,
		practice_sec INTEGER NOT NULL,
		completed BOOLEAN NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ NOT NULL,
		steps_json JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_user_id ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_ended_at ON sessions(ended_at);
`

type PostgresRepository struct {
	*sqlRepository
}

func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	repo, err := openSQL("postgres", connStr, dialect{name: "postgres", schema: postgresSchema, numbered: true})
	if err != nil {
		return nil, err
	}
	return &PostgresRepository{repo}, nil
}

// NewRepository opens the backend named by driver ("sqlite3" or "postgres").
func NewRepository(driver, dsn string) (Repository, error) {
	switch driver {
	case "sqlite3", "sqlite":
		repo, err := NewSQLiteRepository(dsn)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "postgres", "postgresql":
		repo, err := NewPostgresRepository(dsn)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}
