package storage

import (
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
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
		premium BOOLEAN NOT NULL DEFAULT 1,
		sequence_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS progress (
		user_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT 0,
		completed_at DATETIME,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, class_id)
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		user_id TEXT PRIMARY KEY,
		plan TEXT NOT NULL,
		status TEXT NOT NULL,
		billing_cycle TEXT NOT NULL,
		current_period_start DATETIME NOT NULL,
		current_period_end DATETIME NOT NULL,
		trial_ends_at DATETIME,
		cancel_at_period_end BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		goal TEXT NOT NULL DEFAULT '',
		bmi REAL,
		weight REAL,
		height REAL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		class_id TEXT NOT NULL,
		planned_sec INTEGER NOT NULL,
		practice_sec INTEGER NOT NULL,
		completed BOOLEAN NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NOT NULL,
		steps_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_user_id ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_ended_at ON sessions(ended_at);
`

type SQLiteRepository struct {
	*sqlRepository
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	repo, err := openSQL("sqlite3", dbPath, dialect{name: "sqlite", schema: sqliteSchema})
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers; one connection avoids "database is locked".
	repo.db.SetMaxOpenConns(1)

	return &SQLiteRepository{repo}, nil
}
