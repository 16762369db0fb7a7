package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sqlx.DB
}

// New opens the SQLite database and ensures the schema exists.
func New(databaseURL string) (*DB, error) {
	if databaseURL == "" {
		databaseURL = "wisp.db"
	}

	db, err := sqlx.Connect("sqlite3", databaseURL+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	wrapper := &DB{DB: db}

	if err := wrapper.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return wrapper, nil
}

func (db *DB) createTables() error {
	storiesTable := `
	CREATE TABLE IF NOT EXISTS folklore_stories (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		origin_culture TEXT NOT NULL DEFAULT '',
		difficulty_level INTEGER NOT NULL DEFAULT 1,
		wisdom_lesson TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	questsTable := `
	CREATE TABLE IF NOT EXISTS quests (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		era TEXT NOT NULL DEFAULT '',
		story_id TEXT NOT NULL DEFAULT '',
		xp INTEGER NOT NULL DEFAULT 0,
		quiz TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	progressTable := `
	CREATE TABLE IF NOT EXISTS user_progress (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		story_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'not_started',
		completed_at DATETIME,
		wisdom_unlocked BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, story_id)
	);`

	blobTable := `
	CREATE TABLE IF NOT EXISTS player_progress (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	activitiesTable := `
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		details TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_progress_user_id ON user_progress(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_progress_story_id ON user_progress(story_id);`,
		`CREATE INDEX IF NOT EXISTS idx_activities_user_id ON activities(user_id);`,
	}

	for _, query := range []string{storiesTable, questsTable, progressTable, blobTable, activitiesTable} {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
