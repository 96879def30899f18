package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB is either the connection pool or, inside Atomic, a view bound to one
// transaction.
type DB struct {
	conn *sql.DB
	tx   *sql.Tx
	path string
}

func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	if db.tx != nil {
		return nil
	}
	return db.conn.Close()
}

func (db *DB) Path() string {
	return db.path
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if db.tx != nil {
		return db.tx.ExecContext(ctx, query, args...)
	}
	return db.conn.ExecContext(ctx, query, args...)
}

func (db *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if db.tx != nil {
		return db.tx.QueryContext(ctx, query, args...)
	}
	return db.conn.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	if db.tx != nil {
		return db.tx.QueryRowContext(ctx, query, args...)
	}
	return db.conn.QueryRowContext(ctx, query, args...)
}

// WithTx runs fn inside a transaction, rolling back when fn fails. On a
// transaction-bound DB it joins the open transaction.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if db.tx != nil {
		return fn(db.tx)
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Atomic runs fn with a DB bound to a single transaction. Repositories
// built on it commit together, or not at all when fn fails.
func (db *DB) Atomic(ctx context.Context, fn func(tx *DB) error) error {
	if db.tx != nil {
		return fn(db)
	}
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(&DB{conn: db.conn, tx: tx, path: db.path})
	})
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_rut TEXT PRIMARY KEY,
		enrolled TEXT NOT NULL DEFAULT '[]',
		interests TEXT NOT NULL DEFAULT '[]',
		curriculum TEXT NOT NULL DEFAULT '[]',
		study_methods TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		subject TEXT NOT NULL,
		note_type TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		complexity_level TEXT,
		state TEXT NOT NULL DEFAULT 'Activo',
		author_rut TEXT NOT NULL,
		uploaded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		view_count INTEGER NOT NULL DEFAULT 0,
		download_count INTEGER NOT NULL DEFAULT 0,
		rating_average REAL NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY,
		note_id INTEGER NOT NULL REFERENCES notes(id),
		author_rut TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS note_ratings (
		note_id INTEGER NOT NULL REFERENCES notes(id),
		user_rut TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 7),
		rated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (note_id, user_rut)
	);

	CREATE TABLE IF NOT EXISTS note_downloads (
		note_id INTEGER NOT NULL REFERENCES notes(id),
		user_rut TEXT NOT NULL,
		downloaded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (note_id, user_rut)
	);

	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY,
		user_rut TEXT NOT NULL,
		action TEXT NOT NULL,
		note_id INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_notes_subject ON notes(subject);
	CREATE INDEX IF NOT EXISTS idx_notes_downloads ON notes(download_count DESC);
	CREATE INDEX IF NOT EXISTS idx_comments_note ON comments(note_id);
	CREATE INDEX IF NOT EXISTS idx_ratings_user ON note_ratings(user_rut);
	CREATE INDEX IF NOT EXISTS idx_downloads_user ON note_downloads(user_rut);
	CREATE INDEX IF NOT EXISTS idx_actions_user ON actions(user_rut, created_at);

	CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts4(
		title,
		content,
		tokenize=unicode61
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}
