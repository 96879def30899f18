// internal/note/repository.go
package note

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/database"
)

const noteColumns = `n.id, n.title, COALESCE(n.description, ''), n.subject, n.note_type, n.tags,
	COALESCE(n.complexity_level, ''), n.state, n.author_rut, n.uploaded_at,
	n.view_count, n.download_count, n.rating_average, n.rating_count`

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Add(ctx context.Context, n *Note) (*Note, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	stored := *n
	stored.Canonicalize()
	if stored.State == "" {
		stored.State = catalog.StateActive
	}
	if stored.UploadedAt.IsZero() {
		stored.UploadedAt = time.Now().UTC()
	}
	if stored.Tags == nil {
		stored.Tags = []string{}
	}
	tags, err := json.Marshal(stored.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	var level any
	if stored.ComplexityLevel != "" {
		level = stored.ComplexityLevel
	}

	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO notes (title, description, subject, note_type, tags, complexity_level, state,
				author_rut, uploaded_at, view_count, download_count, rating_average, rating_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, stored.Title, stored.Description, stored.Subject, stored.NoteType, string(tags), level, stored.State,
			stored.AuthorRut, stored.UploadedAt, stored.ViewCount, stored.DownloadCount,
			stored.Rating.Average, stored.Rating.Count)
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		stored.ID = id

		_, err = tx.ExecContext(ctx, `INSERT INTO notes_fts (rowid, title, content) VALUES (?, ?, ?)`,
			id, stored.Title, IndexContent(&stored))
		if err != nil {
			return fmt.Errorf("failed to index note: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Note, error) {
	row := r.db.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes n WHERE n.id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	notes := []Note{*n}
	if err := r.attachComments(ctx, notes); err != nil {
		return nil, err
	}
	return &notes[0], nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Note, error) {
	return r.query(ctx, `SELECT `+noteColumns+` FROM notes n ORDER BY n.uploaded_at DESC, n.id DESC LIMIT ? OFFSET ?`,
		limit, offset)
}

func (r *Repository) ListAll(ctx context.Context) ([]Note, error) {
	return r.query(ctx, `SELECT `+noteColumns+` FROM notes n ORDER BY n.id`)
}

// Subjects returns every distinct subject that has at least one note.
func (r *Repository) Subjects(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT subject FROM notes ORDER BY subject`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// ListBySubjects returns the notes of the given subjects, in any state,
// skipping excludeIDs.
func (r *Repository) ListBySubjects(ctx context.Context, subjects []string, excludeIDs []int64) ([]Note, error) {
	if len(subjects) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(subjects)+len(excludeIDs))
	for _, s := range subjects {
		args = append(args, s)
	}
	query := `SELECT ` + noteColumns + ` FROM notes n WHERE n.subject IN (` + placeholders(len(subjects)) + `)`
	if len(excludeIDs) > 0 {
		query += ` AND n.id NOT IN (` + placeholders(len(excludeIDs)) + `)`
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY n.id`

	return r.query(ctx, query, args...)
}

// ListPopular returns active notes ordered by downloads, rating and recency.
// An empty subject means every subject.
func (r *Repository) ListPopular(ctx context.Context, subject string, limit int) ([]Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes n WHERE n.state = ?`
	args := []any{catalog.StateActive}
	if subject != "" {
		query += ` AND n.subject = ?`
		args = append(args, subject)
	}
	query += ` ORDER BY n.download_count DESC, n.rating_average DESC, n.uploaded_at DESC, n.id LIMIT ?`
	args = append(args, limit)

	return r.query(ctx, query, args...)
}

func (r *Repository) AddComment(ctx context.Context, noteID int64, authorRut, body string) (int64, error) {
	if strings.TrimSpace(body) == "" {
		return 0, errors.New("comment body is required")
	}
	result, err := r.db.Exec(ctx, `INSERT INTO comments (note_id, author_rut, body) VALUES (?, ?, ?)`,
		noteID, authorRut, body)
	if err != nil {
		return 0, fmt.Errorf("failed to insert comment: %w", err)
	}
	return result.LastInsertId()
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Note, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachComments(ctx, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *Repository) attachComments(ctx context.Context, notes []Note) error {
	if len(notes) == 0 {
		return nil
	}

	index := make(map[int64]int, len(notes))
	args := make([]any, 0, len(notes))
	for i := range notes {
		index[notes[i].ID] = i
		args = append(args, notes[i].ID)
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, note_id FROM comments WHERE note_id IN (`+placeholders(len(args))+`) ORDER BY id`, args...)
	if err != nil {
		return fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var commentID, noteID int64
		if err := rows.Scan(&commentID, &noteID); err != nil {
			return err
		}
		if i, ok := index[noteID]; ok {
			notes[i].CommentIDs = append(notes[i].CommentIDs, commentID)
		}
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*Note, error) {
	var (
		n    Note
		tags string
	)
	err := s.Scan(&n.ID, &n.Title, &n.Description, &n.Subject, &n.NoteType, &tags,
		&n.ComplexityLevel, &n.State, &n.AuthorRut, &n.UploadedAt,
		&n.ViewCount, &n.DownloadCount, &n.Rating.Average, &n.Rating.Count)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of note %d: %w", n.ID, err)
	}
	return &n, nil
}

// IndexContent is the full text indexed for a note besides its title.
func IndexContent(n *Note) string {
	parts := []string{n.Subject, n.NoteType, strings.Join(n.Tags, " "), n.PlainDescription()}
	return strings.Join(parts, " ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
