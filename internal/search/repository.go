package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/note"
)

type SearchResult struct {
	NoteID        int64     `json:"note_id"`
	Title         string    `json:"title"`
	Subject       string    `json:"subject"`
	NoteType      string    `json:"note_type"`
	UploadedAt    time.Time `json:"uploaded_at"`
	Snippet       string    `json:"snippet"`
	DownloadCount int       `json:"download_count"`
	RatingAverage float64   `json:"rating_average"`
}

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// BuildQuery turns free user input into an FTS MATCH expression: every word
// must appear, as a prefix. Words are lowercased so none reads as an
// operator. It returns "" when nothing searchable remains.
func BuildQuery(input string) string {
	words := strings.FieldsFunc(input, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	for _, w := range words {
		terms = append(terms, strings.ToLower(w)+"*")
	}
	return strings.Join(terms, " ")
}

// Search finds active notes matching query, most downloaded first.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	match := BuildQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT
			n.id,
			n.title,
			n.subject,
			n.note_type,
			n.uploaded_at,
			snippet(notes_fts, '<b>', '</b>', '...', -1, 16) as snippet,
			n.download_count,
			n.rating_average
		FROM notes_fts
		JOIN notes n ON notes_fts.rowid = n.id
		WHERE notes_fts MATCH ? AND n.state = ?
		ORDER BY n.download_count DESC, n.rating_average DESC, n.id
		LIMIT ?
	`, match, catalog.StateActive, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var sr SearchResult
		if err := rows.Scan(&sr.NoteID, &sr.Title, &sr.Subject, &sr.NoteType, &sr.UploadedAt,
			&sr.Snippet, &sr.DownloadCount, &sr.RatingAverage); err != nil {
			return nil, err
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}

// RebuildIndex repopulates the full text index from the notes table and
// returns how many notes were indexed.
func (r *Repository) RebuildIndex(ctx context.Context) (int, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, subject, note_type, tags, COALESCE(description, '') FROM notes`)
	if err != nil {
		return 0, fmt.Errorf("failed to read notes: %w", err)
	}

	var notes []note.Note
	for rows.Next() {
		var (
			n    note.Note
			tags string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Subject, &n.NoteType, &tags, &n.Description); err != nil {
			rows.Close()
			return 0, err
		}
		if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to decode tags of note %d: %w", n.ID, err)
		}
		notes = append(notes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM notes_fts"); err != nil {
			return err
		}
		for i := range notes {
			n := &notes[i]
			_, err := tx.ExecContext(ctx, `INSERT INTO notes_fts (rowid, title, content) VALUES (?, ?, ?)`,
				n.ID, n.Title, note.IndexContent(n))
			if err != nil {
				return fmt.Errorf("failed to index note %d: %w", n.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(notes), nil
}
