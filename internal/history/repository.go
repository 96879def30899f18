package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/miespacioubb/miespacio/internal/database"
)

const (
	ActionUpload   = "subida"
	ActionComment  = "comentario"
	ActionRating   = "valoracion"
	ActionDownload = "descarga"
	ActionView     = "visualizacion"
)

func ValidAction(t string) bool {
	switch t {
	case ActionUpload, ActionComment, ActionRating, ActionDownload, ActionView:
		return true
	}
	return false
}

type Action struct {
	ID        int64     `json:"id" yaml:"-"`
	Type      string    `json:"type" yaml:"type"` // "subida", "comentario", "valoracion", "descarga", "visualizacion"
	NoteID    *int64    `json:"note_id,omitempty" yaml:"note_id,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// History is the append-only action log of one user.
type History struct {
	UserRut string
	Actions []Action
}

// CountSince counts the actions at or after t.
func (h *History) CountSince(t time.Time) int {
	if h == nil {
		return 0
	}
	count := 0
	for _, a := range h.Actions {
		if !a.CreatedAt.Before(t) {
			count++
		}
	}
	return count
}

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Add(ctx context.Context, rut, actionType string, noteID *int64, at time.Time) (*Action, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	result, err := r.db.Exec(ctx,
		`INSERT INTO actions (user_rut, action, note_id, created_at) VALUES (?, ?, ?, ?)`,
		rut, actionType, noteID, at,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert action: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &Action{
		ID:        id,
		Type:      actionType,
		NoteID:    noteID,
		CreatedAt: at,
	}, nil
}

// Get returns the user's history, or nil when nothing was ever recorded.
func (r *Repository) Get(ctx context.Context, rut string) (*History, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, action, note_id, created_at FROM actions WHERE user_rut = ? ORDER BY created_at`,
		rut,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var (
			a      Action
			noteID sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.Type, &noteID, &a.CreatedAt); err != nil {
			return nil, err
		}
		if noteID.Valid {
			a.NoteID = &noteID.Int64
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(actions) == 0 {
		return nil, nil // No history recorded
	}
	return &History{UserRut: rut, Actions: actions}, nil
}
