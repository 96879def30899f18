package recommend

import (
	"context"

	"github.com/miespacioubb/miespacio/internal/history"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
	"github.com/miespacioubb/miespacio/internal/scorer"
)

// Recommendation is one ranked entry returned to callers.
type Recommendation struct {
	Note                 note.Note `json:"note"`
	ScoreRecommendation  float64   `json:"scoreRecommendation"`
	ReasonRecommendation string    `json:"reasonRecommendation"`
}

// ScoredCandidate lives for a single request, between scoring and ranking.
type ScoredCandidate struct {
	Note        note.Note
	Score       float64
	Breakdown   scorer.Breakdown
	Explanation string
}

type ProfileStore interface {
	// Get returns profile.ErrNotFound when the student has no profile.
	Get(ctx context.Context, rut string) (*profile.Profile, error)
}

type NoteStore interface {
	Subjects(ctx context.Context) ([]string, error)
	ListBySubjects(ctx context.Context, subjects []string, excludeIDs []int64) ([]note.Note, error)
	// ListPopular returns active notes by popularity. An empty subject
	// means every subject.
	ListPopular(ctx context.Context, subject string, limit int) ([]note.Note, error)
}

type HistoryStore interface {
	// Get returns nil, nil when the student has no recorded actions.
	Get(ctx context.Context, rut string) (*history.History, error)
}

// Cache stores personalized rankings by key. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]Recommendation, bool, error)
	Set(ctx context.Context, key string, recs []Recommendation) error
}
