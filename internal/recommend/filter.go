package recommend

import (
	"context"
	"fmt"

	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
	"github.com/miespacioubb/miespacio/internal/scorer"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

// RelevantSubjects returns the enrolled and interest subjects plus every
// known subject that is either one of them or related to the curriculum.
// Store spellings are kept so they can be queried verbatim.
func RelevantSubjects(p *profile.Profile, known []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, s := range p.TrackedSubjects() {
		add(s)
	}
	for _, s := range known {
		if p.IsDirectlyRelevant(s) || scorer.IsRelatedToCurriculum(s, p) {
			add(s)
		}
	}
	return out
}

// filterCandidates loads the notes worth scoring for p. Notes the student
// already rated are excluded; inactive notes are kept for the penalty to bury.
func (e *Engine) filterCandidates(ctx context.Context, p *profile.Profile) ([]note.Note, error) {
	known, err := e.notes.Subjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	subjects := RelevantSubjects(p, known)
	if len(subjects) == 0 {
		return nil, nil
	}

	notes, err := e.notes.ListBySubjects(ctx, subjects, p.RatedNoteIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate notes: %w", err)
	}
	return notes, nil
}

// resolveSubject maps a requested subject to the spelling used by the store.
func resolveSubject(subject string, known []string) string {
	n := similarity.Normalize(subject)
	for _, s := range known {
		if similarity.Normalize(s) == n {
			return s
		}
	}
	return subject
}
