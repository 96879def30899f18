// Package fixture loads notes, academic profiles and action histories from a
// YAML document into the database.
package fixture

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/history"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
)

// Fixture refers to notes by the id given in the document. Those ids are
// local to the file and are remapped to database ids on import.
type Fixture struct {
	Notes    []NoteEntry       `yaml:"notes"`
	Profiles []profile.Profile `yaml:"profiles"`
	History  []HistoryEntry    `yaml:"history"`
}

type NoteEntry struct {
	note.Note `yaml:",inline"`
	Comments  []CommentEntry `yaml:"comments"`
}

type CommentEntry struct {
	AuthorRut string `yaml:"author_rut"`
	Body      string `yaml:"body"`
}

type HistoryEntry struct {
	UserRut string           `yaml:"user_rut"`
	Actions []history.Action `yaml:"actions"`
}

type Summary struct {
	Notes     int
	Comments  int
	Profiles  int
	Ratings   int
	Downloads int
	Actions   int
	// Ruts lists every user whose profile or history changed.
	Ruts []string
}

func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the document before anything is written: notes and
// profiles must be valid and every note reference must resolve.
func (f *Fixture) Validate() error {
	ids := make(map[int64]bool, len(f.Notes))
	for i := range f.Notes {
		n := &f.Notes[i].Note
		if n.ID == 0 {
			return fmt.Errorf("note %q: id is required", n.Title)
		}
		if ids[n.ID] {
			return fmt.Errorf("note %d: duplicate id", n.ID)
		}
		if err := n.Validate(); err != nil {
			return fmt.Errorf("note %d: %w", n.ID, err)
		}
		for _, c := range f.Notes[i].Comments {
			if c.AuthorRut == "" {
				return fmt.Errorf("note %d: comment author rut is required", n.ID)
			}
			if strings.TrimSpace(c.Body) == "" {
				return fmt.Errorf("note %d: comment body is required", n.ID)
			}
		}
		ids[n.ID] = true
	}

	for i := range f.Profiles {
		p := &f.Profiles[i]
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %d: %w", i+1, err)
		}
		for _, r := range p.RatedNotes {
			if !ids[r.NoteID] {
				return fmt.Errorf("profile %d rates unknown note %d", i+1, r.NoteID)
			}
			if r.Rating < 1 || r.Rating > 7 {
				return fmt.Errorf("profile %d: rating %d out of 1-7", i+1, r.Rating)
			}
		}
		for _, id := range p.DownloadedNoteIDs {
			if !ids[id] {
				return fmt.Errorf("profile %d downloads unknown note %d", i+1, id)
			}
		}
	}

	for i, h := range f.History {
		if h.UserRut == "" {
			return fmt.Errorf("history %d: user rut is required", i+1)
		}
		for _, a := range h.Actions {
			if !history.ValidAction(a.Type) {
				return fmt.Errorf("history %d: unknown action %q", i+1, a.Type)
			}
			if a.NoteID != nil && !ids[*a.NoteID] {
				return fmt.Errorf("history %d references unknown note %d", i+1, *a.NoteID)
			}
		}
	}
	return nil
}

// Import writes the whole document in one transaction: a failure leaves the
// database untouched. Notes go first so that ratings, downloads and actions
// can be attached to their database ids.
func (f *Fixture) Import(ctx context.Context, db *database.DB) (*Summary, error) {
	if err := f.Validate(); err != nil {
		return &Summary{}, err
	}

	var sum *Summary
	err := db.Atomic(ctx, func(tx *database.DB) error {
		var err error
		sum, err = f.write(ctx, tx)
		return err
	})
	if err != nil {
		return &Summary{}, err
	}
	return sum, nil
}

func (f *Fixture) write(ctx context.Context, db *database.DB) (*Summary, error) {
	notes := note.NewRepository(db)
	profiles := profile.NewRepository(db)
	actions := history.NewRepository(db)

	sum := &Summary{}
	ids := make(map[int64]int64, len(f.Notes))
	touched := make(map[string]bool)

	for _, entry := range f.Notes {
		n := entry.Note
		localID := n.ID
		n.ID = 0
		stored, err := notes.Add(ctx, &n)
		if err != nil {
			return sum, fmt.Errorf("note %d: %w", localID, err)
		}
		ids[localID] = stored.ID
		sum.Notes++

		for _, c := range entry.Comments {
			if _, err := notes.AddComment(ctx, stored.ID, c.AuthorRut, c.Body); err != nil {
				return sum, fmt.Errorf("note %d comment: %w", localID, err)
			}
			sum.Comments++
		}
	}

	for i := range f.Profiles {
		p := f.Profiles[i]
		if err := profiles.Save(ctx, &p); err != nil {
			return sum, fmt.Errorf("profile %s: %w", p.UserRut, err)
		}
		touched[p.UserRut] = true
		sum.Profiles++

		for _, r := range p.RatedNotes {
			if err := profiles.AddRating(ctx, p.UserRut, ids[r.NoteID], r.Rating); err != nil {
				return sum, fmt.Errorf("profile %s: %w", p.UserRut, err)
			}
			sum.Ratings++
		}
		for _, id := range p.DownloadedNoteIDs {
			if err := profiles.AddDownload(ctx, p.UserRut, ids[id]); err != nil {
				return sum, fmt.Errorf("profile %s: %w", p.UserRut, err)
			}
			sum.Downloads++
		}
	}

	for _, h := range f.History {
		for _, a := range h.Actions {
			var noteID *int64
			if a.NoteID != nil {
				mapped := ids[*a.NoteID]
				noteID = &mapped
			}
			if _, err := actions.Add(ctx, h.UserRut, a.Type, noteID, a.CreatedAt); err != nil {
				return sum, fmt.Errorf("history %s: %w", h.UserRut, err)
			}
			sum.Actions++
		}
		touched[h.UserRut] = true
	}

	for rut := range touched {
		sum.Ruts = append(sum.Ruts, rut)
	}
	return sum, nil
}
