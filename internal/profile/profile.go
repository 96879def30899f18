package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/miespacioubb/miespacio/internal/similarity"
)

var (
	ErrNotFound          = errors.New("academic profile not found")
	ErrInvalidCurriculum = errors.New("invalid curriculum entry")
)

type Evaluation struct {
	Type   string  `json:"type" yaml:"type"`
	Grade  float64 `json:"grade" yaml:"grade"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// CurriculumEntry carries either graded evaluations or a complexity rank,
// never both. ComplexityRank is 0 when absent.
type CurriculumEntry struct {
	Subject        string       `json:"subject" yaml:"subject"`
	Evaluations    []Evaluation `json:"evaluations,omitempty" yaml:"evaluations,omitempty"`
	ComplexityRank int          `json:"complexity_rank,omitempty" yaml:"complexity_rank,omitempty"`
}

func (e CurriculumEntry) Validate() error {
	if e.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidCurriculum)
	}
	if len(e.Evaluations) > 0 && e.ComplexityRank != 0 {
		return fmt.Errorf("%w: %s has both evaluations and a complexity rank", ErrInvalidCurriculum, e.Subject)
	}
	if e.ComplexityRank != 0 && (e.ComplexityRank < 1 || e.ComplexityRank > 10) {
		return fmt.Errorf("%w: %s complexity rank %d out of 1-10", ErrInvalidCurriculum, e.Subject, e.ComplexityRank)
	}
	for _, ev := range e.Evaluations {
		if ev.Grade != 0 && (ev.Grade < 1 || ev.Grade > 7) {
			return fmt.Errorf("%w: %s grade %.1f out of 1-7", ErrInvalidCurriculum, e.Subject, ev.Grade)
		}
		if ev.Weight < 0 || ev.Weight > 100 {
			return fmt.Errorf("%w: %s weight %.1f out of 0-100", ErrInvalidCurriculum, e.Subject, ev.Weight)
		}
	}
	return nil
}

type RatedNote struct {
	NoteID int64 `json:"note_id" yaml:"note_id"`
	Rating int   `json:"rating" yaml:"rating"`
}

type Profile struct {
	UserRut           string            `json:"user_rut" yaml:"user_rut"`
	Enrolled          []string          `json:"enrolled" yaml:"enrolled"`
	Interests         []string          `json:"interests" yaml:"interests"`
	Curriculum        []CurriculumEntry `json:"curriculum" yaml:"curriculum"`
	StudyMethods      []string          `json:"study_methods" yaml:"study_methods"`
	RatedNotes        []RatedNote       `json:"rated_notes" yaml:"rated_notes"`
	DownloadedNoteIDs []int64           `json:"downloaded_note_ids" yaml:"downloaded_note_ids"`
	UpdatedAt         time.Time         `json:"updated_at" yaml:"-"`
}

func (p *Profile) Validate() error {
	if p.UserRut == "" {
		return errors.New("user rut is required")
	}
	for _, e := range p.Curriculum {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Profile) IsEnrolled(subject string) bool {
	return containsSubject(p.Enrolled, subject)
}

func (p *Profile) IsInterested(subject string) bool {
	return containsSubject(p.Interests, subject)
}

// IsDirectlyRelevant reports whether the subject is enrolled or of interest.
func (p *Profile) IsDirectlyRelevant(subject string) bool {
	return p.IsEnrolled(subject) || p.IsInterested(subject)
}

// TrackedSubjects returns enrolled subjects followed by interest subjects.
func (p *Profile) TrackedSubjects() []string {
	out := make([]string, 0, len(p.Enrolled)+len(p.Interests))
	out = append(out, p.Enrolled...)
	return append(out, p.Interests...)
}

func (p *Profile) CurriculumSubjects() []string {
	out := make([]string, 0, len(p.Curriculum))
	for _, e := range p.Curriculum {
		out = append(out, e.Subject)
	}
	return out
}

// CurriculumEntryFor returns the curriculum entry of subject, or nil.
func (p *Profile) CurriculumEntryFor(subject string) *CurriculumEntry {
	n := similarity.Normalize(subject)
	for i := range p.Curriculum {
		if similarity.Normalize(p.Curriculum[i].Subject) == n {
			return &p.Curriculum[i]
		}
	}
	return nil
}

func (p *Profile) HasRated(noteID int64) bool {
	for _, r := range p.RatedNotes {
		if r.NoteID == noteID {
			return true
		}
	}
	return false
}

func (p *Profile) HasDownloaded(noteID int64) bool {
	for _, id := range p.DownloadedNoteIDs {
		if id == noteID {
			return true
		}
	}
	return false
}

func (p *Profile) RatedNoteIDs() []int64 {
	ids := make([]int64, 0, len(p.RatedNotes))
	for _, r := range p.RatedNotes {
		ids = append(ids, r.NoteID)
	}
	return ids
}

func containsSubject(subjects []string, subject string) bool {
	n := similarity.Normalize(subject)
	if n == "" {
		return false
	}
	for _, s := range subjects {
		if similarity.Normalize(s) == n {
			return true
		}
	}
	return false
}
