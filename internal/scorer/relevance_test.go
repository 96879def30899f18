package scorer

import (
	"math"
	"testing"
	"time"

	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
)

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func activeNote(subject string) *note.Note {
	return &note.Note{
		ID:         1,
		Subject:    subject,
		NoteType:   catalog.TypeSummary,
		State:      catalog.StateActive,
		UploadedAt: testNow.AddDate(0, 0, -10),
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestAcademicRelevanceEnrolledOnly(t *testing.T) {
	p := &profile.Profile{Enrolled: []string{"Cálculo Diferencial"}}
	n := activeNote("Cálculo Diferencial")

	score := AcademicRelevance(n, p)
	if score < 0.5 {
		t.Errorf("expected relevance >= 0.5 for an enrolled subject, got %f", score)
	}
	if !approxEqual(score, 0.5) {
		t.Errorf("expected exactly 0.5 without other signals, got %f", score)
	}
}

func TestAcademicRelevanceAdditiveAndClamped(t *testing.T) {
	p := &profile.Profile{
		Enrolled:   []string{"Cálculo Diferencial"},
		Interests:  []string{"Cálculo Diferencial", "Derivadas"},
		Curriculum: []profile.CurriculumEntry{{Subject: "Cálculo Integral", ComplexityRank: 5}},
	}
	n := activeNote("Cálculo Diferencial")
	n.Tags = []string{"derivadas"}

	// 0.5 + 0.3 + 0.2 + 0.1 exceeds 1 before clamping.
	if score := AcademicRelevance(n, p); score != 1.0 {
		t.Errorf("expected clamped relevance 1.0, got %f", score)
	}
}

func TestAcademicRelevanceCurriculumRatio(t *testing.T) {
	p := &profile.Profile{
		Curriculum: []profile.CurriculumEntry{
			{Subject: "Cálculo Integral", ComplexityRank: 5},
			{Subject: "Historia del Arte", ComplexityRank: 2},
		},
	}
	n := activeNote("Cálculo Vectorial")

	// One of two curriculum subjects is related: 0.20 * 1/2.
	if score := AcademicRelevance(n, p); !approxEqual(score, 0.10) {
		t.Errorf("expected 0.10, got %f", score)
	}
}

func TestAcademicRelevanceNoSignal(t *testing.T) {
	p := &profile.Profile{Enrolled: []string{"Física I"}}
	if score := AcademicRelevance(activeNote("Historia"), p); score != 0 {
		t.Errorf("expected 0, got %f", score)
	}
	if score := AcademicRelevance(activeNote("Historia"), nil); score != 0 {
		t.Errorf("expected 0 for nil profile, got %f", score)
	}
}
