package cmd

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/fixture"
	"github.com/miespacioubb/miespacio/internal/note"
)

func TestTruncate(t *testing.T) {
	if got := truncate("Álgebra", 10); got != "Álgebra" {
		t.Errorf("expected Álgebra, got %s", got)
	}
	if got := truncate("Cálculo Diferencial", 10); got != "Cálculo..." {
		t.Errorf("expected Cálculo..., got %s", got)
	}
}

func TestRelatedNotes(t *testing.T) {
	base := &note.Note{ID: 1, Subject: "Cálculo Diferencial", Tags: []string{"derivadas", "límites"}}
	all := []note.Note{
		*base,
		{ID: 2, Subject: "Química", Tags: []string{"derivadas", "límites"}, State: catalog.StateActive},
		{ID: 3, Subject: "Cálculo Integral", Tags: []string{"integrales"}, State: catalog.StateActive},
		{ID: 4, Subject: "Cálculo Diferencial", Tags: []string{"derivadas"}, State: catalog.StateSuspended},
		{ID: 5, Subject: "Historia", Tags: []string{"guerras"}, State: catalog.StateActive},
	}

	related := relatedNotes(base, all, 5)
	if len(related) != 2 {
		t.Fatalf("expected 2 related notes, got %d", len(related))
	}
	if related[0].note.ID != 2 || related[0].score != 1 {
		t.Errorf("expected note 2 first with score 1, got %d (%.2f)", related[0].note.ID, related[0].score)
	}
	if related[1].note.ID != 3 {
		t.Errorf("expected note 3 second, got %d", related[1].note.ID)
	}

	if got := relatedNotes(base, all, 1); len(got) != 1 {
		t.Errorf("expected limit 1, got %d", len(got))
	}
}

func TestHighlight(t *testing.T) {
	plain := lipgloss.NewStyle()
	got := highlight("las <b>derivadas</b> de <b>orden</b> superior", plain, plain)
	if got != "las derivadas de orden superior" {
		t.Errorf("unexpected highlight %q", got)
	}
	if got := highlight("sin <b>cierre", plain, plain); got != "sin <b>cierre" {
		t.Errorf("expected unterminated marker untouched, got %q", got)
	}
}

type recordingInvalidator struct {
	all  int
	ruts []string
	err  error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, rut string) error {
	r.ruts = append(r.ruts, rut)
	return r.err
}

func (r *recordingInvalidator) InvalidateAll(_ context.Context) error {
	r.all++
	return r.err
}

func TestInvalidateRankings(t *testing.T) {
	ctx := context.Background()

	t.Run("new notes drop every ranking", func(t *testing.T) {
		r := &recordingInvalidator{}
		errs := invalidateRankings(ctx, r, &fixture.Summary{Notes: 2, Ruts: []string{"20123456-7"}})
		if len(errs) != 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
		if r.all != 1 {
			t.Errorf("expected 1 full invalidation, got %d", r.all)
		}
		if len(r.ruts) != 0 {
			t.Errorf("expected no per-user invalidation, got %v", r.ruts)
		}
	})

	t.Run("profiles only drop touched students", func(t *testing.T) {
		r := &recordingInvalidator{}
		invalidateRankings(ctx, r, &fixture.Summary{Ruts: []string{"21000000-0", "20123456-7"}})
		if r.all != 0 {
			t.Errorf("expected no full invalidation, got %d", r.all)
		}
		if !slices.Equal(r.ruts, []string{"20123456-7", "21000000-0"}) {
			t.Errorf("expected sorted ruts, got %v", r.ruts)
		}
	})

	t.Run("errors are reported", func(t *testing.T) {
		r := &recordingInvalidator{err: errors.New("redis down")}
		errs := invalidateRankings(ctx, r, &fixture.Summary{Ruts: []string{"20123456-7", "21000000-0"}})
		if len(errs) != 2 {
			t.Errorf("expected 2 errors, got %d", len(errs))
		}
	})
}
