package recommend

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/history"
	"github.com/miespacioubb/miespacio/internal/logger"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
	"github.com/miespacioubb/miespacio/internal/scorer"
)

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type fakeProfiles struct {
	profiles map[string]*profile.Profile
	err      error
}

func (f *fakeProfiles) Get(ctx context.Context, rut string) (*profile.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[rut]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return p, nil
}

type fakeNotes struct {
	notes       []note.Note
	err         error
	bySubjCalls int
}

func (f *fakeNotes) Subjects(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	seen := make(map[string]bool)
	var out []string
	for _, n := range f.notes {
		if !seen[n.Subject] {
			seen[n.Subject] = true
			out = append(out, n.Subject)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeNotes) ListBySubjects(ctx context.Context, subjects []string, excludeIDs []int64) ([]note.Note, error) {
	f.bySubjCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []note.Note
	for _, n := range f.notes {
		if !containsString(subjects, n.Subject) || containsID(excludeIDs, n.ID) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNotes) ListPopular(ctx context.Context, subject string, limit int) ([]note.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []note.Note
	for _, n := range f.notes {
		if n.State != catalog.StateActive || (subject != "" && n.Subject != subject) {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DownloadCount != out[j].DownloadCount {
			return out[i].DownloadCount > out[j].DownloadCount
		}
		return out[i].Rating.Average > out[j].Rating.Average
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeHistory struct {
	histories map[string]*history.History
	err       error
}

func (f *fakeHistory) Get(ctx context.Context, rut string) (*history.History, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.histories[rut], nil
}

type memCache struct {
	data map[string][]Recommendation
	hits int
}

func (c *memCache) Get(ctx context.Context, key string) ([]Recommendation, bool, error) {
	recs, ok := c.data[key]
	if ok {
		c.hits++
	}
	return recs, ok, nil
}

func (c *memCache) Set(ctx context.Context, key string, recs []Recommendation) error {
	c.data[key] = recs
	return nil
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func mkNote(id int64, subject, noteType, state string) note.Note {
	return note.Note{
		ID:         id,
		Title:      "Apunte " + subject,
		Subject:    subject,
		NoteType:   noteType,
		State:      state,
		AuthorRut:  "11111111-1",
		UploadedAt: testNow.AddDate(0, 0, -5),
	}
}

func testEngine(notes *fakeNotes, profiles map[string]*profile.Profile, opts ...Option) *Engine {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewEngine(&fakeProfiles{profiles: profiles}, notes, &fakeHistory{}, opts...)
}

func studentProfile() *profile.Profile {
	return &profile.Profile{
		UserRut:    "20123456-7",
		Enrolled:   []string{"Cálculo Diferencial"},
		Interests:  []string{"Física I"},
		RatedNotes: []profile.RatedNote{{NoteID: 5, Rating: 6}},
	}
}

func ids(recs []Recommendation) []int64 {
	out := make([]int64, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Note.ID)
	}
	return out
}

func TestPersonalizedRanksProfileMatches(t *testing.T) {
	notes := &fakeNotes{notes: []note.Note{
		mkNote(1, "Cálculo Diferencial", catalog.TypeSummary, catalog.StateActive),
		mkNote(2, "Física I", catalog.TypeSolvedExercise, catalog.StateActive),
		mkNote(3, "Historia del Arte", catalog.TypeSummary, catalog.StateActive),
		mkNote(4, "Cálculo Diferencial", catalog.TypeConceptMap, catalog.StateSuspended),
		mkNote(5, "Física I", catalog.TypeFormulary, catalog.StateActive),
	}}
	p := studentProfile()
	engine := testEngine(notes, map[string]*profile.Profile{p.UserRut: p})

	recs, err := engine.Personalized(context.Background(), p.UserRut, 10)
	if err != nil {
		t.Fatalf("Personalized failed: %v", err)
	}

	got := ids(recs)
	want := []int64{1, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("expected ids %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected ids %v, got %v", want, got)
			break
		}
	}

	for _, r := range recs {
		if r.ScoreRecommendation < 0 {
			t.Errorf("expected non-negative score, got %f", r.ScoreRecommendation)
		}
		if scaled := r.ScoreRecommendation * 1000; math.Abs(scaled-math.Round(scaled)) > 1e-6 {
			t.Errorf("expected score rounded to 3 decimals, got %v", r.ScoreRecommendation)
		}
	}

	if recs[2].ScoreRecommendation > recs[0].ScoreRecommendation*0.1+0.001 {
		t.Errorf("expected suspended note to be buried, got %f vs %f",
			recs[2].ScoreRecommendation, recs[0].ScoreRecommendation)
	}

	wantReason := "Estás cursando Cálculo Diferencial • Contenido reciente"
	if recs[0].ReasonRecommendation != wantReason {
		t.Errorf("expected reason %q, got %q", wantReason, recs[0].ReasonRecommendation)
	}
	if !strings.HasPrefix(recs[1].ReasonRecommendation, "Es de tu interés: Física I") {
		t.Errorf("unexpected reason %q", recs[1].ReasonRecommendation)
	}
}

func TestPersonalizedNoProfile(t *testing.T) {
	engine := testEngine(&fakeNotes{}, nil)

	_, err := engine.Personalized(context.Background(), "1-9", 10)
	if !errors.Is(err, ErrNoProfile) {
		t.Errorf("expected ErrNoProfile, got %v", err)
	}
	if IsInternal(err) {
		t.Error("expected missing profile not to be an internal error")
	}
}

func TestPersonalizedNoCandidates(t *testing.T) {
	notes := &fakeNotes{notes: []note.Note{
		mkNote(1, "Historia del Arte", catalog.TypeSummary, catalog.StateActive),
	}}
	p := studentProfile()
	engine := testEngine(notes, map[string]*profile.Profile{p.UserRut: p})

	recs, err := engine.Personalized(context.Background(), p.UserRut, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no recommendations, got %d", len(recs))
	}
}

func TestPersonalizedExcludesRatedNotes(t *testing.T) {
	notes := &fakeNotes{notes: []note.Note{
		mkNote(5, "Física I", catalog.TypeFormulary, catalog.StateActive),
	}}
	p := studentProfile()
	engine := testEngine(notes, map[string]*profile.Profile{p.UserRut: p})

	recs, err := engine.Personalized(context.Background(), p.UserRut, 10)
	if err != nil {
		t.Fatalf("Personalized failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected rated note to be excluded, got %v", ids(recs))
	}
}

func TestPersonalizedIncludesCurriculumRelatedSubjects(t *testing.T) {
	notes := &fakeNotes{notes: []note.Note{
		mkNote(1, "Cálculo Integral", catalog.TypeSummary, catalog.StateActive),
	}}
	p := &profile.Profile{
		UserRut:    "1-9",
		Curriculum: []profile.CurriculumEntry{{Subject: "Cálculo Diferencial", ComplexityRank: 4}},
	}
	engine := testEngine(notes, map[string]*profile.Profile{p.UserRut: p})

	recs, err := engine.Personalized(context.Background(), p.UserRut, 10)
	if err != nil {
		t.Fatalf("Personalized failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Note.ID != 1 {
		t.Errorf("expected the related subject note, got %v", ids(recs))
	}
}

func TestPersonalizedLimits(t *testing.T) {
	var all []note.Note
	for i := int64(1); i <= 60; i++ {
		all = append(all, mkNote(i, "Cálculo Diferencial", catalog.TypeSummary, catalog.StateActive))
	}
	p := studentProfile()
	engine := testEngine(&fakeNotes{notes: all}, map[string]*profile.Profile{p.UserRut: p})

	recs, err := engine.Personalized(context.Background(), p.UserRut, 100)
	if err != nil {
		t.Fatalf("Personalized failed: %v", err)
	}
	if len(recs) != 50 {
		t.Errorf("expected limit capped at 50, got %d", len(recs))
	}

	recs, err = engine.Personalized(context.Background(), p.UserRut, 0)
	if err != nil {
		t.Fatalf("Personalized failed: %v", err)
	}
	if len(recs) != 20 {
		t.Errorf("expected default limit 20, got %d", len(recs))
	}
}

func TestPersonalizedStoreFailure(t *testing.T) {
	storeErr := errors.New("database is locked")
	p := studentProfile()
	engine := testEngine(&fakeNotes{err: storeErr}, map[string]*profile.Profile{p.UserRut: p})

	_, err := engine.Personalized(context.Background(), p.UserRut, 10)
	if !IsInternal(err) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}

	profiles := &fakeProfiles{err: storeErr}
	engine = NewEngine(profiles, &fakeNotes{}, nil)
	if _, err := engine.Personalized(context.Background(), "1-9", 10); !IsInternal(err) {
		t.Errorf("expected internal error for profile store failure, got %v", err)
	}
}

func TestPersonalizedHistoryFailureDegrades(t *testing.T) {
	notes := &fakeNotes{notes: []note.Note{
		mkNote(1, "Cálculo Diferencial", catalog.TypeSummary, catalog.StateActive),
	}}
	p := studentProfile()
	engine := NewEngine(
		&fakeProfiles{profiles: map[string]*profile.Profile{p.UserRut: p}},
		notes,
		&fakeHistory{err: errors.New("timeout")},
		WithClock(func() time.Time { return testNow }),
	)

	recs, err := engine.Personalized(context.Background(), p.UserRut, 10)
	if err != nil {
		t.Fatalf("expected history failure to be tolerated, got %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("expected 1 recommendation, got %d", len(recs))
	}
}

func TestPersonalizedUsesCache(t *testing.T) {
	notes := &fakeNotes{notes: []note.Note{
		mkNote(1, "Cálculo Diferencial", catalog.TypeSummary, catalog.StateActive),
	}}
	p := studentProfile()
	cache := &memCache{data: make(map[string][]Recommendation)}
	engine := testEngine(notes, map[string]*profile.Profile{p.UserRut: p}, WithCache(cache))

	first, err := engine.Personalized(context.Background(), p.UserRut, 10)
	if err != nil {
		t.Fatalf("Personalized failed: %v", err)
	}
	second, err := engine.Personalized(context.Background(), p.UserRut, 10)
	if err != nil {
		t.Fatalf("Personalized failed: %v", err)
	}

	if notes.bySubjCalls != 1 {
		t.Errorf("expected the store to be queried once, got %d", notes.bySubjCalls)
	}
	if cache.hits != 1 {
		t.Errorf("expected 1 cache hit, got %d", cache.hits)
	}
	if len(first) != len(second) || first[0].Note.ID != second[0].Note.ID {
		t.Errorf("expected cached ranking to match, got %v and %v", ids(first), ids(second))
	}
}

func TestGeneric(t *testing.T) {
	a := mkNote(1, "Física I", catalog.TypeSummary, catalog.StateActive)
	a.DownloadCount = 10
	b := mkNote(2, "Química", catalog.TypeSummary, catalog.StateActive)
	b.DownloadCount = 90
	b.Rating = note.Rating{Average: 4.5, Count: 12}
	c := mkNote(3, "Química", catalog.TypeSummary, catalog.StateSuspended)
	c.DownloadCount = 500

	engine := testEngine(&fakeNotes{notes: []note.Note{a, b, c}}, nil)
	recs, err := engine.Generic(context.Background(), 0)
	if err != nil {
		t.Fatalf("Generic failed: %v", err)
	}

	got := ids(recs)
	if len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Fatalf("expected ids [2 1], got %v", got)
	}
	for _, r := range recs {
		if r.ReasonRecommendation != GenericReason {
			t.Errorf("expected generic reason, got %q", r.ReasonRecommendation)
		}
	}
	if recs[1].ScoreRecommendation != 0.375 {
		t.Errorf("expected quality 0.375 for a note without signals, got %f", recs[1].ScoreRecommendation)
	}
}

func TestBySubjectWithoutProfile(t *testing.T) {
	a := mkNote(1, "Física I", catalog.TypeSummary, catalog.StateActive)
	a.DownloadCount = 5
	b := mkNote(2, "Física I", catalog.TypeSolvedExercise, catalog.StateActive)
	b.DownloadCount = 50
	c := mkNote(3, "Química", catalog.TypeSummary, catalog.StateActive)

	engine := testEngine(&fakeNotes{notes: []note.Note{a, b, c}}, nil)

	recs, err := engine.BySubject(context.Background(), "", "fisica i", 0)
	if err != nil {
		t.Fatalf("BySubject failed: %v", err)
	}
	got := ids(recs)
	if len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("expected ids [2 1], got %v", got)
	}

	recs, err = engine.BySubject(context.Background(), "unknown-rut", "Física I", 0)
	if err != nil {
		t.Fatalf("expected unknown student to fall back to popularity, got %v", err)
	}
	if len(recs) != 2 || recs[0].ReasonRecommendation != GenericReason {
		t.Errorf("expected popularity ranking, got %+v", recs)
	}
}

func TestBySubjectWithProfile(t *testing.T) {
	a := mkNote(1, "Física I", catalog.TypeSummary, catalog.StateSuspended)
	b := mkNote(2, "Física I", catalog.TypeSolvedExercise, catalog.StateActive)
	rated := mkNote(5, "Física I", catalog.TypeFormulary, catalog.StateActive)

	p := studentProfile()
	engine := testEngine(&fakeNotes{notes: []note.Note{a, b, rated}}, map[string]*profile.Profile{p.UserRut: p})

	recs, err := engine.BySubject(context.Background(), p.UserRut, "Física I", 30)
	if err != nil {
		t.Fatalf("BySubject failed: %v", err)
	}
	got := ids(recs)
	if len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("expected ids [2 1], got %v", got)
	}
	if recs[0].ReasonRecommendation == GenericReason {
		t.Error("expected a personalized reason")
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit, want int
	}{
		{0, 20},
		{-3, 20},
		{1, 1},
		{50, 50},
		{51, 50},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.limit, 20, 50); got != tt.want {
			t.Errorf("clampLimit(%d): expected %d, got %d", tt.limit, tt.want, got)
		}
	}
}

func TestOptionsOrderIndependent(t *testing.T) {
	cfg := config.Default().Recommendation
	cfg.Weights = config.WeightsConfig{Academic: 0.4, Performance: 0.2, Method: 0.2, Quality: 0.1, Temporal: 0.1}
	want := scorer.WeightsFromConfig(cfg.Weights)

	orders := map[string]func(log *logger.Logger) []Option{
		"config first": func(log *logger.Logger) []Option { return []Option{WithConfig(cfg), WithLogger(log)} },
		"logger first": func(log *logger.Logger) []Option { return []Option{WithLogger(log), WithConfig(cfg)} },
	}
	for name, build := range orders {
		t.Run(name, func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

			p := studentProfile()
			engine := NewEngine(
				&fakeProfiles{profiles: map[string]*profile.Profile{p.UserRut: p}},
				&fakeNotes{},
				&fakeHistory{err: errors.New("timeout")},
				build(log)...,
			)
			if got := engine.scorer.Weights(); got != want {
				t.Errorf("expected weights %+v, got %+v", want, got)
			}

			if _, err := engine.Personalized(context.Background(), p.UserRut, 5); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			entries := logs.FilterMessageSnippet("failed to get history").All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 history warning, got %d", len(entries))
			}
			components := 0
			for _, f := range entries[0].Context {
				if f.Key == "component" {
					components++
				}
			}
			if components != 1 {
				t.Errorf("expected a single component field, got %d", components)
			}
		})
	}
}
