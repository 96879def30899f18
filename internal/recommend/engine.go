// Package recommend ranks notes for a student: it filters candidates from the
// note store, scores them, diversifies the ranking and explains each pick.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/history"
	"github.com/miespacioubb/miespacio/internal/logger"
	"github.com/miespacioubb/miespacio/internal/metrics"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
	"github.com/miespacioubb/miespacio/internal/scorer"
)

const (
	VariantPersonalized = "personalized"
	VariantGeneric      = "generic"
	VariantSubject      = "subject"
)

type Limits struct {
	Default        int
	Max            int
	SubjectDefault int
	SubjectMax     int
}

var DefaultLimits = Limits{Default: 20, Max: 50, SubjectDefault: 10, SubjectMax: 30}

// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	profiles  ProfileStore
	notes     NoteStore
	history   HistoryStore
	scorer    *scorer.Scorer
	weights   scorer.Weights
	diversify DiversifyConfig
	limits    Limits
	cache     Cache
	log       *logger.Logger
	now       func() time.Time
}

type Option func(*Engine)

// WithConfig applies weights, diversification and limits from cfg.
func WithConfig(cfg config.RecommendationConfig) Option {
	return func(e *Engine) {
		e.weights = scorer.WeightsFromConfig(cfg.Weights)
		e.diversify = DiversifyConfigFrom(cfg.Diversification)
		e.limits = Limits{
			Default:        cfg.DefaultLimit,
			Max:            cfg.MaxLimit,
			SubjectDefault: cfg.SubjectLimit,
			SubjectMax:     cfg.MaxSubjectLimit,
		}
	}
}

func WithCache(c Cache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger shares log with the scorer.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine wires the stores. history may be nil, in which case the
// activity component of the temporal score stays neutral.
func NewEngine(profiles ProfileStore, notes NoteStore, hist HistoryStore, opts ...Option) *Engine {
	e := &Engine{
		profiles:  profiles,
		notes:     notes,
		history:   hist,
		diversify: DefaultDiversifyConfig(),
		weights:   scorer.DefaultWeights,
		limits:    DefaultLimits,
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	// Built after every option ran, whatever their order.
	e.scorer = scorer.New(e.weights, e.log)
	e.log = e.log.With("component", "recommend")
	return e
}

// Personalized returns up to limit notes ranked for the student. It returns
// ErrNoProfile when the student has no academic profile and an empty slice
// when nothing matches the profile.
func (e *Engine) Personalized(ctx context.Context, rut string, limit int) (recs []Recommendation, err error) {
	const op = "recommend.Personalized"
	start := time.Now()
	defer func() { e.observe(VariantPersonalized, start, err) }()
	defer e.recoverInternal(op, &err)

	limit = clampLimit(limit, e.limits.Default, e.limits.Max)
	key := cacheKey(rut, limit)
	if cached, ok := e.cachedRanking(ctx, key); ok {
		return cached, nil
	}

	p, h, err := e.loadStudent(ctx, rut)
	if err != nil {
		if errors.Is(err, ErrNoProfile) {
			return nil, ErrNoProfile
		}
		e.log.Error("failed to load student", "op", op, "user_rut", rut, "error", err)
		return nil, internalError(op, err)
	}

	candidates, err := e.filterCandidates(ctx, p)
	if err != nil {
		e.log.Error("failed to filter candidates", "op", op, "user_rut", rut, "error", err)
		return nil, internalError(op, err)
	}
	metrics.CandidatesScored.Observe(float64(len(candidates)))

	now := e.now()
	ranked := Diversify(e.scoreAll(candidates, p, h, now), e.diversify)
	recs = toRecommendations(ranked, limit)

	e.storeRanking(ctx, key, recs)
	e.log.Debug("personalized ranking built",
		"user_rut", rut,
		"candidates", len(candidates),
		"returned", len(recs),
	)
	return recs, nil
}

// Generic returns the most popular active notes. Its score is the quality
// dimension alone.
func (e *Engine) Generic(ctx context.Context, limit int) (recs []Recommendation, err error) {
	const op = "recommend.Generic"
	start := time.Now()
	defer func() { e.observe(VariantGeneric, start, err) }()
	defer e.recoverInternal(op, &err)

	limit = clampLimit(limit, e.limits.Default, e.limits.Max)
	recs, err = e.popular(ctx, "", limit)
	if err != nil {
		e.log.Error("failed to list popular notes", "op", op, "error", err)
		return nil, internalError(op, err)
	}
	return recs, nil
}

// BySubject ranks the notes of one subject. With a known student the notes
// are fully scored without diversification; otherwise they are sorted by
// popularity. rut may be empty.
func (e *Engine) BySubject(ctx context.Context, rut, subject string, limit int) (recs []Recommendation, err error) {
	const op = "recommend.BySubject"
	start := time.Now()
	defer func() { e.observe(VariantSubject, start, err) }()
	defer e.recoverInternal(op, &err)

	limit = clampLimit(limit, e.limits.SubjectDefault, e.limits.SubjectMax)

	known, err := e.notes.Subjects(ctx)
	if err != nil {
		e.log.Error("failed to list subjects", "op", op, "error", err)
		return nil, internalError(op, err)
	}
	subject = resolveSubject(subject, known)

	var (
		p *profile.Profile
		h *history.History
	)
	if rut != "" {
		p, h, err = e.loadStudent(ctx, rut)
		if err != nil && !errors.Is(err, ErrNoProfile) {
			e.log.Error("failed to load student", "op", op, "user_rut", rut, "error", err)
			return nil, internalError(op, err)
		}
	}

	if p == nil {
		recs, err = e.popular(ctx, subject, limit)
		if err != nil {
			e.log.Error("failed to list popular notes", "op", op, "subject", subject, "error", err)
			return nil, internalError(op, err)
		}
		return recs, nil
	}

	notes, err := e.notes.ListBySubjects(ctx, []string{subject}, p.RatedNoteIDs())
	if err != nil {
		e.log.Error("failed to list subject notes", "op", op, "subject", subject, "error", err)
		return nil, internalError(op, err)
	}

	scored := e.scoreAll(notes, p, h, e.now())
	SortByScore(scored)
	return toRecommendations(scored, limit), nil
}

// loadStudent reads the profile and the history concurrently. A failing
// history read only degrades the temporal score.
func (e *Engine) loadStudent(ctx context.Context, rut string) (*profile.Profile, *history.History, error) {
	var (
		p *profile.Profile
		h *history.History
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = e.profiles.Get(gctx, rut)
		if errors.Is(err, profile.ErrNotFound) {
			return ErrNoProfile
		}
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}
		return nil
	})
	if e.history != nil {
		g.Go(func() error {
			var err error
			h, err = e.history.Get(gctx, rut)
			if err != nil {
				if gctx.Err() == nil {
					e.log.Warn("failed to get history, activity stays neutral", "user_rut", rut, "error", err)
				}
				h = nil
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, ErrNoProfile
	}
	return p, h, nil
}

func (e *Engine) scoreAll(notes []note.Note, p *profile.Profile, h *history.History, now time.Time) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(notes))
	for i := range notes {
		n := &notes[i]
		b := e.scorer.Score(n, p, h, now)
		scored = append(scored, ScoredCandidate{
			Note:        *n,
			Score:       b.Final,
			Breakdown:   b,
			Explanation: Explain(n, p, now),
		})
	}
	return scored
}

func (e *Engine) popular(ctx context.Context, subject string, limit int) ([]Recommendation, error) {
	notes, err := e.notes.ListPopular(ctx, subject, limit)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(notes))
	for i := range notes {
		recs = append(recs, Recommendation{
			Note:                 notes[i],
			ScoreRecommendation:  round3(scorer.Quality(&notes[i])),
			ReasonRecommendation: GenericReason,
		})
	}
	return recs, nil
}

func (e *Engine) cachedRanking(ctx context.Context, key string) ([]Recommendation, bool) {
	if e.cache == nil {
		return nil, false
	}
	recs, ok, err := e.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		e.log.Warn("cache lookup failed", "error", err)
		return nil, false
	case !ok:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	default:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return recs, true
	}
}

func (e *Engine) storeRanking(ctx context.Context, key string, recs []Recommendation) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, recs); err != nil {
		e.log.Warn("cache store failed", "error", err)
	}
}

// recoverInternal turns a panic escaping the pipeline into an internal error.
func (e *Engine) recoverInternal(op string, err *error) {
	if r := recover(); r != nil {
		e.log.Error("recommendation panicked", "op", op, "panic", fmt.Sprint(r))
		*err = internalError(op, fmt.Errorf("panic: %v", r))
	}
}

func (e *Engine) observe(variant string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNoProfile):
		outcome = "no_profile"
	case err != nil:
		outcome = "error"
	}
	metrics.ObserveRecommendation(variant, outcome, time.Since(start))
}

func toRecommendations(scored []ScoredCandidate, limit int) []Recommendation {
	if len(scored) > limit {
		scored = scored[:limit]
	}
	recs := make([]Recommendation, 0, len(scored))
	for _, c := range scored {
		recs = append(recs, Recommendation{
			Note:                 c.Note,
			ScoreRecommendation:  round3(c.Score),
			ReasonRecommendation: c.Explanation,
		})
	}
	return recs
}

// clampLimit uses def for non-positive limits and caps at max.
func clampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		limit = def
	}
	return min(limit, ceiling)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func cacheKey(rut string, limit int) string {
	return fmt.Sprintf("%s:%s:%d", VariantPersonalized, rut, limit)
}
