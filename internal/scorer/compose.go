package scorer

import (
	"fmt"
	"math"
	"time"

	"github.com/miespacioubb/miespacio/internal/history"
	"github.com/miespacioubb/miespacio/internal/logger"
	"github.com/miespacioubb/miespacio/internal/metrics"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

const (
	DimensionAcademic    = "academic"
	DimensionPerformance = "performance"
	DimensionMethod      = "method"
	DimensionQuality     = "quality"
	DimensionTemporal    = "temporal"
)

// Breakdown keeps every intermediate value of one note's score.
type Breakdown struct {
	Academic    float64 `json:"academic"`
	Performance float64 `json:"performance"`
	Method      float64 `json:"method"`
	Quality     float64 `json:"quality"`
	Temporal    float64 `json:"temporal"`
	Base        float64 `json:"base"`
	Boost       float64 `json:"boost"`
	Penalty     float64 `json:"penalty"`
	Final       float64 `json:"final"`
}

type Scorer struct {
	weights Weights
	log     *logger.Logger
}

func New(weights Weights, log *logger.Logger) *Scorer {
	if log == nil {
		log = logger.Nop()
	}
	return &Scorer{weights: weights, log: log.With("component", "scorer")}
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score computes Σ(dimension × weight) × boost × penalty. It has no side
// effects besides logging fallbacks, so equal inputs give equal scores.
func (s *Scorer) Score(n *note.Note, p *profile.Profile, h *history.History, now time.Time) Breakdown {
	b := Breakdown{
		Academic:    s.dimension(DimensionAcademic, n, func() float64 { return AcademicRelevance(n, p) }),
		Performance: s.dimension(DimensionPerformance, n, func() float64 { return PerformanceAffinity(n, p) }),
		Method:      s.dimension(DimensionMethod, n, func() float64 { return MethodMatch(n, p) }),
		Quality:     s.dimension(DimensionQuality, n, func() float64 { return Quality(n) }),
		Temporal:    s.dimension(DimensionTemporal, n, func() float64 { return Temporal(n, h, now) }),
	}

	b.Base = similarity.Clamp01(b.Academic*s.weights.Academic +
		b.Performance*s.weights.Performance +
		b.Method*s.weights.Method +
		b.Quality*s.weights.Quality +
		b.Temporal*s.weights.Temporal)
	b.Boost = Boost(n, p)
	b.Penalty = Penalty(n, p)
	b.Final = b.Base * b.Boost * b.Penalty
	return b
}

// dimension runs one scorer, replacing a panic or a non-finite result with
// the neutral value so a single bad note cannot abort a ranking.
func (s *Scorer) dimension(name string, n *note.Note, fn func() float64) (v float64) {
	defer func() {
		if r := recover(); r != nil {
			s.fallback(name, n, fmt.Sprint(r))
			v = Neutral
		}
	}()

	v = fn()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s.fallback(name, n, "non-finite score")
		return Neutral
	}
	return similarity.Clamp01(v)
}

func (s *Scorer) fallback(name string, n *note.Note, reason string) {
	metrics.DimensionFallbacks.WithLabelValues(name).Inc()
	s.log.Warn("dimension score failed, using neutral value",
		"dimension", name,
		"note_id", n.ID,
		"reason", reason,
	)
}
