package scorer

import (
	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

type Tier string

const (
	TierNone   Tier = ""
	TierLow    Tier = "bajo"
	TierMedium Tier = "medio"
	TierHigh   Tier = "alto"
)

// affinity[level][tier]: how well a note of a complexity level suits a
// student performing at tier.
var affinity = map[string]map[Tier]float64{
	catalog.LevelBasic:        {TierLow: 1.0, TierMedium: 0.7, TierHigh: 0.4},
	catalog.LevelIntermediate: {TierLow: 0.7, TierMedium: 1.0, TierHigh: 0.8},
	catalog.LevelAdvanced:     {TierLow: 0.3, TierMedium: 0.7, TierHigh: 1.0},
}

// PerformanceAffinity matches the note's complexity level with how the
// student did in the same subject.
func PerformanceAffinity(n *note.Note, p *profile.Profile) float64 {
	if p == nil || n.ComplexityLevel == "" {
		return Neutral
	}
	entry := p.CurriculumEntryFor(n.Subject)
	if entry == nil {
		return Neutral
	}

	tier := PerformanceTier(entry)
	if tier == TierNone {
		return Neutral
	}

	for level, byTier := range affinity {
		if similarity.Normalize(level) == similarity.Normalize(n.ComplexityLevel) {
			if v, ok := byTier[tier]; ok {
				return v
			}
		}
	}
	return Neutral
}

// PerformanceTier derives the tier from graded evaluations, falling back to
// the complexity rank when no grade is usable.
func PerformanceTier(entry *profile.CurriculumEntry) Tier {
	if avg, ok := WeightedAverage(entry.Evaluations); ok {
		return tierFromGrade(avg)
	}
	return tierFromComplexity(entry.ComplexityRank)
}

// WeightedAverage averages the graded evaluations by their weight percent.
// When every graded item has zero weight the plain mean is used.
func WeightedAverage(evals []profile.Evaluation) (float64, bool) {
	var sum, weights, plain float64
	graded := 0
	for _, e := range evals {
		if e.Grade <= 0 {
			continue
		}
		graded++
		plain += e.Grade
		sum += e.Grade * e.Weight / 100
		weights += e.Weight / 100
	}
	if graded == 0 {
		return 0, false
	}
	if weights == 0 {
		return plain / float64(graded), true
	}
	return sum / weights, true
}

func tierFromGrade(avg float64) Tier {
	switch {
	case avg < 4.5:
		return TierLow
	case avg <= 5.5:
		return TierMedium
	default:
		return TierHigh
	}
}

// Ranks 1-3 map to bajo, 4-7 to medio and 8-10 to alto.
func tierFromComplexity(rank int) Tier {
	switch {
	case rank >= 1 && rank <= 3:
		return TierLow
	case rank >= 4 && rank <= 7:
		return TierMedium
	case rank >= 8 && rank <= 10:
		return TierHigh
	default:
		return TierNone
	}
}
