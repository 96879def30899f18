package recommend

import (
	"math"
	"sort"

	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

type DiversifyConfig struct {
	MaxPerSubject       int
	SerendipityFraction float64
	TypeDiversity       bool
	// TypeRelaxAfter is how many admitted items turn type diversity off.
	TypeRelaxAfter int
}

func DefaultDiversifyConfig() DiversifyConfig {
	return DiversifyConfig{
		MaxPerSubject:       4,
		SerendipityFraction: 0.15,
		TypeDiversity:       true,
		TypeRelaxAfter:      6,
	}
}

func DiversifyConfigFrom(c config.DiversificationConfig) DiversifyConfig {
	return DiversifyConfig{
		MaxPerSubject:       c.MaxPerSubject,
		SerendipityFraction: c.SerendipityFraction,
		TypeDiversity:       c.TypeDiversity,
		TypeRelaxAfter:      c.TypeRelaxAfter,
	}
}

// SortByScore orders candidates by score descending, then by note id.
func SortByScore(scored []ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Note.ID < scored[j].Note.ID
	})
}

// Diversify reorders scored candidates. The top slice admits at most
// MaxPerSubject notes per subject and, until TypeRelaxAfter items are in, one
// note per type. The lowest SerendipityFraction of candidates follows as an
// exploration slice, and the items the top slice rejected come last. Nothing
// is dropped: the output has the same length as the input.
func Diversify(scored []ScoredCandidate, cfg DiversifyConfig) []ScoredCandidate {
	if len(scored) == 0 {
		return []ScoredCandidate{}
	}

	sorted := make([]ScoredCandidate, len(scored))
	copy(sorted, scored)
	SortByScore(sorted)

	k := int(math.Floor(float64(len(sorted)) * cfg.SerendipityFraction))
	k = max(0, min(k, len(sorted)))
	high, exploration := sorted[:len(sorted)-k], sorted[len(sorted)-k:]

	perSubject := make(map[string]int)
	usedTypes := make(map[string]bool)
	admitted := make([]ScoredCandidate, 0, len(sorted))
	var rejected []ScoredCandidate

	for _, c := range high {
		subject := similarity.Normalize(c.Note.Subject)
		noteType := similarity.Normalize(c.Note.NoteType)

		subjectOK := perSubject[subject] < cfg.MaxPerSubject
		typeOK := !cfg.TypeDiversity || !usedTypes[noteType] || len(admitted) >= cfg.TypeRelaxAfter
		if !subjectOK || !typeOK {
			rejected = append(rejected, c)
			continue
		}

		perSubject[subject]++
		usedTypes[noteType] = true
		admitted = append(admitted, c)
	}

	out := append(admitted, exploration...)
	return append(out, rejected...)
}
