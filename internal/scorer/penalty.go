package scorer

import (
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
)

const (
	MinPenalty = 0.1
	MaxPenalty = 1.0
)

// Penalty multiplies the base score down for notes the student should rarely
// see. Inactive notes are not filtered out; the 0.1 factor buries them.
func Penalty(n *note.Note, p *profile.Profile) float64 {
	penalty := 1.0

	if !n.IsActive() {
		penalty *= 0.1
	}
	if p != nil && p.HasRated(n.ID) {
		penalty *= 0.3
	}
	if p != nil && p.HasDownloaded(n.ID) {
		penalty *= 0.4
	}
	if isClickbait(n) {
		penalty *= 0.6
	}
	if p != nil && !p.IsDirectlyRelevant(n.Subject) && !IsRelatedToCurriculum(n.Subject, p) {
		penalty *= 0.7
	}

	return max(MinPenalty, min(MaxPenalty, penalty))
}

// Heavily downloaded but poorly rated by enough people.
func isClickbait(n *note.Note) bool {
	return n.Rating.Average < 3.0 && n.DownloadCount > 50 && n.Rating.Count > 10
}
