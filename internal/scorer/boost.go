package scorer

import (
	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

const (
	MinBoost = 1.0
	MaxBoost = 2.0
)

// Boost multiplies the base score for strong personal signals. The factors
// compound and the result stays within [MinBoost, MaxBoost].
func Boost(n *note.Note, p *profile.Profile) float64 {
	boost := 1.0
	if p == nil {
		return boost
	}

	if p.IsEnrolled(n.Subject) {
		boost *= 1.5
	}
	if len(p.StudyMethods) == 1 && similarity.MatchesAny(p.StudyMethods[0], catalog.CompatibleMethods(n.NoteType)) {
		boost *= 1.3
	}
	for _, tag := range n.Tags {
		if similarity.MatchesAny(tag, p.Interests) {
			boost *= 1.2
			break
		}
	}
	if n.HasComments() {
		boost *= 1.15
	}

	return max(MinBoost, min(MaxBoost, boost))
}
