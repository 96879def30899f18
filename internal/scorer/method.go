package scorer

import (
	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

// MethodMatch is the share of the student's preferred study methods that the
// note type supports.
func MethodMatch(n *note.Note, p *profile.Profile) float64 {
	if p == nil || len(p.StudyMethods) == 0 {
		return Neutral
	}
	compatible := catalog.CompatibleMethods(n.NoteType)
	if len(compatible) == 0 {
		return Neutral
	}
	return similarity.ArrayOverlap(p.StudyMethods, compatible)
}
