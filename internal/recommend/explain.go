package recommend

import (
	"fmt"
	"strings"
	"time"

	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

const (
	FallbackReason = "Recomendado según tu perfil académico"
	GenericReason  = "Popular entre estudiantes de la UBB"

	reasonSeparator = " • "
	recentWindow    = 30 * 24 * time.Hour
)

// Explain builds the human readable reason for recommending n to p.
func Explain(n *note.Note, p *profile.Profile, now time.Time) string {
	var reasons []string

	if p != nil {
		switch {
		case p.IsEnrolled(n.Subject):
			reasons = append(reasons, "Estás cursando "+n.Subject)
		case p.IsInterested(n.Subject):
			reasons = append(reasons, "Es de tu interés: "+n.Subject)
		}
	}

	if n.Rating.Average >= 4.0 && n.Rating.Count >= 3 {
		reasons = append(reasons, fmt.Sprintf("Muy bien valorado (%.1f/5)", n.Rating.Average))
	}

	if p != nil {
		compatible := catalog.CompatibleMethods(n.NoteType)
		for _, m := range p.StudyMethods {
			if similarity.MatchesAny(m, compatible) {
				reasons = append(reasons, "Compatible con tu método de estudio: "+m)
				break
			}
		}
	}

	if n.DownloadCount >= 20 {
		reasons = append(reasons, fmt.Sprintf("Popular: %d descargas", n.DownloadCount))
	}

	if !n.UploadedAt.IsZero() && now.Sub(n.UploadedAt) < recentWindow {
		reasons = append(reasons, "Contenido reciente")
	}

	if len(reasons) == 0 {
		return FallbackReason
	}
	return strings.Join(reasons, reasonSeparator)
}
