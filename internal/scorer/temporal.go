package scorer

import (
	"time"

	"github.com/miespacioubb/miespacio/internal/history"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

// semesterTiming has no data source yet and stays neutral.
const semesterTiming = Neutral

// Temporal combines the note's freshness with how active the student was in
// the last 30 days.
func Temporal(n *note.Note, h *history.History, now time.Time) float64 {
	freshness := similarity.Freshness(now.Sub(n.UploadedAt))

	activity := Neutral
	if h != nil {
		recent := h.CountSince(now.AddDate(0, 0, -30))
		activity = min(1, float64(recent)/10)
	}

	return min(1, 0.40*freshness+0.35*activity+0.25*semesterTiming)
}
