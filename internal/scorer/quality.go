package scorer

import (
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

// Quality blends the rating average, how many ratings back it and the
// download-to-view ratio.
func Quality(n *note.Note) float64 {
	rating := Neutral
	if n.Rating.Count > 0 {
		rating = similarity.Clamp01(n.Rating.Average / 5)
	}

	conversion := Neutral
	if n.ViewCount > 0 {
		conversion = min(1, float64(n.DownloadCount)/float64(n.ViewCount))
	}

	score := 0.60*rating + 0.25*similarity.Confidence(n.Rating.Count) + 0.15*conversion
	return min(1, score)
}
