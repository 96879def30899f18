// Package trends ranks the subjects and tags students are uploading notes
// about, weighting recent uploads over the all-time count.
package trends

import (
	"sort"
	"time"

	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

type Trend struct {
	Topic       string  `json:"topic"`
	Count       int     `json:"count"`
	Score       float64 `json:"score"`
	RecentNotes []int64 `json:"recent_notes"`
}

type Analyzer struct {
	now        time.Time
	noteTopics map[int64]topicEntry
	display    map[string]string
}

type topicEntry struct {
	topics    []string
	timestamp time.Time
}

func NewAnalyzer(now time.Time) *Analyzer {
	return &Analyzer{
		now:        now,
		noteTopics: make(map[int64]topicEntry),
		display:    make(map[string]string),
	}
}

// FromNotes builds an analyzer over the active notes, using the subject and
// the tags of each note as its topics.
func FromNotes(notes []note.Note, now time.Time) *Analyzer {
	a := NewAnalyzer(now)
	for i := range notes {
		n := &notes[i]
		if !n.IsActive() {
			continue
		}
		topics := append([]string{n.Subject}, n.Tags...)
		a.AddNote(n.ID, topics, n.UploadedAt)
	}
	return a
}

// AddNote records the topics of a note. Topics are compared ignoring case and
// accents; the first spelling seen is the one reported.
func (a *Analyzer) AddNote(noteID int64, topics []string, uploadedAt time.Time) {
	seen := make(map[string]bool)
	var keys []string
	for _, t := range topics {
		key := similarity.Normalize(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
		if _, ok := a.display[key]; !ok {
			a.display[key] = t
		}
	}
	a.noteTopics[noteID] = topicEntry{
		topics:    keys,
		timestamp: uploadedAt,
	}
}

func (a *Analyzer) GetTrends(days int, limit int) []Trend {
	cutoff := a.now.AddDate(0, 0, -days)

	topicCounts := make(map[string]int)
	topicNotes := make(map[string][]int64)
	topicRecency := make(map[string]time.Time)

	for noteID, entry := range a.noteTopics {
		for _, topic := range entry.topics {
			topicCounts[topic]++
			topicNotes[topic] = append(topicNotes[topic], noteID)

			if existing, ok := topicRecency[topic]; !ok || entry.timestamp.After(existing) {
				topicRecency[topic] = entry.timestamp
			}
		}
	}

	trends := make([]Trend, 0, len(topicCounts))
	for topic, count := range topicCounts {
		recentCount := 0
		var recentNotes []int64
		for _, noteID := range topicNotes[topic] {
			if entry, ok := a.noteTopics[noteID]; ok && entry.timestamp.After(cutoff) {
				recentCount++
				recentNotes = append(recentNotes, noteID)
			}
		}
		sort.Slice(recentNotes, func(i, j int) bool { return recentNotes[i] < recentNotes[j] })

		// Recent uploads count double; a topic touched lately gets up to 2x.
		recencyBoost := 1.0
		if mostRecent, ok := topicRecency[topic]; ok && days > 0 {
			daysSince := a.now.Sub(mostRecent).Hours() / 24
			if daysSince < float64(days) {
				recencyBoost = 1.0 + (float64(days)-daysSince)/float64(days)
			}
		}

		score := (float64(recentCount)*2 + float64(count)) * recencyBoost

		trends = append(trends, Trend{
			Topic:       a.display[topic],
			Count:       count,
			Score:       score,
			RecentNotes: recentNotes,
		})
	}

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Score != trends[j].Score {
			return trends[i].Score > trends[j].Score
		}
		return trends[i].Topic < trends[j].Topic
	})

	if limit > 0 && len(trends) > limit {
		trends = trends[:limit]
	}

	return trends
}
