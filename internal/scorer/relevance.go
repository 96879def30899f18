package scorer

import (
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

// AcademicRelevance scores how close the note's subject is to what the
// student is taking, wants to take, or has already taken.
func AcademicRelevance(n *note.Note, p *profile.Profile) float64 {
	if p == nil {
		return 0
	}

	var score float64
	if p.IsEnrolled(n.Subject) {
		score += 0.50
	}
	if p.IsInterested(n.Subject) {
		score += 0.30
	}

	if len(p.Curriculum) > 0 {
		related := similarity.RelatedCount(n.Subject, p.CurriculumSubjects())
		if related > 0 {
			ratio := float64(related) / float64(max(1, len(p.Curriculum)))
			score += 0.20 * min(1, ratio)
		}
	}

	tracked := p.TrackedSubjects()
	for _, tag := range n.Tags {
		if similarity.MatchesAny(tag, tracked) {
			score += 0.10
			break
		}
	}

	return min(1, score)
}

// IsRelatedToCurriculum reports whether subject shares keywords with any
// subject of the student's curriculum.
func IsRelatedToCurriculum(subject string, p *profile.Profile) bool {
	if p == nil {
		return false
	}
	return similarity.RelatedCount(subject, p.CurriculumSubjects()) > 0
}
