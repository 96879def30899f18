package note

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/miespacioubb/miespacio/internal/catalog"
)

var ErrNotFound = errors.New("note not found")

type Rating struct {
	Average float64 `json:"average" yaml:"average"`
	Count   int     `json:"count" yaml:"count"`
}

type Note struct {
	ID              int64     `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description,omitempty" yaml:"description,omitempty"`
	Subject         string    `json:"subject" yaml:"subject"`
	NoteType        string    `json:"note_type" yaml:"note_type"`
	Tags            []string  `json:"tags" yaml:"tags"`
	ComplexityLevel string    `json:"complexity_level,omitempty" yaml:"complexity_level,omitempty"`
	State           string    `json:"state" yaml:"state"`
	AuthorRut       string    `json:"author_rut" yaml:"author_rut"`
	UploadedAt      time.Time `json:"uploaded_at" yaml:"uploaded_at"`
	ViewCount       int       `json:"view_count" yaml:"view_count"`
	DownloadCount   int       `json:"download_count" yaml:"download_count"`
	Rating          Rating    `json:"rating" yaml:"rating"`
	CommentIDs      []int64   `json:"comment_ids" yaml:"-"`
}

func (n *Note) IsActive() bool {
	return n.State == catalog.StateActive
}

func (n *Note) HasComments() bool {
	return len(n.CommentIDs) > 0
}

func (n *Note) Validate() error {
	switch {
	case strings.TrimSpace(n.Title) == "":
		return errors.New("title is required")
	case strings.TrimSpace(n.Subject) == "":
		return errors.New("subject is required")
	case n.AuthorRut == "":
		return errors.New("author rut is required")
	case !catalog.ValidNoteType(n.NoteType):
		return fmt.Errorf("unknown note type %q", n.NoteType)
	case n.State != "" && !catalog.ValidState(n.State):
		return fmt.Errorf("unknown state %q", n.State)
	case !catalog.ValidComplexityLevel(n.ComplexityLevel):
		return fmt.Errorf("unknown complexity level %q", n.ComplexityLevel)
	case len(n.Tags) > catalog.MaxTags:
		return fmt.Errorf("at most %d tags allowed, got %d", catalog.MaxTags, len(n.Tags))
	case n.Rating.Average < 0 || n.Rating.Average > 5:
		return fmt.Errorf("rating average %.2f out of 0-5", n.Rating.Average)
	case n.Rating.Count < 0:
		return errors.New("rating count must not be negative")
	}
	return nil
}

// Canonicalize rewrites type, state and complexity level to the catalog
// spelling. Validate matches them ignoring case and accents.
func (n *Note) Canonicalize() {
	n.NoteType = catalog.CanonicalNoteType(n.NoteType)
	n.State = catalog.CanonicalState(n.State)
	n.ComplexityLevel = catalog.CanonicalComplexityLevel(n.ComplexityLevel)
}

// PlainDescription returns the description without the editor's markup.
func (n *Note) PlainDescription() string {
	return PlainText(n.Description)
}

// PlainText extracts the visible text of an HTML fragment.
func PlainText(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
