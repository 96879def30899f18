package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/similarity"
)

var showCmd = &cobra.Command{
	Use:   "show <note-id>",
	Short: "Show details of a note",
	Long:  `Display full details of a note including its description and related notes.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var showRelated int

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVar(&showRelated, "related", 5, "Number of related notes to show")
}

type relatedNote struct {
	note  note.Note
	score float64
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid note ID: %s", args[0])
	}

	db, err := database.New(config.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	repo := note.NewRepository(db)
	n, err := repo.Get(ctx, id)
	if errors.Is(err, note.ErrNotFound) {
		return fmt.Errorf("note not found: %d", id)
	}
	if err != nil {
		return err
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	tagStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	divider := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(strings.Repeat("━", 70))

	fmt.Println(divider)
	fmt.Println(titleStyle.Render(n.Title))
	fmt.Println(divider)

	fmt.Printf("%s %s\n", labelStyle.Render("Subject:"), valueStyle.Render(n.Subject))
	fmt.Printf("%s %s\n", labelStyle.Render("Type:"), valueStyle.Render(n.NoteType))
	if n.ComplexityLevel != "" {
		fmt.Printf("%s %s\n", labelStyle.Render("Level:"), valueStyle.Render(n.ComplexityLevel))
	}
	fmt.Printf("%s %s\n", labelStyle.Render("State:"), valueStyle.Render(n.State))
	fmt.Printf("%s %s\n", labelStyle.Render("Uploaded:"), valueStyle.Render(n.UploadedAt.Format("2006-01-02 15:04")))
	fmt.Printf("%s %d views, %d downloads, %d comments\n", labelStyle.Render("Activity:"),
		n.ViewCount, n.DownloadCount, len(n.CommentIDs))
	if n.Rating.Count > 0 {
		fmt.Printf("%s %.1f/5 (%d ratings)\n", labelStyle.Render("Rating:"), n.Rating.Average, n.Rating.Count)
	}
	if len(n.Tags) > 0 {
		fmt.Printf("%s %s\n", labelStyle.Render("Tags:"), tagStyle.Render(strings.Join(n.Tags, ", ")))
	}

	if desc := n.PlainDescription(); desc != "" {
		if r := []rune(desc); len(r) > 500 {
			desc = string(r[:500]) + "..."
		}
		fmt.Printf("\n%s\n", labelStyle.Render("DESCRIPTION:"))
		fmt.Println(valueStyle.Render(desc))
	}

	if showRelated <= 0 {
		return nil
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		return err
	}
	related := relatedNotes(n, all, showRelated)
	if len(related) > 0 {
		fmt.Printf("\n%s\n", labelStyle.Render("RELATED NOTES:"))
		for _, r := range related {
			fmt.Printf("  → [%d] %s (%s, %.2f)\n", r.note.ID, r.note.Title, r.note.Subject, r.score)
		}
	}

	fmt.Println()
	return nil
}

// relatedNotes ranks other active notes by tag overlap, with a bonus for a
// related subject.
func relatedNotes(n *note.Note, all []note.Note, limit int) []relatedNote {
	var related []relatedNote
	for _, other := range all {
		if other.ID == n.ID || !other.IsActive() {
			continue
		}
		score := similarity.Jaccard(n.Tags, other.Tags)
		if similarity.Related(n.Subject, other.Subject) {
			score += 0.5
		}
		if score > 0 {
			related = append(related, relatedNote{note: other, score: score})
		}
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].score > related[j].score
	})
	if len(related) > limit {
		related = related[:limit]
	}
	return related
}
