package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/miespacioubb/miespacio/internal/catalog"
	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/note"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List notes",
	Long:  `List the shared notes, newest first.`,
	RunE:  runNotes,
}

var (
	notesTop    int
	notesOffset int
)

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.Flags().IntVarP(&notesTop, "top", "n", 20, "Number of notes to show")
	notesCmd.Flags().IntVar(&notesOffset, "offset", 0, "Skip the first notes")
}

func runNotes(cmd *cobra.Command, args []string) error {
	db, err := database.New(config.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()

	repo := note.NewRepository(db)
	notes, err := repo.List(context.Background(), notesTop, notesOffset)
	if err != nil {
		return err
	}

	if len(notes) == 0 {
		fmt.Println("No notes found. Run 'miespacio import <file.yaml>' to load some.")
		return nil
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	ratingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	subjectStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	fmt.Println(headerStyle.Render(fmt.Sprintf(" %-4s  %-6s  %-10s  %-22s  %s", "#", "RATING", "DATE", "SUBJECT", "TITLE")))
	fmt.Println(strings.Repeat("─", 100))

	for _, n := range notes {
		rating := "-"
		if n.Rating.Count > 0 {
			rating = fmt.Sprintf("%.1f", n.Rating.Average)
		}

		title := truncate(n.Title, 50)
		if n.State != catalog.StateActive {
			title = mutedStyle.Render(title + " (" + n.State + ")")
		}

		fmt.Printf(" %s  %s  %s  %s  %s\n",
			idStyle.Render(fmt.Sprintf("%-4d", n.ID)),
			ratingStyle.Render(fmt.Sprintf("%-6s", rating)),
			dateStyle.Render(n.UploadedAt.Format("2006-01-02")),
			subjectStyle.Render(fmt.Sprintf("%-22s", truncate(n.Subject, 22))),
			title,
		)
	}

	return nil
}

// truncate shortens s to at most width runes.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
