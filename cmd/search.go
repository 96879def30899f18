package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search notes by content",
	Long: `Full-text search across titles, descriptions, subjects and tags of active notes.
Accents are ignored and every word matches as a prefix.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var searchLimit int

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 20, "Maximum results to show")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	db, err := database.New(config.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()

	searchRepo := search.NewRepository(db)
	results, err := searchRepo.Search(context.Background(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Printf("No results found for '%s'\n", query)
		return nil
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	subjectStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	snippetStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	matchStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))

	fmt.Printf("\n%s '%s' (%d results)\n\n", titleStyle.Render("SEARCH:"), query, len(results))

	for _, r := range results {
		fmt.Printf("%s %s\n", idStyle.Render(fmt.Sprintf("[%d]", r.NoteID)), r.Title)
		fmt.Printf("    %s • %s • %d downloads", subjectStyle.Render(r.Subject), r.NoteType, r.DownloadCount)
		if r.RatingAverage > 0 {
			fmt.Printf(" • %.1f/5", r.RatingAverage)
		}
		fmt.Println()

		if r.Snippet != "" {
			fmt.Printf("    %s\n", highlight(r.Snippet, snippetStyle, matchStyle))
		}
		fmt.Println()
	}

	return nil
}

// highlight renders the <b> markers of an FTS snippet with match.
func highlight(snippet string, base, match lipgloss.Style) string {
	var out strings.Builder
	for {
		start := strings.Index(snippet, "<b>")
		if start < 0 {
			break
		}
		end := strings.Index(snippet[start:], "</b>")
		if end < 0 {
			break
		}
		end += start
		out.WriteString(base.Render(snippet[:start]))
		out.WriteString(match.Render(snippet[start+3 : end]))
		snippet = snippet[end+4:]
	}
	out.WriteString(base.Render(snippet))
	return out.String()
}
