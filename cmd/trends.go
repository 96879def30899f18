package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/trends"
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show trending subjects and tags",
	Long:  `Analyzes active notes to identify trending subjects and tags based on recency and frequency.`,
	RunE:  runTrends,
}

var (
	trendsDays  int
	trendsLimit int
)

func init() {
	rootCmd.AddCommand(trendsCmd)
	trendsCmd.Flags().IntVar(&trendsDays, "days", 30, "Time window in days")
	trendsCmd.Flags().IntVarP(&trendsLimit, "limit", "l", 10, "Maximum trends to show")
}

func runTrends(cmd *cobra.Command, args []string) error {
	db, err := database.New(config.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()

	notes, err := note.NewRepository(db).ListAll(context.Background())
	if err != nil {
		return err
	}

	if len(notes) == 0 {
		fmt.Println("No notes found.")
		return nil
	}

	list := trends.FromNotes(notes, time.Now()).GetTrends(trendsDays, trendsLimit)
	if len(list) == 0 {
		fmt.Println("No trending topics found.")
		return nil
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	fmt.Printf("\n%s (last %d days)\n\n", titleStyle.Render("TRENDING TOPICS"), trendsDays)

	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	maxScore := list[0].Score

	for i, t := range list {
		barWidth := 0
		if maxScore > 0 {
			barWidth = int((t.Score / maxScore) * 20)
		}

		fmt.Printf("%2d. %-24s %-20s %.1f (%d notes, %d recent)\n",
			i+1,
			truncate(t.Topic, 24),
			barStyle.Render(strings.Repeat("█", barWidth)),
			t.Score,
			t.Count,
			len(t.RecentNotes))
	}

	fmt.Println()
	return nil
}
