package cmd

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/fixture"
	"github.com/miespacioubb/miespacio/internal/logger"
)

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import notes, profiles and histories",
	Long: `Loads a YAML document with notes (and their comments), academic
profiles (with ratings and downloads) and action histories.

Note ids in the document are local to it; ratings, downloads and actions
are attached to the notes created by this import.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	f, err := fixture.Load(args[0])
	if err != nil {
		return err
	}

	db, err := database.New(config.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	sum, err := f.Import(ctx, db)
	if err != nil {
		return fmt.Errorf("import failed, nothing was written: %w", err)
	}

	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	countStyle := lipgloss.NewStyle().Bold(true)

	fmt.Println(okStyle.Render("✓ Import complete"))
	fmt.Printf("  %s notes, %s comments\n", countStyle.Render(fmt.Sprint(sum.Notes)), countStyle.Render(fmt.Sprint(sum.Comments)))
	fmt.Printf("  %s profiles, %s ratings, %s downloads\n", countStyle.Render(fmt.Sprint(sum.Profiles)),
		countStyle.Render(fmt.Sprint(sum.Ratings)), countStyle.Render(fmt.Sprint(sum.Downloads)))
	fmt.Printf("  %s history actions\n", countStyle.Render(fmt.Sprint(sum.Actions)))

	if !cfg.Cache.Enabled || (sum.Notes == 0 && len(sum.Ruts) == 0) {
		return nil
	}

	c, err := openCache(cfg, logger.Nop())
	if err != nil {
		fmt.Printf("  cache not invalidated: %v\n", err)
		return nil
	}
	defer c.Close()

	for _, err := range invalidateRankings(ctx, c, sum) {
		fmt.Printf("  %v\n", err)
	}
	return nil
}

type rankingInvalidator interface {
	Invalidate(ctx context.Context, rut string) error
	InvalidateAll(ctx context.Context) error
}

// invalidateRankings drops the cached rankings an import made stale: all of
// them when notes were added, otherwise those of the touched students.
func invalidateRankings(ctx context.Context, c rankingInvalidator, sum *fixture.Summary) []error {
	if sum.Notes > 0 {
		if err := c.InvalidateAll(ctx); err != nil {
			return []error{fmt.Errorf("failed to invalidate cached rankings: %w", err)}
		}
		return nil
	}

	ruts := slices.Clone(sum.Ruts)
	sort.Strings(ruts)
	var errs []error
	for _, rut := range ruts {
		if err := c.Invalidate(ctx, rut); err != nil {
			errs = append(errs, fmt.Errorf("failed to invalidate cache for %s: %w", rut, err))
		}
	}
	return errs
}
