package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/miespacioubb/miespacio/internal/cache"
	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/history"
	"github.com/miespacioubb/miespacio/internal/logger"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/profile"
	"github.com/miespacioubb/miespacio/internal/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [rut]",
	Short: "Recommend notes to a student",
	Long: `Ranks the active notes for a student and explains each pick.

Without a RUT (or with --generic) the most popular notes are listed.
With --subject the ranking is restricted to one subject.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecommend,
}

var (
	recommendLimit   int
	recommendSubject string
	recommendGeneric bool
)

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "l", 0, "Number of notes (0 = configured default)")
	recommendCmd.Flags().StringVarP(&recommendSubject, "subject", "s", "", "Only recommend notes of this subject")
	recommendCmd.Flags().BoolVar(&recommendGeneric, "generic", false, "Ignore the profile and list popular notes")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.New(config.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()

	engine, closeEngine := newEngine(cfg, db, logger.Nop())
	defer closeEngine()

	var rut string
	if len(args) == 1 {
		rut = strings.TrimSpace(args[0])
	}

	ctx := context.Background()
	var (
		recs    []recommend.Recommendation
		heading string
	)
	switch {
	case recommendSubject != "":
		recs, err = engine.BySubject(ctx, rut, recommendSubject, recommendLimit)
		heading = "NOTES FOR " + strings.ToUpper(recommendSubject)
	case recommendGeneric || rut == "":
		recs, err = engine.Generic(ctx, recommendLimit)
		heading = "POPULAR NOTES"
	default:
		recs, err = engine.Personalized(ctx, rut, recommendLimit)
		heading = "RECOMMENDED FOR " + rut
	}
	if errors.Is(err, recommend.ErrNoProfile) {
		return fmt.Errorf("no academic profile for %s; try --generic", rut)
	}
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		fmt.Println("No notes to recommend.")
		return nil
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	scoreStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	subjectStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	reasonStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true)

	fmt.Printf("\n%s (%d)\n\n", titleStyle.Render(heading), len(recs))
	fmt.Println(headerStyle.Render(fmt.Sprintf(" %-3s  %-5s  %-5s  %-22s  %s", "#", "ID", "SCORE", "SUBJECT", "TITLE")))
	fmt.Println(strings.Repeat("─", 100))

	for i, r := range recs {
		fmt.Printf(" %-3d  %s  %s  %s  %s\n",
			i+1,
			idStyle.Render(fmt.Sprintf("%-5d", r.Note.ID)),
			scoreStyle.Render(fmt.Sprintf("%.3f", r.ScoreRecommendation)),
			subjectStyle.Render(fmt.Sprintf("%-22s", truncate(r.Note.Subject, 22))),
			truncate(r.Note.Title, 50),
		)
		fmt.Printf("      %s\n", reasonStyle.Render(r.ReasonRecommendation))
	}

	fmt.Println()
	return nil
}

// newEngine wires the repositories and, when enabled and reachable, the
// Redis ranking cache. The returned func releases the cache connection.
func newEngine(cfg *config.Config, db *database.DB, log *logger.Logger) (*recommend.Engine, func()) {
	opts := []recommend.Option{
		recommend.WithConfig(cfg.Recommendation),
		recommend.WithLogger(log),
	}

	closer := func() {}
	if cfg.Cache.Enabled {
		c, err := openCache(cfg, log)
		if err != nil {
			log.Warn("ranking cache disabled", "error", err)
		} else {
			opts = append(opts, recommend.WithCache(c))
			closer = func() { _ = c.Close() }
		}
	}

	engine := recommend.NewEngine(
		profile.NewRepository(db),
		note.NewRepository(db),
		history.NewRepository(db),
		opts...,
	)
	return engine, closer
}

func openCache(cfg *config.Config, log *logger.Logger) (*cache.RedisCache, error) {
	return cache.NewRedis(cfg.Cache, log)
}
