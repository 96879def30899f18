package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/search"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild search index",
	Long:  `Rebuilds the full-text search index from all notes.`,
	RunE:  runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	db, err := database.New(config.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Rebuilding search index...")

	searchRepo := search.NewRepository(db)
	count, err := searchRepo.RebuildIndex(context.Background())
	if err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}

	fmt.Printf("Search index rebuilt: %d notes indexed.\n", count)
	return nil
}
