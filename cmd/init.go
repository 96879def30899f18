package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/database"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize miespacio configuration and database",
	Long:  `Creates the ~/.miespacio directory (or $MIESPACIO_HOME) with config.yaml and the SQLite database.`,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := config.Dir()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Save(config.Default()); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("Created config at %s\n", cfgPath)
	} else {
		fmt.Printf("Keeping existing config at %s\n", cfgPath)
	}

	db, err := database.New(config.DBPath())
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	db.Close()
	fmt.Printf("Created database at %s\n", config.DBPath())

	fmt.Println("\nMiespacio initialized! Next steps:")
	fmt.Println("  miespacio import <file.yaml>   Load notes and student profiles")
	fmt.Println("  miespacio recommend <rut>      Rank notes for a student")
	fmt.Println("  miespacio serve                Start the HTTP API")

	return nil
}
