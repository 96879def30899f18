package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/miespacioubb/miespacio/internal/api"
	"github.com/miespacioubb/miespacio/internal/config"
	"github.com/miespacioubb/miespacio/internal/database"
	"github.com/miespacioubb/miespacio/internal/logger"
	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/search"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves recommendations, note search and trends over HTTP until
interrupted. Prometheus metrics are exposed at /metrics.`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Override listen address (empty = use config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	db, err := database.New(config.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()

	engine, closeEngine := newEngine(cfg, db, log)
	defer closeEngine()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	handler := api.NewHandler(engine, search.NewRepository(db), note.NewRepository(db), db)
	router := api.NewRouter(api.RouterConfig{
		Handler:      handler,
		Log:          log,
		AllowOrigins: cfg.Server.AllowOrigins,
	})
	server := api.NewServer(cfg.Server, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("received shutdown signal")
		cancel()
	}()

	fmt.Printf("Miespacio API listening on %s. Press Ctrl+C to stop.\n", server.Addr())
	return server.Run(ctx)
}
