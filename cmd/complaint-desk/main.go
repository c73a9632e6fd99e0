package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	"github.com/yegors/complaint-desk/internal/api"
	"github.com/yegors/complaint-desk/internal/classification"
	"github.com/yegors/complaint-desk/internal/complaints"
	"github.com/yegors/complaint-desk/internal/config"
	"github.com/yegors/complaint-desk/internal/extraction"
	"github.com/yegors/complaint-desk/internal/storage/sqlite"
	"github.com/yegors/complaint-desk/internal/templating"
	"github.com/yegors/complaint-desk/internal/transcription"
	"github.com/yegors/complaint-desk/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "complaint-desk: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	store := sqlite.NewComplaintStorage(db, log)
	if err := store.InitDB(ctx); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	models, err := buildModels(cfg, log)
	if err != nil {
		return err
	}

	pipeline := complaints.NewPipeline(
		transcription.NewService(models.speech, log),
		classification.NewClassifier(models.zeroShot, log),
		extraction.NewExtractor(models.entities, log),
		store,
		log,
	)

	renderer, err := templating.NewRenderer()
	if err != nil {
		return err
	}
	aggregator := templating.NewDataAggregator(store, log)
	router := api.NewRouter(pipeline, aggregator, store, renderer, cfg, log)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", server.Addr, err)
	}
	if cfg.Server.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.Server.MaxConnections)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server",
			logger.String("addr", server.Addr),
			logger.String("database", cfg.Storage.Path),
			logger.String("transcription", cfg.Transcription.Provider+"/"+cfg.Transcription.Model),
			logger.String("classification", cfg.Classification.Provider+"/"+cfg.Classification.Model),
			logger.String("entities", cfg.Entities.Provider+"/"+cfg.Entities.Model))
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
