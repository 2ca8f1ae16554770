package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"houseplants/models"
	"houseplants/storage"
	"houseplants/tui"
	"houseplants/web"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

const defaultConfigPath = "houseplants.yaml"

func main() {
	configPath := os.Getenv("HOUSEPLANTS_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := models.LoadConfig(configPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config: ", err)
	}
	logger.SetLogLevel(cfg.LogLevel)

	store, err := storage.Open(cfg.StoreOptions())
	if err != nil {
		log.Fatal("Failed to open history store: ", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode := "web"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "tui":
		err = tui.Run(ctx, store, tui.Options{Debounce: cfg.Debounce, SearchLatency: cfg.SearchLatency})
	case "web":
		err = serve(ctx, cfg, store)
	default:
		log.Fatalf("Unknown mode %q, expected web or tui", mode)
	}
	if err != nil {
		logger.LogErr(err, "houseplants exited with error")
		store.Close()
		os.Exit(1)
	}
}

// serve runs the web server until it fails or ctx is cancelled.
func serve(ctx context.Context, cfg *models.Config, store storage.Store) error {
	app, err := web.NewApp(cfg, store)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := app.NewServer(rweb.ServerOptions{Address: cfg.Address, Verbose: true})

	errCh := make(chan error, 1)
	go func() {
		errCh <- web.Run(srv, cfg.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down houseplant search server")
		return nil
	}
}
