package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"sentiment-dashboard/config"
	"sentiment-dashboard/database"
	"sentiment-dashboard/dataset"
	"sentiment-dashboard/handlers"
	"sentiment-dashboard/logger"
	"sentiment-dashboard/metrics"
)

func main() {
	importCSV := flag.String("import", "", "import this CSV file into the sqlite database and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Service: "sentiment-dashboard",
	})

	if *importCSV != "" {
		if err := runImport(context.Background(), cfg, *importCSV, log); err != nil {
			log.Fatal().Err(err).Msg("import failed")
		}
		return
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	source, err := newSource(cfg)
	if err != nil {
		return err
	}

	rec := metrics.New()
	cache := dataset.NewCache(logger.Named(log, "dataset"), rec)
	cache.LoadTimeout = cfg.Data.FetchTimeout

	// Load once up front so a broken source is reported at startup; requests
	// retry through the cache if this fails.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Data.FetchTimeout)
	if _, err := cache.Get(ctx, source); err != nil {
		log.Error().Err(err).Msg("initial dataset load failed")
	}
	cancel()

	gin.SetMode(gin.ReleaseMode)
	h := handlers.New(cache, source, rec, handlers.PageInfo{
		Title:   cfg.Page.Title,
		About:   cfg.About(),
		InfoURL: cfg.Page.InfoURL,
	}, logger.Named(log, "http"))

	r, err := handlers.NewRouter(h, rec, handlers.RouterOptions{
		RateLimit:   cfg.Server.RateLimit.Enabled,
		RPS:         cfg.Server.RateLimit.RPS,
		Burst:       cfg.Server.RateLimit.Burst,
		SlowRequest: 2 * time.Second,
	}, logger.Named(log, "http"))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("variant", cfg.Data.Variant).Str("source", source.ID()).Msg("starting dashboard server")
		log.Info().Msgf("dashboard: http://localhost:%d/dashboard", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSource(cfg *config.Config) (dataset.Source, error) {
	switch cfg.Data.Variant {
	case config.VariantRemote:
		return dataset.RemoteSource{
			URL:       cfg.Data.URL,
			CachePath: cfg.Data.CachePath,
			Client:    &http.Client{Timeout: cfg.Data.FetchTimeout},
		}, nil
	case config.VariantLocal:
		return dataset.FileSource{Path: cfg.Data.Path}, nil
	case config.VariantSampled:
		return dataset.SampledSource{Path: cfg.Data.SamplePath, Every: cfg.Data.SampleEvery}, nil
	case config.VariantSQLite:
		db, err := database.Open(cfg.Data.SQLitePath)
		if err != nil {
			return nil, err
		}
		return database.Source{DB: db, Path: cfg.Data.SQLitePath}, nil
	default:
		return nil, fmt.Errorf("unknown variant %q", cfg.Data.Variant)
	}
}

func runImport(ctx context.Context, cfg *config.Config, csvPath string, log zerolog.Logger) error {
	ds, err := dataset.FileSource{Path: csvPath}.Load(ctx)
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.Data.SQLitePath)
	if err != nil {
		return err
	}
	n, err := database.Import(ctx, db, ds)
	if err != nil {
		return err
	}
	log.Info().Int("rows", n).Str("csv", csvPath).Str("sqlite", cfg.Data.SQLitePath).Msg("dataset imported")
	return nil
}
