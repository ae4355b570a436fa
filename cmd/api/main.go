package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/revibe/designgen/internal/config"
	"github.com/revibe/designgen/internal/imageedit"
	"github.com/revibe/designgen/internal/pipeline"
	"github.com/revibe/designgen/internal/server"
	"github.com/revibe/designgen/internal/session"
	"github.com/revibe/designgen/internal/shopping"
	"github.com/revibe/designgen/internal/vision"
)

const pruneInterval = time.Hour

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var analyzer vision.Analyzer
	if cfg.GeminiAPIKey != "" && os.Getenv("ANALYSIS_PROVIDER") == "gemini" {
		gemini, err := vision.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize gemini analyzer")
		}
		analyzer = gemini
		log.Info().Msg("using gemini vision analyzer")
	} else {
		analyzer = vision.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.FastMode)
	}

	store, err := session.OpenStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session index")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("session index initialized")

	searcher := shopping.NewSearcher(
		shopping.NewClient(shopping.ClientOpts{APIKey: cfg.SerpAPIKey}),
		shopping.NewImageDownloader(),
		0,
	)
	editor := imageedit.NewClient(imageedit.ClientOpts{APIKey: cfg.OpenAIAPIKey})

	gen := pipeline.New(analyzer, searcher, editor, store, cfg.OutputDir, cfg.FastMode)

	srv := server.New(cfg.Addr, &server.Handler{
		Generator: gen,
		Sessions:  store,
		OutputDir: cfg.OutputDir,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Periodically prune old sessions from disk.
	g.Go(func() error {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				removed, err := session.Prune(cfg.OutputDir, cfg.SessionMaxAge)
				if err != nil {
					log.Warn().Err(err).Msg("session prune failed")
					continue
				}
				if removed > 0 {
					log.Info().Int("removed", removed).Msg("pruned old sessions")
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}
