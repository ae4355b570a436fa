package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/revibe/designgen/internal/config"
	"github.com/revibe/designgen/internal/imageedit"
	"github.com/revibe/designgen/internal/pipeline"
	"github.com/revibe/designgen/internal/session"
	"github.com/revibe/designgen/internal/shopping"
	"github.com/revibe/designgen/internal/vision"
)

func main() {
	var (
		imagePath    string
		style        string
		pathway      string
		instructions string
		designType   string
		fast         bool
		analyzeOnly  bool
	)
	flag.StringVar(&imagePath, "image", "", "Path to the room photo")
	flag.StringVar(&style, "style", "modern", "Design style (modern, scandinavian, industrial, ...)")
	flag.StringVar(&pathway, "pathway", "real-products", "Generation pathway: standard or real-products")
	flag.StringVar(&instructions, "instructions", "", "Extra instructions for the analysis")
	flag.StringVar(&designType, "type", "interior redesign", "Design type")
	flag.BoolVar(&fast, "fast", false, "Fast mode: smaller images, fewer products")
	flag.BoolVar(&analyzeOnly, "analyze-only", false, "Only run the vision analysis and print the result")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if imagePath == "" {
		fmt.Fprintln(os.Stderr, "usage: designgen -image <path> [-style modern] [-pathway real-products|standard]")
		os.Exit(2)
	}
	if _, err := os.Stat(imagePath); err != nil {
		log.Fatal().Err(err).Str("image", imagePath).Msg("image not found")
	}

	config.LoadEnvFile()
	cfg := config.FromEnv()
	if fast {
		cfg.FastMode = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	analyzer := vision.Analyzer(vision.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.FastMode))
	if cfg.GeminiAPIKey != "" && os.Getenv("ANALYSIS_PROVIDER") == "gemini" {
		gemini, err := vision.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize gemini analyzer")
		}
		analyzer = gemini
	}

	store, err := session.OpenStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session index")
	}
	defer store.Close()

	searcher := shopping.NewSearcher(
		shopping.NewClient(shopping.ClientOpts{APIKey: cfg.SerpAPIKey}),
		shopping.NewImageDownloader(),
		0,
	)
	editor := imageedit.NewClient(imageedit.ClientOpts{APIKey: cfg.OpenAIAPIKey})
	gen := pipeline.New(analyzer, searcher, editor, store, cfg.OutputDir, cfg.FastMode)

	req := pipeline.Request{
		ImagePath:          imagePath,
		DesignStyle:        style,
		CustomInstructions: instructions,
		DesignType:         designType,
	}

	if analyzeOnly {
		analysis, err := gen.Analyze(ctx, req)
		if err != nil {
			log.Fatal().Err(err).Msg("analysis failed")
		}
		out, _ := json.MarshalIndent(analysis, "", "  ")
		fmt.Println(string(out))
		return
	}

	var result *pipeline.Result
	switch pathway {
	case "standard":
		result, err = gen.GenerateStandard(ctx, req)
	case "real-products":
		result, err = gen.GenerateRealProducts(ctx, req)
	default:
		log.Fatal().Str("pathway", pathway).Msg("unknown pathway")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("generation failed")
	}

	log.Info().
		Str("session", result.SessionID).
		Str("finalDesign", result.FinalDesign).
		Int("products", result.ProductsUsed).
		Msg("design generated")
	fmt.Println(result.FinalDesign)
}
