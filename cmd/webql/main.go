package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jacoelho/webql/internal/config"
	"github.com/jacoelho/webql/internal/github"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "webql.yaml", "configuration file")
		host       = flag.String("host", github.DefaultHost, "GitHub API host")
		token      = flag.String("token", "", "GitHub token, defaults to GITHUB_TOKEN")
		sinceMin   = flag.Int("since", 24*60, "look-back window in minutes")
		rateLimit  = flag.Float64("rate-limit", 0, "requests per second, 0 for unlimited")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("load configuration")
		return 1
	}

	client, err := github.NewClient(*host, *token,
		github.WithRateLimit(*rateLimit),
		github.WithLogger(log.Logger),
	)
	if err != nil {
		log.Error().Err(err).Msg("create GitHub client")
		return 1
	}

	fetcher := github.NewFetcher(client, log.Logger)
	since := time.Now().Add(-time.Duration(*sinceMin) * time.Minute)

	events, err := fetcher.Events(ctx, cfg, since)
	if err != nil {
		log.Error().Err(err).Msg("fetch events")
		return 1
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(events); err != nil {
		log.Error().Err(err).Msg("encode events")
		return 1
	}

	return 0
}
