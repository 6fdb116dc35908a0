// Command tapesonic follows the tape for one symbol and plays an audio
// cue for every sufficiently large trade, live or replayed from a
// historical session.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tapesonic/tapesonic/feed"
	"github.com/tapesonic/tapesonic/hist"
	"github.com/tapesonic/tapesonic/replay"
	"github.com/tapesonic/tapesonic/sonic"
	"github.com/tapesonic/tapesonic/tape"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tapesonic:", err)
		os.Exit(1)
	}
}

func run() error {
	// the environment wins over .env values
	_ = godotenv.Load()

	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		return fmt.Errorf("%w\n\n%s", err, usage())
	}

	key := os.Getenv("APCA_API_KEY_ID")
	secret := os.Getenv("APCA_API_SECRET_KEY")
	if key == "" || secret == "" {
		return errors.New("APCA_API_KEY_ID and APCA_API_SECRET_KEY must be set")
	}

	logger := tape.DefaultLogger()

	var player sonic.Player = sonic.Silent{}
	if !cfg.silent {
		speaker, err := sonic.NewSpeaker(sonic.PathsFromEnv(), sonic.WithLogger(logger))
		if err != nil {
			return err
		}
		player = speaker
	}

	processor := tape.NewProcessor(cfg.thresholds, tape.NewQuoteCache(), player,
		tape.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.replay {
		return runReplay(ctx, cfg, processor, logger, key, secret)
	}
	return runLive(ctx, cfg, processor, logger, key, secret)
}

func runLive(ctx context.Context, cfg *config, processor *tape.Processor, logger tape.Logger, key, secret string) error {
	c := feed.NewClient(
		feed.WithLogger(logger),
		feed.WithCredentials(key, secret),
		feed.WithReconnectSettings(3, 10*time.Second),
		feed.WithTrades(processor.HandleTrade, cfg.symbol),
		feed.WithQuotes(processor.HandleQuote, cfg.symbol),
	)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	logger.Infof("streaming %s, min $%s, big $%s",
		cfg.symbol, cfg.thresholds.Min, cfg.thresholds.Big)
	return <-c.Terminated()
}

func runReplay(ctx context.Context, cfg *config, processor *tape.Processor, logger tape.Logger, key, secret string) error {
	client := hist.NewClient(hist.ClientOpts{APIKey: key, APISecret: secret})
	source := &hist.WindowSource{Client: client, Symbol: cfg.symbol}
	scheduler := replay.NewScheduler(source, processor.Process, replay.WithLogger(logger))

	logger.Infof("replaying %s from %s, min $%s, big $%s",
		cfg.symbol, cfg.start.Format(time.RFC3339),
		cfg.thresholds.Min, cfg.thresholds.Big)

	err := scheduler.Run(ctx, replay.Window{Start: cfg.start, End: cfg.start.Add(time.Hour)})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
