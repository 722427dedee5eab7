package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/dgraph-io/badger/v4"
	backend "github.com/openbit/walletd"
	"golang.org/x/sync/errgroup"
)

var cfg struct {
	dbPath          string
	port            int
	issuer          string
	priceInterval   time.Duration
	confirmInterval time.Duration
	requestLatency  time.Duration
}

func init() {
	flag.StringVar(&cfg.dbPath, "db", "walletd.db", "database path")
	flag.IntVar(&cfg.port, "port", 8080, "http port")
	flag.StringVar(&cfg.issuer, "issuer", "", "jwt issuer, empty disables auth")
	flag.DurationVar(&cfg.priceInterval, "price-interval", 5*time.Second, "price tick interval")
	flag.DurationVar(&cfg.confirmInterval, "confirm-interval", 10*time.Second, "confirmation tick interval")
	flag.DurationVar(&cfg.requestLatency, "latency", 600*time.Millisecond, "simulated request latency")

	flag.Parse()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	db, err := badger.Open(badger.DefaultOptions(cfg.dbPath))
	if err != nil {
		slog.Error("open db failed", slog.Any("err", err))
		return
	}

	slog.Info("walletd launch", "ver", "0.1")

	engine := backend.NewEngine(db, backend.Config{
		Issuer:          cfg.issuer,
		PriceInterval:   cfg.priceInterval,
		ConfirmInterval: cfg.confirmInterval,
		RequestLatency:  cfg.requestLatency,
	})

	feed := backend.NewFeed(engine)
	defer feed.Close()

	s := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.port),
		Handler: engine.Handler(feed),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http listen", slog.String("addr", s.Addr))
		return s.ListenAndServe()
	})

	g.Go(func() error {
		<-ctx.Done()

		return s.Shutdown(ctx)
	})

	g.Go(func() error {
		return runGC(ctx, db, time.Minute)
	})

	g.Go(func() error {
		return engine.Run(ctx)
	})

	_ = g.Wait()
}

func runGC(ctx context.Context, db *badger.DB, dur time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
			_ = db.RunValueLogGC(0.7)
		}
	}
}
