package walletd

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yiplee/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// AssetSeed describes one asset the engine tracks: its opening balance and
// price plus the simulation constants for its network.
type AssetSeed struct {
	Symbol                string
	Name                  string
	Balance               decimal.Decimal
	Price                 decimal.Decimal
	Change24h             decimal.Decimal
	Network               string
	Volatility            float64
	RequiredConfirmations int
	MinWithdrawalFee      decimal.Decimal
}

type Config struct {
	Issuer string

	PriceInterval   time.Duration
	ConfirmInterval time.Duration
	// RequestLatency delays the success path of user-initiated requests to
	// simulate a network round trip. Balance side effects are applied
	// before the delay, never after it.
	RequestLatency time.Duration

	Clock  Clock
	Rand   Rand
	Assets []AssetSeed
}

// Engine owns the asset registry, the transaction ledger and both pending
// request trackers. All mutation paths run under a single mutex and end
// with one hub broadcast, so observers always see a consistent snapshot.
type Engine struct {
	mu  sync.Mutex
	cfg Config
	db  *badger.DB

	assets map[string]*Asset
	order  []string
	seeds  map[string]AssetSeed

	ledger      []*Transaction // newest first
	deposits    map[uuid.UUID]*DepositRequest
	withdrawals map[uuid.UUID]*WithdrawalRequest

	hub   *Hub
	clock Clock
	rng   Rand

	addrs *cache.Cache[string, *DepositAddress]
	sf    singleflight.Group
}

// NewEngine builds an engine seeded from cfg.Assets. db may be nil, in
// which case nothing is journaled and the engine is purely in-memory.
func NewEngine(db *badger.DB, cfg Config) *Engine {
	if cfg.PriceInterval <= 0 {
		cfg.PriceInterval = 5 * time.Second
	}

	if cfg.ConfirmInterval <= 0 {
		cfg.ConfirmInterval = 10 * time.Second
	}

	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}

	if cfg.Rand == nil {
		cfg.Rand = newSystemRand()
	}

	if len(cfg.Assets) == 0 {
		cfg.Assets = DefaultAssets()
	}

	e := &Engine{
		cfg:         cfg,
		db:          db,
		assets:      make(map[string]*Asset),
		seeds:       make(map[string]AssetSeed),
		deposits:    make(map[uuid.UUID]*DepositRequest),
		withdrawals: make(map[uuid.UUID]*WithdrawalRequest),
		hub:         NewHub(),
		clock:       cfg.Clock,
		rng:         cfg.Rand,
		addrs:       cache.New[string, *DepositAddress](),
	}

	for _, seed := range cfg.Assets {
		e.seeds[seed.Symbol] = seed
		e.order = append(e.order, seed.Symbol)
		e.assets[seed.Symbol] = &Asset{
			Symbol:    seed.Symbol,
			Name:      seed.Name,
			Balance:   seed.Balance,
			Price:     seed.Price,
			Value:     seed.Balance.Mul(seed.Price),
			Change24h: seed.Change24h,
			Network:   seed.Network,
			Address:   addressFor(seed.Symbol, seed.Network),
		}
	}

	if db != nil {
		e.loadJournal()
	}

	return e
}

// Run drives the two simulation loops until ctx is cancelled. Cancelling
// ctx is the engine's dispose: both timers stop and Run returns.
func (e *Engine) Run(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		return e.LoopPrices(ctx)
	})

	g.Go(func() error {
		return e.LoopConfirmations(ctx)
	})

	return g.Wait()
}

// Subscribe registers an observer called after every state change.
func (e *Engine) Subscribe(fn func()) func() {
	return e.hub.Subscribe(fn)
}

func (e *Engine) notify() {
	e.hub.Notify()
}

// wait simulates the network round trip of a user request.
func (e *Engine) wait(ctx context.Context) error {
	if e.cfg.RequestLatency <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.cfg.RequestLatency):
		return nil
	}
}

// DefaultAssets is the portfolio the engine starts with when the caller
// does not provide seeds. Stablecoins get a much tighter volatility bound
// than the volatile assets.
func DefaultAssets() []AssetSeed {
	return []AssetSeed{
		{
			Symbol:                "BTC",
			Name:                  "Bitcoin",
			Balance:               decimal.NewFromFloat(0.5),
			Price:                 decimal.NewFromFloat(43250),
			Change24h:             decimal.NewFromFloat(2.4),
			Network:               "Bitcoin",
			Volatility:            0.02,
			RequiredConfirmations: 3,
			MinWithdrawalFee:      decimal.NewFromFloat(0.0005),
		},
		{
			Symbol:                "ETH",
			Name:                  "Ethereum",
			Balance:               decimal.NewFromFloat(2.8),
			Price:                 decimal.NewFromFloat(2280),
			Change24h:             decimal.NewFromFloat(-1.1),
			Network:               "ERC20",
			Volatility:            0.02,
			RequiredConfirmations: 12,
			MinWithdrawalFee:      decimal.NewFromFloat(0.005),
		},
		{
			Symbol:                "USDT",
			Name:                  "Tether",
			Balance:               decimal.NewFromInt(1250),
			Price:                 decimal.NewFromInt(1),
			Change24h:             decimal.NewFromFloat(0.01),
			Network:               "TRC20",
			Volatility:            0.0005,
			RequiredConfirmations: 20,
			MinWithdrawalFee:      decimal.NewFromInt(1),
		},
		{
			Symbol:                "BNB",
			Name:                  "BNB",
			Balance:               decimal.NewFromFloat(5.2),
			Price:                 decimal.NewFromInt(315),
			Change24h:             decimal.NewFromFloat(0.8),
			Network:               "BSC",
			Volatility:            0.02,
			RequiredConfirmations: 15,
			MinWithdrawalFee:      decimal.NewFromFloat(0.001),
		},
		{
			Symbol:                "SOL",
			Name:                  "Solana",
			Balance:               decimal.NewFromInt(12),
			Price:                 decimal.NewFromInt(98),
			Change24h:             decimal.NewFromFloat(4.7),
			Network:               "Solana",
			Volatility:            0.03,
			RequiredConfirmations: 32,
			MinWithdrawalFee:      decimal.NewFromFloat(0.01),
		},
	}
}
