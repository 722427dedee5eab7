package walletd

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeRand cycles through a fixed list of draws.
type fakeRand struct {
	values []float64
	i      int
}

func (r *fakeRand) Float64() float64 {
	if len(r.values) == 0 {
		return 0
	}

	v := r.values[r.i%len(r.values)]
	r.i++
	return v
}

func testSeeds() []AssetSeed {
	return []AssetSeed{
		{
			Symbol:                "BTC",
			Name:                  "Bitcoin",
			Price:                 decimal.NewFromInt(43000),
			Network:               "Bitcoin",
			Volatility:            0.02,
			RequiredConfirmations: 3,
		},
		{
			Symbol:                "USDT",
			Name:                  "Tether",
			Balance:               decimal.NewFromInt(100),
			Price:                 decimal.NewFromInt(1),
			Network:               "TRC20",
			Volatility:            0.0005,
			RequiredConfirmations: 20,
			MinWithdrawalFee:      decimal.NewFromInt(1),
		},
	}
}

func newTestEngine(t *testing.T) (*Engine, *fakeClock, *fakeRand) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	rng := &fakeRand{values: []float64{0.3}}

	e := NewEngine(nil, Config{
		Clock:  clock,
		Rand:   rng,
		Assets: testSeeds(),
	})

	return e, clock, rng
}

func TestAssetsSnapshot(t *testing.T) {
	e, _, _ := newTestEngine(t)

	assets := e.Assets()
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}

	if assets[0].Symbol != "BTC" || assets[1].Symbol != "USDT" {
		t.Fatalf("unexpected asset order: %s, %s", assets[0].Symbol, assets[1].Symbol)
	}

	// mutating the snapshot must not touch the registry
	assets[1].Balance = decimal.NewFromInt(9999)

	usdt, ok := e.Asset("USDT")
	if !ok {
		t.Fatal("USDT missing")
	}

	if !usdt.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("snapshot mutation leaked into registry: %s", usdt.Balance)
	}
}

func TestAssetUnknownSymbol(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if _, ok := e.Asset("DOGE"); ok {
		t.Fatal("expected absent for unknown symbol")
	}
}

func TestAdjustBalanceNeverNegative(t *testing.T) {
	e, _, _ := newTestEngine(t)

	e.mu.Lock()
	err := e.adjustBalance("USDT", decimal.NewFromInt(-150))
	e.mu.Unlock()

	if err != ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	usdt, _ := e.Asset("USDT")
	if !usdt.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("rejected adjustment changed balance: %s", usdt.Balance)
	}
}

func TestValueTracksBalanceTimesPrice(t *testing.T) {
	e, _, _ := newTestEngine(t)

	for i := 0; i < 10; i++ {
		e.tickPrices()
	}

	e.mu.Lock()
	if err := e.adjustBalance("USDT", decimal.NewFromInt(-40)); err != nil {
		e.mu.Unlock()
		t.Fatalf("adjust: %v", err)
	}
	e.mu.Unlock()

	for _, asset := range e.Assets() {
		if !asset.Value.Equal(asset.Balance.Mul(asset.Price)) {
			t.Fatalf("%s: value %s != balance*price %s",
				asset.Symbol, asset.Value, asset.Balance.Mul(asset.Price))
		}
	}
}

func TestPriceDriftDampsChange24h(t *testing.T) {
	e, _, _ := newTestEngine(t)

	before, _ := e.Asset("BTC")

	e.mu.Lock()
	e.applyPriceDrift("BTC", decimal.NewFromFloat(0.01))
	e.mu.Unlock()

	after, _ := e.Asset("BTC")

	want := before.Change24h.Add(decimal.NewFromFloat(0.01).Mul(hundred).Mul(damping))
	if !after.Change24h.Equal(want) {
		t.Fatalf("change24h = %s, want %s", after.Change24h, want)
	}

	if !after.Price.Equal(before.Price.Mul(decimal.NewFromFloat(1.01))) {
		t.Fatalf("price = %s", after.Price)
	}
}
