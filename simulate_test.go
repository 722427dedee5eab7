package walletd

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestConfirmationTickDrivesDepositToSettlement(t *testing.T) {
	e, _, rng := newTestEngine(t)
	rng.values = []float64{0.3} // below every advance threshold, above fail

	dep, err := e.CreateDeposit(context.Background(), "BTC", decimal.NewFromFloat(0.01), "")
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	for i := 0; i < 3; i++ {
		e.runTick("confirmations", e.tickConfirmations)
	}

	got, _ := e.Deposit(dep.ID)
	if got.Status != DepositConfirmed {
		t.Fatalf("status = %s after 3 ticks, want confirmed", got.Status)
	}

	btc, _ := e.Asset("BTC")
	if !btc.Balance.Equal(decimal.NewFromFloat(0.01)) {
		t.Fatalf("balance = %s, want 0.01", btc.Balance)
	}
}

func TestConfirmationTickCompletesWithdrawal(t *testing.T) {
	e, _, rng := newTestEngine(t)
	rng.values = []float64{0.3}

	w, err := e.RequestWithdrawal(context.Background(), WithdrawalInput{
		Asset:     "USDT",
		Amount:    decimal.NewFromInt(40),
		Fee:       decimal.NewFromInt(1),
		ToAddress: testAddress,
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	e.runTick("confirmations", e.tickConfirmations)

	got, _ := e.Withdrawal(w.ID)
	if got.Status != WithdrawalProcessing {
		t.Fatalf("status = %s after first tick, want processing", got.Status)
	}

	e.runTick("confirmations", e.tickConfirmations)

	got, _ = e.Withdrawal(w.ID)
	if got.Status != WithdrawalCompleted {
		t.Fatalf("status = %s after second tick, want completed", got.Status)
	}

	// reservation taken at request time stands
	usdt, _ := e.Asset("USDT")
	if !usdt.Balance.Equal(decimal.NewFromInt(59)) {
		t.Fatalf("balance = %s, want 59", usdt.Balance)
	}
}

func TestConfirmationTickFailsWithdrawalAndRefunds(t *testing.T) {
	e, _, rng := newTestEngine(t)
	rng.values = []float64{0.01} // below the failure threshold

	w, err := e.RequestWithdrawal(context.Background(), WithdrawalInput{
		Asset:     "USDT",
		Amount:    decimal.NewFromInt(40),
		Fee:       decimal.NewFromInt(1),
		ToAddress: testAddress,
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	e.runTick("confirmations", e.tickConfirmations) // pending -> processing
	e.runTick("confirmations", e.tickConfirmations) // processing -> failed

	got, _ := e.Withdrawal(w.ID)
	if got.Status != WithdrawalFailed || got.Reason == "" {
		t.Fatalf("status=%s reason=%q, want failed with reason", got.Status, got.Reason)
	}

	usdt, _ := e.Asset("USDT")
	if !usdt.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance = %s, want refund back to 100", usdt.Balance)
	}
}

func TestConfirmationTickBroadcastsOncePerBatch(t *testing.T) {
	e, _, rng := newTestEngine(t)
	rng.values = []float64{0.3}

	if _, err := e.CreateDeposit(context.Background(), "BTC", decimal.NewFromFloat(0.5), ""); err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	if _, err := e.CreateDeposit(context.Background(), "USDT", decimal.NewFromInt(10), ""); err != nil {
		t.Fatalf("create deposit: %v", err)
	}

	var n int
	unsubscribe := e.Subscribe(func() { n++ })
	defer unsubscribe()

	e.runTick("confirmations", e.tickConfirmations)

	if n != 1 {
		t.Fatalf("tick broadcast %d times for a batch of two deposits, want 1", n)
	}
}

func TestPriceTickStaysQuietWithoutVolatility(t *testing.T) {
	clock := &fakeClock{}
	e := NewEngine(nil, Config{
		Clock: clock,
		Rand:  &fakeRand{values: []float64{0.3}},
		Assets: []AssetSeed{{
			Symbol:  "USDC",
			Name:    "USD Coin",
			Balance: decimal.NewFromInt(100),
			Price:   decimal.NewFromInt(1),
			Network: "ERC20",
		}},
	})

	var n int
	unsubscribe := e.Subscribe(func() { n++ })
	defer unsubscribe()

	e.runTick("prices", e.tickPrices)

	if n != 0 {
		t.Fatalf("tick with nothing to drift broadcast %d times, want 0", n)
	}
}

func TestIdleConfirmationTickStaysQuiet(t *testing.T) {
	e, _, _ := newTestEngine(t)

	var n int
	unsubscribe := e.Subscribe(func() { n++ })
	defer unsubscribe()

	e.runTick("confirmations", e.tickConfirmations)

	if n != 0 {
		t.Fatalf("idle tick broadcast %d times, want 0", n)
	}
}

func TestTickSurvivesPanic(t *testing.T) {
	e, _, _ := newTestEngine(t)

	e.runTick("boom", func() bool { panic("bad tick") })

	// the engine is still usable afterwards
	if assets := e.Assets(); len(assets) != 2 {
		t.Fatalf("engine broken after panicking tick: %d assets", len(assets))
	}
}
