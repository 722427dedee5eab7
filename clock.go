package walletd

import (
	"math/rand"
	"time"
)

// Clock and Rand are seams for the simulator so tests can drive ticks
// deterministically instead of waiting on wall time and live draws.

type Clock interface {
	Now() time.Time
}

type Rand interface {
	Float64() float64
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func newSystemRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
