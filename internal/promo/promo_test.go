package promo

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestApply(t *testing.T) {
	tests := []struct {
		code    string
		applied bool
		price   int
	}{
		{"promo50", true, 345},
		{"PROMO50", true, 345},
		{"Promo50", true, 345},
		{"  pRoMo50 ", true, 345},
		{"PROMO5", false, 690},
		{"PROMO500", false, 690},
		{"", false, 690},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			quote := Apply(tt.code)
			assert.Equal(t, tt.applied, quote.Applied)
			assert.Equal(t, tt.price, quote.Price)
			assert.Equal(t, BasePrice, quote.BasePrice)
		})
	}
}

func TestSimulatorCounters(t *testing.T) {
	sim := NewSimulator(zap.NewNop(), WithRand(rand.New(rand.NewPCG(1, 2))))
	assert.Equal(t, Snapshot{Online: 247, Buyers: 1342, BuyersToday: 89}, sim.Snapshot())

	for i := 0; i < 100; i++ {
		before := sim.Snapshot().Online
		sim.JitterOnline()
		after := sim.Snapshot().Online
		assert.LessOrEqual(t, after-before, 1)
		assert.GreaterOrEqual(t, after-before, -1)
	}

	before := sim.Snapshot()
	sim.AddBuyer()
	after := sim.Snapshot()
	assert.Equal(t, before.Buyers+1, after.Buyers)
	assert.Equal(t, before.BuyersToday+1, after.BuyersToday)
}

func TestSimulatorOnlineFloor(t *testing.T) {
	sim := NewSimulator(zap.NewNop())
	sim.state.Online = 0
	for i := 0; i < 50; i++ {
		sim.JitterOnline()
		assert.GreaterOrEqual(t, sim.Snapshot().Online, 0)
	}
}

func TestSimulatorRunStopsOnCancel(t *testing.T) {
	sim := NewSimulator(zap.NewNop(), WithIntervals(time.Millisecond, 2*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return sim.Snapshot().Buyers > InitialBuyers
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("simulator did not stop after cancel")
	}
}
