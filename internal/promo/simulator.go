package promo

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Starting values and tick periods of the landing page counters.
const (
	InitialOnline      = 247
	InitialBuyers      = 1342
	InitialBuyersToday = 89

	OnlineInterval = 5 * time.Second
	BuyersInterval = 12 * time.Second
)

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Online      int `json:"online"`
	Buyers      int `json:"buyers"`
	BuyersToday int `json:"buyers_today"`
}

// Simulator drives the cosmetic social-proof counters shown on the landing page.
// The values are not backed by any data.
type Simulator struct {
	logger *zap.Logger
	rng    *rand.Rand

	onlineEvery time.Duration
	buyersEvery time.Duration

	mu    sync.RWMutex
	state Snapshot
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithIntervals overrides the tick periods.
func WithIntervals(online, buyers time.Duration) Option {
	return func(s *Simulator) {
		s.onlineEvery = online
		s.buyersEvery = buyers
	}
}

// WithRand injects the random source used for the online jitter.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) {
		s.rng = rng
	}
}

// NewSimulator returns a simulator at the initial counter values.
func NewSimulator(logger *zap.Logger, opts ...Option) *Simulator {
	s := &Simulator{
		logger:      logger,
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		onlineEvery: OnlineInterval,
		buyersEvery: BuyersInterval,
		state: Snapshot{
			Online:      InitialOnline,
			Buyers:      InitialBuyers,
			BuyersToday: InitialBuyersToday,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks the counters until ctx is cancelled. Both tickers are stopped on return.
func (s *Simulator) Run(ctx context.Context) {
	online := time.NewTicker(s.onlineEvery)
	defer online.Stop()
	buyers := time.NewTicker(s.buyersEvery)
	defer buyers.Stop()

	s.logger.Debug("social proof simulator started",
		zap.Duration("online_interval", s.onlineEvery),
		zap.Duration("buyers_interval", s.buyersEvery))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("social proof simulator stopped")
			return
		case <-online.C:
			s.JitterOnline()
		case <-buyers.C:
			s.AddBuyer()
		}
	}
}

// JitterOnline moves the online counter by -1, 0 or +1, never below zero.
func (s *Simulator) JitterOnline() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Online += s.rng.IntN(3) - 1
	if s.state.Online < 0 {
		s.state.Online = 0
	}
}

// AddBuyer increments both buyer counters.
func (s *Simulator) AddBuyer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Buyers++
	s.state.BuyersToday++
}

// Snapshot returns the current counter values.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
