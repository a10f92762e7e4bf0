package notifier

import (
	"math/rand"
	"sync"
)

// FaultPolicy decides whether an HTTP 500 from the endpoint is treated as a
// transient fault or as a delivery.
type FaultPolicy interface {
	ServerFault() bool
}

// RandomFaultPolicy reports a fault with the configured probability.
type RandomFaultPolicy struct {
	rate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomFaultPolicy(rate float64, seed int64) *RandomFaultPolicy {
	return &RandomFaultPolicy{
		rate: rate,
		rnd:  rand.New(rand.NewSource(seed)),
	}
}

func (p *RandomFaultPolicy) ServerFault() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Float64() < p.rate
}

// FixedFaultPolicy always returns the same decision.
type FixedFaultPolicy bool

func (p FixedFaultPolicy) ServerFault() bool { return bool(p) }
