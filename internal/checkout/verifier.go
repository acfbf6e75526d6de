package checkout

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// VerificationResult is a gateway's view of a payment.
type VerificationResult string

const (
	VerificationSuccess VerificationResult = "success"
	VerificationPending VerificationResult = "pending"
	VerificationFailed  VerificationResult = "failed"
)

// Verifier asks the payment gateway about a transaction. Pending results and
// errors are polled again until the countdown runs out.
type Verifier interface {
	Verify(ctx context.Context, transactionRef string) (VerificationResult, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, transactionRef string) (VerificationResult, error)

func (f VerifierFunc) Verify(ctx context.Context, transactionRef string) (VerificationResult, error) {
	return f(ctx, transactionRef)
}

// SimulatedVerifier stands in for a real gateway. It succeeds with the
// configured probability.
type SimulatedVerifier struct {
	successRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedVerifier seeds from the clock when seed is zero.
func NewSimulatedVerifier(successRate float64, seed int64) *SimulatedVerifier {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedVerifier{successRate: successRate, rng: rand.New(rand.NewSource(seed))}
}

func (v *SimulatedVerifier) Verify(ctx context.Context, _ string) (VerificationResult, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v.mu.Lock()
	roll := v.rng.Float64()
	v.mu.Unlock()
	if roll < v.successRate {
		return VerificationSuccess, nil
	}
	return VerificationFailed, nil
}
