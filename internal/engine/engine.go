// Package engine drives the bounded address-resolution retry loop: it pairs
// the structured-standardization adapter with a correction oracle, feeding
// corrected address variants back in until standardization yields a ZIP+4
// or the retry budget runs out.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/district-cli/internal/validator"
)

// State names the resolution loop's position.
type State string

const (
	StateInitial              State = "initial"
	StateTryingProvider       State = "trying_provider"
	StateRequestingCorrection State = "requesting_correction"
	StateSuccess              State = "success"
	StateFailed               State = "failed"
)

const (
	defaultMaxRetries = 3
	maxRetryCeiling   = 10
)

// ResolutionAttempt is one append-only audit-trail entry. The log is owned
// by a single Resolve call and returned with its outcome.
type ResolutionAttempt struct {
	AttemptNumber       int               `json:"attempt_number"`
	AddressVariant      validator.Address `json:"address_variant"`
	CorrectionReasoning string            `json:"correction_reasoning,omitempty"`
	Outcome             string            `json:"outcome"`
}

// Outcome is the final result of a resolution run.
type Outcome struct {
	State        State               `json:"state"`
	FinalAddress validator.Address   `json:"final_address"`
	Result       *validator.Result   `json:"result,omitempty"`
	Attempts     []ResolutionAttempt `json:"attempts"`
}

// Engine runs the sequential retry loop. Each iteration depends on the
// previous one's failure reason, so no parallelism is introduced here.
type Engine struct {
	adapter    validator.Adapter
	oracle     CorrectionOracle
	maxRetries int
	budget     time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxRetries sets the correction budget, clamped to [1,10].
func WithMaxRetries(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		if n > maxRetryCeiling {
			n = maxRetryCeiling
		}
		e.maxRetries = n
	}
}

// WithBudget sets a wall-clock deadline for the whole run, independent of
// the retry count. Zero disables it.
func WithBudget(d time.Duration) Option {
	return func(e *Engine) { e.budget = d }
}

// New creates an Engine around the standardization adapter and oracle.
func New(adapter validator.Adapter, oracle CorrectionOracle, opts ...Option) *Engine {
	e := &Engine{
		adapter:    adapter,
		oracle:     oracle,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve runs the loop: try the adapter, and on failure ask the oracle for
// a corrected variant and try again. Success requires a standardized ZIP+4.
// Total attempts are bounded by 1 + maxRetries; every iteration consumes one
// unit of budget whether or not the oracle produced a usable correction.
// Exceeding the wall-clock budget ends the run in StateFailed.
func (e *Engine) Resolve(ctx context.Context, addr validator.Address) *Outcome {
	if e.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.budget)
		defer cancel()
	}

	outcome := &Outcome{
		State:        StateInitial,
		FinalAddress: addr,
		Attempts:     []ResolutionAttempt{},
	}

	current := addr
	var reasoning string
	var corrections []Correction
	maxAttempts := 1 + e.maxRetries

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			outcome.State = StateFailed
			outcome.Attempts = append(outcome.Attempts, ResolutionAttempt{
				AttemptNumber:       attempt,
				AddressVariant:      current,
				CorrectionReasoning: reasoning,
				Outcome:             "aborted: wall-clock budget exhausted",
			})
			return outcome
		}

		outcome.State = StateTryingProvider
		result := e.adapter.Validate(ctx, current)
		entry := ResolutionAttempt{
			AttemptNumber:       attempt,
			AddressVariant:      current,
			CorrectionReasoning: reasoning,
		}

		if resolved(result) {
			entry.Outcome = "standardized with ZIP+4"
			outcome.Attempts = append(outcome.Attempts, entry)
			outcome.State = StateSuccess
			outcome.FinalAddress = *result.Standardized
			outcome.Result = &result
			return outcome
		}

		reason := failureReason(result)
		entry.Outcome = "rejected: " + reason
		outcome.Attempts = append(outcome.Attempts, entry)

		if attempt == maxAttempts {
			break
		}

		outcome.State = StateRequestingCorrection
		correction, err := e.oracle.SuggestCorrection(ctx, current, reason, corrections)
		if err != nil {
			zap.L().Warn("engine: correction oracle failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			break
		}
		if correction == nil {
			zap.L().Info("engine: oracle has no further correction",
				zap.Int("attempt", attempt),
			)
			break
		}

		corrections = append(corrections, *correction)
		current = correction.Address
		reasoning = correction.Reasoning
	}

	outcome.State = StateFailed
	outcome.FinalAddress = current
	return outcome
}

// resolved reports whether the adapter produced a standardized ZIP+4.
func resolved(r validator.Result) bool {
	return r.Success && r.Standardized != nil && r.Standardized.Zip4 != ""
}

func failureReason(r validator.Result) string {
	if r.Error != "" {
		return r.Error
	}
	if r.Success {
		return "standardization returned no ZIP+4"
	}
	return "provider rejected the address"
}
