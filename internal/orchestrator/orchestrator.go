// Package orchestrator parses raw address strings, fans validation out to
// the requested provider adapters, and reconciles their results into a
// cross-provider consistency analysis.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/district-cli/internal/validator"
)

// Response is the outcome of a multi-provider validation request.
type Response struct {
	RequestID     string                      `json:"request_id"`
	ParsedAddress validator.Address           `json:"parsed_address"`
	Methods       map[string]validator.Result `json:"methods"`
	Analysis      *Analysis                   `json:"analysis,omitempty"`
}

// Orchestrator coordinates the adapter fan-out.
type Orchestrator struct {
	registry       *validator.Registry
	analysisCfg    AnalysisConfig
	adapterTimeout time.Duration
}

// New creates an Orchestrator. adapterTimeout bounds each provider call;
// zero means 10 seconds.
func New(registry *validator.Registry, analysisCfg AnalysisConfig, adapterTimeout time.Duration) *Orchestrator {
	if adapterTimeout <= 0 {
		adapterTimeout = 10 * time.Second
	}
	return &Orchestrator{
		registry:       registry,
		analysisCfg:    analysisCfg,
		adapterTimeout: adapterTimeout,
	}
}

// Validate parses the raw address and runs every requested adapter
// concurrently. A single adapter failing — including timing out — never
// aborts the others; its failure is recorded as that provider's result.
// With two or more methods requested, a consistency analysis is attached.
// The only returned error is *ParseError.
func (o *Orchestrator) Validate(ctx context.Context, raw string, methods []string) (*Response, error) {
	addr, err := ParseAddress(raw)
	if err != nil {
		return nil, err
	}
	return o.ValidateAddress(ctx, addr, methods), nil
}

// ValidateAddress is Validate for an already-parsed address.
func (o *Orchestrator) ValidateAddress(ctx context.Context, addr validator.Address, methods []string) *Response {
	if len(methods) == 0 {
		methods = o.registry.Names()
	}

	resp := &Response{
		RequestID:     uuid.New().String(),
		ParsedAddress: addr,
		Methods:       make(map[string]validator.Result, len(methods)),
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)

	for _, method := range methods {
		eg.Go(func() error {
			result := o.runAdapter(egCtx, method, addr)
			mu.Lock()
			resp.Methods[method] = result
			mu.Unlock()
			return nil // fault isolation: adapter failures never cancel siblings
		})
	}
	_ = eg.Wait()

	if len(methods) >= 2 {
		analysis := Analyze(resp.Methods, o.analysisCfg)
		resp.Analysis = &analysis
	}

	zap.L().Debug("validation fan-out complete",
		zap.String("request_id", resp.RequestID),
		zap.Int("methods", len(methods)),
	)
	return resp
}

// runAdapter executes one adapter under its own timeout.
func (o *Orchestrator) runAdapter(ctx context.Context, method string, addr validator.Address) validator.Result {
	adapter := o.registry.Get(method)
	if adapter == nil {
		return validator.Result{
			Provider:  method,
			Success:   false,
			Error:     "unknown validation method: " + method,
			ErrorKind: validator.KindConfiguration,
		}
	}

	adapterCtx, cancel := context.WithTimeout(ctx, o.adapterTimeout)
	defer cancel()
	return adapter.Validate(adapterCtx, addr)
}
