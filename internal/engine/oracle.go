package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/district-cli/internal/validator"
	"github.com/sells-group/district-cli/pkg/llm"
)

// Correction is a proposed rewrite of a rejected address.
type Correction struct {
	Address   validator.Address
	Reasoning string
}

// CorrectionOracle proposes a corrected address after a provider rejection.
// A nil-address return with no error means the oracle has no suggestion and
// the loop should stop early.
type CorrectionOracle interface {
	SuggestCorrection(ctx context.Context, original validator.Address, failureReason string, previous []Correction) (*Correction, error)
}

const oracleSystemPrompt = `You correct US postal addresses that an address
standardization service rejected. Respond with a single JSON object:
{"street": "...", "city": "...", "state": "...", "zip": "...", "reasoning": "..."}
Fix the most likely error (misspelling, wrong suffix, transposed digits,
missing directional). If you cannot suggest a plausible correction, respond
with {"give_up": true, "reasoning": "..."}. Respond with JSON only.`

// LLMOracle implements CorrectionOracle on a text-completion client.
type LLMOracle struct {
	client    llm.Client
	model     string
	maxTokens int64
}

// NewLLMOracle creates the completion-backed oracle.
func NewLLMOracle(client llm.Client, model string, maxTokens int64) *LLMOracle {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &LLMOracle{client: client, model: model, maxTokens: maxTokens}
}

// SuggestCorrection implements CorrectionOracle.
func (o *LLMOracle) SuggestCorrection(ctx context.Context, original validator.Address, failureReason string, previous []Correction) (*Correction, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Address: %s\n", original.OneLine())
	fmt.Fprintf(&sb, "Rejection reason: %s\n", failureReason)
	if len(previous) > 0 {
		sb.WriteString("Corrections already tried and rejected:\n")
		for _, c := range previous {
			fmt.Fprintf(&sb, "- %s\n", c.Address.OneLine())
		}
		sb.WriteString("Do not repeat them.\n")
	}

	out, err := o.client.Complete(ctx, llm.Request{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		System:    oracleSystemPrompt,
		Prompt:    sb.String(),
	})
	if err != nil {
		return nil, eris.Wrap(err, "engine: oracle completion")
	}
	return parseCorrection(out)
}

// parseCorrection extracts the oracle's JSON object from the completion
// text, tolerating surrounding prose or code fences.
func parseCorrection(out string) (*Correction, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return nil, eris.Errorf("engine: no JSON object in oracle output: %q", out)
	}

	var payload struct {
		Street    string `json:"street"`
		City      string `json:"city"`
		State     string `json:"state"`
		Zip       string `json:"zip"`
		Reasoning string `json:"reasoning"`
		GiveUp    bool   `json:"give_up"`
	}
	if err := json.Unmarshal([]byte(out[start:end+1]), &payload); err != nil {
		return nil, eris.Wrap(err, "engine: parse oracle output")
	}
	if payload.GiveUp || payload.Street == "" {
		return nil, nil
	}

	return &Correction{
		Address: validator.Address{
			Street: payload.Street,
			City:   payload.City,
			State:  strings.ToUpper(payload.State),
			Zip:    payload.Zip,
		},
		Reasoning: payload.Reasoning,
	}, nil
}
