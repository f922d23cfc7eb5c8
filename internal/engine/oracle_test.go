package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/district-cli/internal/validator"
	"github.com/sells-group/district-cli/pkg/llm"
)

// fakeCompleter records the request and returns a canned completion.
type fakeCompleter struct {
	response string
	err      error
	lastReq  llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

func TestParseCorrection(t *testing.T) {
	c, err := parseCorrection(`{"street":"123 Main St","city":"Springfield","state":"il","zip":"62704","reasoning":"fixed transposition"}`)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "123 Main St", c.Address.Street)
	assert.Equal(t, "IL", c.Address.State, "state is uppercased")
	assert.Equal(t, "fixed transposition", c.Reasoning)
}

func TestParseCorrection_Fenced(t *testing.T) {
	out := "Here is the correction:\n```json\n{\"street\":\"1 Elm Ave\",\"state\":\"CA\",\"reasoning\":\"r\"}\n```"
	c, err := parseCorrection(out)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "1 Elm Ave", c.Address.Street)
}

func TestParseCorrection_GiveUp(t *testing.T) {
	c, err := parseCorrection(`{"give_up":true,"reasoning":"address is fictional"}`)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestParseCorrection_EmptyStreet(t *testing.T) {
	c, err := parseCorrection(`{"street":"","reasoning":"nothing to suggest"}`)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestParseCorrection_Malformed(t *testing.T) {
	_, err := parseCorrection("no json here")
	assert.Error(t, err)

	_, err = parseCorrection(`{"street": not-json}`)
	assert.Error(t, err)
}

func TestLLMOracle_PromptIncludesHistory(t *testing.T) {
	fake := &fakeCompleter{response: `{"street":"2 Oak St","state":"IL","reasoning":"r"}`}
	oracle := NewLLMOracle(fake, "test-model", 256)

	previous := []Correction{
		{Address: validator.Address{Street: "1 Oak St", State: "IL"}},
	}
	c, err := oracle.SuggestCorrection(t.Context(),
		validator.Address{Street: "1 Oka St", State: "IL"},
		"address not found", previous)

	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "2 Oak St", c.Address.Street)

	assert.Equal(t, "test-model", fake.lastReq.Model)
	assert.Contains(t, fake.lastReq.Prompt, "1 Oka St")
	assert.Contains(t, fake.lastReq.Prompt, "address not found")
	assert.Contains(t, fake.lastReq.Prompt, "1 Oak St", "previously tried variants are listed")
}

func TestLLMOracle_CompletionError(t *testing.T) {
	fake := &fakeCompleter{err: assert.AnError}
	oracle := NewLLMOracle(fake, "test-model", 0)

	_, err := oracle.SuggestCorrection(t.Context(), validator.Address{Street: "1 Main St"}, "reason", nil)
	assert.Error(t, err)
}
