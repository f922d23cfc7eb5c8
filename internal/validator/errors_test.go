package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/district-cli/pkg/usps"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "provider rejection",
			err:  &usps.ValidationError{Description: "Address Not Found"},
			want: KindValidation,
		},
		{
			name: "wrapped provider rejection",
			err:  eris.Wrap(&usps.ValidationError{Description: "Invalid City"}, "usps: verify"),
			want: KindValidation,
		},
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: KindNetwork,
		},
		{
			name: "connection refused string",
			err:  errors.New("dial tcp 127.0.0.1:443: connect: connection refused"),
			want: KindNetwork,
		},
		{
			name: "anything else",
			err:  errors.New("unexpected response shape"),
			want: KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestResultBuilders(t *testing.T) {
	r := notConfigured(ProviderGoogle)
	assert.False(t, r.Success)
	assert.Equal(t, KindConfiguration, r.ErrorKind)
	assert.Contains(t, r.Error, "google")

	r = noMatch(ProviderCensus)
	assert.False(t, r.Success)
	assert.Equal(t, KindValidation, r.ErrorKind)

	r = failure(ProviderUSPS, errors.New("boom"))
	assert.False(t, r.Success)
	assert.Equal(t, "boom", r.Error)
	assert.Equal(t, KindInternal, r.ErrorKind)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.Nil(t, reg.Get("usps"))
	assert.Empty(t, reg.Names())
}

func TestAddressOneLine(t *testing.T) {
	a := Address{Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62704", Zip4: "1234"}
	assert.Equal(t, "123 Main St, Springfield, IL, 62704-1234", a.OneLine())

	b := Address{Street: "123 Main St", State: "IL"}
	assert.Equal(t, "123 Main St, IL", b.OneLine())
}
