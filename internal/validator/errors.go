package validator

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/sells-group/district-cli/pkg/usps"
)

// ErrorKind classifies an adapter failure.
type ErrorKind string

const (
	// KindConfiguration means the adapter has no usable credentials.
	KindConfiguration ErrorKind = "configuration_error"
	// KindNetwork means a timeout or connection failure reaching the provider.
	KindNetwork ErrorKind = "network_error"
	// KindValidation means the provider explicitly rejected the address.
	KindValidation ErrorKind = "validation_failure"
	// KindInternal covers provider protocol and parse faults.
	KindInternal ErrorKind = "internal_error"
)

// classify maps a provider-call error to an ErrorKind.
func classify(err error) ErrorKind {
	var vErr *usps.ValidationError
	if errors.As(err, &vErr) {
		return KindValidation
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"i/o timeout",
		"tls handshake timeout",
		"context deadline exceeded",
	} {
		if strings.Contains(msg, pattern) {
			return KindNetwork
		}
	}

	return KindInternal
}

// failure builds a failed Result from a provider-call error.
func failure(provider string, err error) Result {
	return Result{
		Provider:  provider,
		Success:   false,
		Error:     err.Error(),
		ErrorKind: classify(err),
	}
}

// notConfigured builds the failed Result for a missing-credentials adapter.
func notConfigured(provider string) Result {
	return Result{
		Provider:  provider,
		Success:   false,
		Error:     provider + " adapter is not configured",
		ErrorKind: KindConfiguration,
	}
}

// noMatch builds the failed Result for an address the provider could not
// locate.
func noMatch(provider string) Result {
	return Result{
		Provider:  provider,
		Success:   false,
		Error:     "address not found by " + provider,
		ErrorKind: KindValidation,
	}
}
