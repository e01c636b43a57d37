package errors

import (
	"errors"
	"testing"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		msg      string
		expected string
	}{
		{
			name:     "wrap nil error",
			err:      nil,
			msg:      "additional context",
			expected: "",
		},
		{
			name:     "wrap sentinel",
			err:      ErrNoVersions,
			msg:      "resolving artifact",
			expected: "resolving artifact: no versions found",
		},
		{
			name:     "wrap with empty message",
			err:      errors.New("original error"),
			msg:      "",
			expected: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrap(tt.err, tt.msg)
			if tt.err == nil {
				if result != nil {
					t.Errorf("Expected nil, got %v", result)
				}
				return
			}
			if result.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result.Error())
			}
			if !errors.Is(result, tt.err) {
				t.Errorf("Expected wrapped error to contain original error")
			}
		})
	}
}

func TestWrapf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		format   string
		args     []interface{}
		expected string
	}{
		{
			name:     "wrapf nil error",
			err:      nil,
			format:   "formatted: %s",
			args:     []interface{}{"test"},
			expected: "",
		},
		{
			name:     "wrapf download failure",
			err:      ErrDownloadFailed,
			format:   "fetching %s",
			args:     []interface{}{"https://databus.dbpedia.org/file.ttl"},
			expected: "fetching https://databus.dbpedia.org/file.ttl: download failed",
		},
		{
			name:     "wrapf with multiple args",
			err:      errors.New("original error"),
			format:   "status %d from %s",
			args:     []interface{}{503, "databus.dbpedia.org"},
			expected: "status 503 from databus.dbpedia.org: original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrapf(tt.err, tt.format, tt.args...)
			if tt.err == nil {
				if result != nil {
					t.Errorf("Expected nil, got %v", result)
				}
				return
			}
			if result.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result.Error())
			}
			if !errors.Is(result, tt.err) {
				t.Errorf("Expected wrapped error to contain original error")
			}
		})
	}
}

func TestAuthSentinelsDistinct(t *testing.T) {
	sentinels := []error{
		ErrAPIKeyRequired,
		ErrVaultTokenRequired,
		ErrHostNotVaultConfigured,
		ErrUnauthorized,
		ErrForbidden,
		ErrTokenInvalid,
		ErrInsufficientPermissions,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			if errors.Is(a, b) {
				t.Errorf("sentinel %v must not match %v", a, b)
			}
		}
	}
	wrapped := Wrap(ErrTokenInvalid, "retry after token exchange")
	if !errors.Is(wrapped, ErrTokenInvalid) {
		t.Errorf("wrapped sentinel lost identity")
	}
	if errors.Is(wrapped, ErrForbidden) {
		t.Errorf("wrapped sentinel matched wrong sentinel")
	}
}
