// ABOUTME: Tests for environment-derived settings in the sentinel entry point.
// ABOUTME: Covers strict PORT parsing with fallback on malformed values.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback int
		want     int
	}{
		{name: "valid port", value: "9090", fallback: 8080, want: 9090},
		{name: "trailing garbage rejected", value: "80xy", fallback: 8080, want: 8080},
		{name: "non numeric rejected", value: "http", fallback: 8080, want: 8080},
		{name: "empty rejected", value: "", fallback: 8080, want: 8080},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, portFromEnv(tt.value, tt.fallback))
		})
	}
}
