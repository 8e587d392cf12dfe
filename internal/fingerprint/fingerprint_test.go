// ABOUTME: Unit tests for analysis cache key fingerprinting.
// ABOUTME: Verifies determinism, input sensitivity, and address normalization.

package fingerprint

import (
	"strings"
	"testing"
)

func TestContractDeterminism(t *testing.T) {
	address := "0x1234567890abcdef1234567890abcdef12345678"
	code := "pragma solidity ^0.8.0; contract A {}"

	first := Contract(address, code)
	second := Contract(address, code)

	if first != second {
		t.Errorf("Fingerprint not deterministic: %s != %s", first, second)
	}

	if len(first) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(first))
	}
}

func TestContractInputSensitivity(t *testing.T) {
	address := "0x1234567890abcdef1234567890abcdef12345678"

	base := Contract(address, "code1")

	t.Run("different code", func(t *testing.T) {
		if Contract(address, "code2") == base {
			t.Error("Expected different fingerprint for different code")
		}
	})

	t.Run("whitespace change", func(t *testing.T) {
		if Contract(address, "code1 ") == base {
			t.Error("Expected different fingerprint after whitespace change")
		}
	})

	t.Run("different address", func(t *testing.T) {
		other := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
		if Contract(other, "code1") == base {
			t.Error("Expected different fingerprint for different address")
		}
	})
}

func TestContractAddressCaseInsensitive(t *testing.T) {
	code := "contract A {}"
	lower := Contract("0xabcdefabcdefabcdefabcdefabcdefabcdefabcd", code)
	upper := Contract("0xABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD", code)

	if lower != upper {
		t.Error("Expected case-insensitive address normalization")
	}
}

func TestRequestFallback(t *testing.T) {
	a := Request("0x1111111111111111111111111111111111111111", "ethereum")
	b := Request("0x1111111111111111111111111111111111111111", "polygon")

	if a == b {
		t.Error("Expected network to be part of the fallback fingerprint")
	}

	if strings.ToLower(a) != a {
		t.Error("Expected lowercase hex output")
	}
}
