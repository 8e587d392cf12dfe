// ABOUTME: Unit tests for the static analysis runner.
// ABOUTME: Covers pattern detection, sub-score arithmetic, and the unverified source path.

package runner

import (
	"context"
	"testing"

	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func verifiedTarget(source string) *Target {
	return &Target{
		Address: "0x1234567890abcdef1234567890abcdef12345678",
		Network: types.NetworkEthereum,
		Metadata: &types.ContractMetadata{
			Name:       "Test",
			IsVerified: true,
			Source:     source,
		},
	}
}

func TestStaticDetectsDangerousConstructs(t *testing.T) {
	source := `pragma solidity ^0.8.0;
contract Risky {
    function destroy() external {
        selfdestruct(payable(msg.sender));
    }

    function forward(address target, bytes calldata data) external {
        target.delegatecall(data);
    }

    function pay(address payable to) external {
        to.transfer(1 ether);
    }
}`

	result := NewStatic(testLogger()).Run(context.Background(), verifiedTarget(source))

	require.True(t, result.OK)
	assert.Equal(t, types.KindStatic, result.Kind)

	vulns, ok := result.Payload["vulnerabilities"].([]types.Vulnerability)
	require.True(t, ok, "expected typed findings in payload")
	require.Len(t, vulns, 3)

	titles := make(map[string]types.Severity)
	for _, v := range vulns {
		titles[v.Title] = v.Severity
		assert.NotEmpty(t, v.Location)
	}
	assert.Equal(t, types.SeverityHigh, titles["Self-destruct capability"])
	assert.Equal(t, types.SeverityHigh, titles["Delegatecall usage"])
	assert.Equal(t, types.SeverityMedium, titles["Unguarded external transfer"])

	// 10.0 - 2.0 - 2.0 - 1.0
	assert.InDelta(t, 5.0, result.Payload["security_score"], 0.001)
}

func TestStaticCleanSourceScoresFull(t *testing.T) {
	source := `pragma solidity ^0.8.0;
contract Safe {
    uint256 public counter;

    function bump() external {
        counter += 1;
    }
}`

	result := NewStatic(testLogger()).Run(context.Background(), verifiedTarget(source))

	require.True(t, result.OK)
	assert.InDelta(t, 10.0, result.Payload["security_score"], 0.001)
	assert.Nil(t, result.Payload["vulnerabilities"])
}

func TestStaticIgnoresComments(t *testing.T) {
	source := `pragma solidity ^0.8.0;
contract Documented {
    // never use selfdestruct(here)
    uint256 public value;
}`

	result := NewStatic(testLogger()).Run(context.Background(), verifiedTarget(source))

	require.True(t, result.OK)
	assert.InDelta(t, 10.0, result.Payload["security_score"], 0.001)
}

func TestStaticScoreFloorsAtZero(t *testing.T) {
	source := `contract Grim {
    function a(address t, bytes calldata d) external { t.delegatecall(d); }
    function b(address t, bytes calldata d) external { t.delegatecall(d); }
    function c() external { selfdestruct(payable(msg.sender)); }
    function d2() external { selfdestruct(payable(msg.sender)); }
    function e() external { selfdestruct(payable(msg.sender)); }
    function f() external { selfdestruct(payable(msg.sender)); }
}`

	result := NewStatic(testLogger()).Run(context.Background(), verifiedTarget(source))

	require.True(t, result.OK)
	assert.InDelta(t, 0.0, result.Payload["security_score"], 0.001)
}

func TestStaticUnverifiedSource(t *testing.T) {
	target := &Target{
		Address:  "0x1111111111111111111111111111111111111111",
		Network:  types.NetworkEthereum,
		Metadata: &types.ContractMetadata{IsVerified: false},
	}

	result := NewStatic(testLogger()).Run(context.Background(), target)

	// Missing source is a reportable outcome, never a Failure
	require.True(t, result.OK)
	assert.InDelta(t, 0.0, result.Payload["security_score"], 0.001)
	assert.Equal(t, false, result.Payload["source_verified"])

	recs, ok := result.Payload["recommendations"].([]string)
	require.True(t, ok)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "source not verified")
}
