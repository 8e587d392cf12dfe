// ABOUTME: Dynamic analysis through transaction simulation against the remote service.
// ABOUTME: Builds a representative transaction and maps simulation outcomes into SubResult data.

package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbraun92/contract-sentinel/internal/providers"
	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
)

const dynamicConfidence = 0.9

// defaultSender is used when the request carries no user address. A
// well-funded, always-existing account keeps simulations deterministic.
const defaultSender = "0x0000000000000000000000000000000000000001"

// erc20TransferSelector is the 4-byte selector of transfer(address,uint256).
const erc20TransferSelector = "0xa9059cbb"

// Dynamic delegates to the simulation collaborator and reports the outcome.
type Dynamic struct {
	simulator providers.Simulator
	logger    *logrus.Logger
}

func NewDynamic(simulator providers.Simulator, logger *logrus.Logger) *Dynamic {
	return &Dynamic{simulator: simulator, logger: logger}
}

func (d *Dynamic) Kind() types.AnalysisKind {
	return types.KindDynamic
}

func (d *Dynamic) Run(ctx context.Context, target *Target) types.SubResult {
	req := d.buildTransaction(target)

	result, err := d.simulator.Simulate(ctx, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return types.Failure(types.KindDynamic, types.ReasonTimeout, "simulation timed out")
		}
		if errors.Is(err, providers.ErrServiceUnavailable) {
			return types.Failure(types.KindDynamic, types.ReasonServiceError, err.Error())
		}
		return types.Failure(types.KindDynamic, types.ReasonInternalError, err.Error())
	}

	// A reverted transaction is a completed analysis: the payload carries
	// status=false plus the revert reason, distinguished from runner failure.
	payload := map[string]any{
		"status":   result.Status,
		"gas_used": result.GasUsed,
		"logs":     result.Logs,
		"trace":    result.Trace,
	}
	if result.Error != "" {
		payload["error"] = result.Error
	}
	if !result.Status {
		payload["recommendations"] = []string{
			"Representative transaction reverted; inspect the revert reason before interacting with this contract",
		}
	}

	d.logger.WithFields(logrus.Fields{
		"address":  target.Address,
		"status":   result.Status,
		"gas_used": result.GasUsed,
	}).Debug("Dynamic analysis completed")

	return types.Success(types.KindDynamic, payload, dynamicConfidence)
}

// buildTransaction shapes the probe: a zero-value empty-input call by
// default, or an ERC-20 transfer call when the contract looks token-like.
func (d *Dynamic) buildTransaction(target *Target) providers.SimulationRequest {
	from := target.From
	if from == "" {
		from = defaultSender
	}

	req := providers.SimulationRequest{
		From:    from,
		To:      target.Address,
		Value:   "0",
		Data:    "0x",
		Network: target.Network,
	}

	if target.Metadata != nil && looksTokenLike(target.Metadata.Name) {
		req.Data = erc20TransferSelector +
			pad32(strings.TrimPrefix(from, "0x")) +
			pad32("1")
	}

	return req
}

func looksTokenLike(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "token") ||
		strings.Contains(lower, "erc20") ||
		strings.Contains(lower, "coin")
}

// pad32 left-pads a hex fragment to a 32-byte ABI word.
func pad32(hexDigits string) string {
	return fmt.Sprintf("%064s", hexDigits)
}
