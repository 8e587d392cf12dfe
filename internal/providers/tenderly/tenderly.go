// ABOUTME: Tenderly simulation client implementing the Simulator interface.
// ABOUTME: Submits quick simulations over the Tenderly HTTP API and normalizes the response.

package tenderly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tbraun92/contract-sentinel/internal/providers"
	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
)

const defaultGasLimit = 3_000_000

// Client talks to the Tenderly simulation API for one account/project.
type Client struct {
	baseURL     string
	accessKey   string
	accountSlug string
	projectSlug string
	httpClient  *http.Client
	logger      *logrus.Logger
}

func NewClient(baseURL, accessKey, accountSlug, projectSlug string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:     baseURL,
		accessKey:   accessKey,
		accountSlug: accountSlug,
		projectSlug: projectSlug,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

func (c *Client) Name() string {
	return "tenderly"
}

type simulatePayload struct {
	NetworkID      string `json:"network_id"`
	From           string `json:"from"`
	To             string `json:"to"`
	Input          string `json:"input"`
	Gas            int64  `json:"gas"`
	GasPrice       string `json:"gas_price"`
	Value          string `json:"value"`
	SaveIfFails    bool   `json:"save_if_fails"`
	Save           bool   `json:"save"`
	SimulationType string `json:"simulation_type"`
}

type simulateResponse struct {
	Transaction struct {
		Status  bool   `json:"status"`
		GasUsed int64  `json:"gas_used"`
		Hash    string `json:"hash"`
	} `json:"transaction"`
	Logs  []map[string]any `json:"logs"`
	Trace []map[string]any `json:"trace"`
	Error struct {
		ErrorMessage string `json:"error_message"`
	} `json:"error"`
}

// Simulate runs one quick simulation. A reverted transaction comes back as a
// Status=false result; transport and API failures wrap ErrServiceUnavailable.
func (c *Client) Simulate(ctx context.Context, req providers.SimulationRequest) (*providers.SimulationResult, error) {
	chainID, ok := types.SupportedNetworks[req.Network]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", req.Network)
	}

	gas := req.Gas
	if gas <= 0 {
		gas = defaultGasLimit
	}
	value := req.Value
	if value == "" {
		value = "0"
	}
	input := req.Data
	if input == "" {
		input = "0x"
	}

	payload := simulatePayload{
		NetworkID:      strconv.Itoa(chainID),
		From:           req.From,
		To:             req.To,
		Input:          input,
		Gas:            gas,
		GasPrice:       "0",
		Value:          value,
		SaveIfFails:    true,
		SimulationType: "quick",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode simulation payload: %w", err)
	}

	url := fmt.Sprintf("%s/account/%s/project/%s/simulate", c.baseURL, c.accountSlug, c.projectSlug)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build simulation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Access-Key", c.accessKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"to":          req.To,
			"network":     req.Network,
		}).Warn("Tenderly simulation request rejected")
		return nil, fmt.Errorf("%w: tenderly returned status %d", providers.ErrServiceUnavailable, resp.StatusCode)
	}

	var decoded simulateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed simulation response: %v", providers.ErrServiceUnavailable, err)
	}

	result := &providers.SimulationResult{
		Status:  decoded.Transaction.Status,
		GasUsed: decoded.Transaction.GasUsed,
		Logs:    decoded.Logs,
		Trace:   decoded.Trace,
		Error:   decoded.Error.ErrorMessage,
	}

	c.logger.WithFields(logrus.Fields{
		"to":       req.To,
		"network":  req.Network,
		"status":   result.Status,
		"gas_used": result.GasUsed,
	}).Debug("Tenderly simulation completed")

	return result, nil
}
