// ABOUTME: Etherscan-style contract metadata source implementing MetadataSource.
// ABOUTME: Fetches verified source code and compiler info for deployed contracts.

package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tbraun92/contract-sentinel/internal/providers"
	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/sirupsen/logrus"
)

// Client queries an Etherscan-compatible API for contract metadata. Most
// explorer deployments (Etherscan, Polygonscan, Arbiscan) share this shape.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL, apiKey string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

func (c *Client) Name() string {
	return "etherscan"
}

type sourceCodeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  []struct {
		ContractName    string `json:"ContractName"`
		CompilerVersion string `json:"CompilerVersion"`
		SourceCode      string `json:"SourceCode"`
	} `json:"result"`
}

// ContractMetadata looks up the verified source record for an address. An
// unverified contract is a normal result with IsVerified=false, not an error.
func (c *Client) ContractMetadata(ctx context.Context, address string, network types.Network) (*types.ContractMetadata, error) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getsourcecode")
	params.Set("address", address)
	params.Set("chainid", fmt.Sprintf("%d", types.SupportedNetworks[network]))
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	endpoint := fmt.Sprintf("%s/api?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: explorer returned status %d", providers.ErrServiceUnavailable, resp.StatusCode)
	}

	var decoded sourceCodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed metadata response: %v", providers.ErrServiceUnavailable, err)
	}

	if len(decoded.Result) == 0 {
		return &types.ContractMetadata{IsVerified: false}, nil
	}

	record := decoded.Result[0]
	meta := &types.ContractMetadata{
		Name:            record.ContractName,
		CompilerVersion: record.CompilerVersion,
		IsVerified:      record.SourceCode != "",
		Source:          record.SourceCode,
	}

	c.logger.WithFields(logrus.Fields{
		"address":  address,
		"network":  network,
		"verified": meta.IsVerified,
		"name":     meta.Name,
	}).Debug("Fetched contract metadata")

	return meta, nil
}
