// ABOUTME: Chroma-style vector store client implementing the Retriever interface.
// ABOUTME: Queries a remote collection for top-k passages relevant to a text query.

package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tbraun92/contract-sentinel/internal/providers"

	"github.com/sirupsen/logrus"
)

// Client queries a Chroma-compatible retrieval service over HTTP. The service
// owns embedding computation; this client only ships text queries.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL, collection string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		collection: collection,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		logger:     logger,
	}
}

func (c *Client) Name() string {
	return "chroma"
}

type queryPayload struct {
	QueryTexts []string `json:"query_texts"`
	NResults   int      `json:"n_results"`
	Include    []string `json:"include"`
}

type queryResponse struct {
	Documents [][]string            `json:"documents"`
	Metadatas [][]map[string]string `json:"metadatas"`
	Distances [][]float64           `json:"distances"`
}

// Query returns the top-k passages for a text query, scored by similarity.
func (c *Client) Query(ctx context.Context, text string, k int) ([]providers.Passage, error) {
	payload := queryPayload{
		QueryTexts: []string{text},
		NResults:   k,
		Include:    []string{"documents", "metadatas", "distances"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode retrieval query: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/collections/%s/query", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build retrieval request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: retrieval store returned status %d", providers.ErrServiceUnavailable, resp.StatusCode)
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed retrieval response: %v", providers.ErrServiceUnavailable, err)
	}

	if len(decoded.Documents) == 0 {
		return nil, nil
	}

	passages := make([]providers.Passage, 0, len(decoded.Documents[0]))
	for i, doc := range decoded.Documents[0] {
		p := providers.Passage{Content: doc}
		if len(decoded.Metadatas) > 0 && i < len(decoded.Metadatas[0]) {
			p.Metadata = decoded.Metadatas[0][i]
		}
		if len(decoded.Distances) > 0 && i < len(decoded.Distances[0]) {
			// Chroma reports distance; invert so higher means more relevant.
			p.Score = 1.0 - decoded.Distances[0][i]
		}
		passages = append(passages, p)
	}

	c.logger.WithFields(logrus.Fields{
		"collection": c.collection,
		"results":    len(passages),
	}).Debug("Retrieval query completed")

	return passages, nil
}
