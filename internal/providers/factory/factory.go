// ABOUTME: Factory for creating the external collaborator clients.
// ABOUTME: Centralizes provider instantiation, configuration, and mock-mode selection.

package factory

import (
	"fmt"

	"github.com/tbraun92/contract-sentinel/internal/providers"
	"github.com/tbraun92/contract-sentinel/internal/providers/chroma"
	"github.com/tbraun92/contract-sentinel/internal/providers/etherscan"
	"github.com/tbraun92/contract-sentinel/internal/providers/mock"
	"github.com/tbraun92/contract-sentinel/internal/providers/openai"
	"github.com/tbraun92/contract-sentinel/internal/providers/tenderly"

	"github.com/sirupsen/logrus"
)

// Config holds the settings needed to construct the collaborator clients.
type Config struct {
	TenderlyURL      string
	TenderlyKey      string
	TenderlyAccount  string
	TenderlyProject  string
	ExplorerURL      string
	ExplorerKey      string
	OpenAIKey        string
	OpenAIModel      string
	ChromaURL        string
	ChromaCollection string
	MockMode         bool // Enable mock collaborators for local testing
}

// Set bundles one instance of each collaborator contract.
type Set struct {
	Simulator providers.Simulator
	Retriever providers.Retriever
	Generator providers.Generator
	Metadata  providers.MetadataSource
}

// Create builds the collaborator set from configuration. Mock mode short-
// circuits everything to in-memory collaborators.
func Create(config *Config, logger *logrus.Logger) (*Set, error) {
	if config.MockMode {
		logger.Info("Using mock collaborators for testing")
		return &Set{
			Simulator: mock.NewSimulator(logger),
			Retriever: mock.NewRetriever(logger),
			Generator: mock.NewGenerator(logger),
			Metadata:  mock.NewMetadataSource(logger),
		}, nil
	}

	if config.TenderlyKey == "" || config.TenderlyAccount == "" || config.TenderlyProject == "" {
		return nil, fmt.Errorf("tenderly access key, account, and project are required (unless using mock mode)")
	}
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("openai api key is required (unless using mock mode)")
	}
	if config.ChromaURL == "" {
		return nil, fmt.Errorf("no retrieval store configured")
	}

	return &Set{
		Simulator: tenderly.NewClient(config.TenderlyURL, config.TenderlyKey, config.TenderlyAccount, config.TenderlyProject, logger),
		Retriever: chroma.NewClient(config.ChromaURL, config.ChromaCollection, logger),
		Generator: openai.NewClient(config.OpenAIKey, config.OpenAIModel),
		Metadata:  etherscan.NewClient(config.ExplorerURL, config.ExplorerKey, logger),
	}, nil
}
