// ABOUTME: Optional YAML configuration file for the sentinel service.
// ABOUTME: Flags and environment variables in cmd/sentinel override anything loaded here.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can use the human form
// accepted by time.ParseDuration, such as "1h" or "90s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Analysis struct {
		CacheTTL        Duration `yaml:"cacheTTL"`
		RunnerTimeout   Duration `yaml:"runnerTimeout"`
		AnalysisTimeout Duration `yaml:"analysisTimeout"`
	} `yaml:"analysis"`

	Tenderly struct {
		URL       string `yaml:"url"`
		AccessKey string `yaml:"accessKey"`
		Account   string `yaml:"account"`
		Project   string `yaml:"project"`
	} `yaml:"tenderly"`

	Explorer struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"apiKey"`
	} `yaml:"explorer"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Chroma struct {
		URL        string `yaml:"url"`
		Collection string `yaml:"collection"`
	} `yaml:"chroma"`

	Archive struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"accessKey"`
		SecretKey string `yaml:"secretKey"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"useSSL"`
	} `yaml:"archive"`
}

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}
