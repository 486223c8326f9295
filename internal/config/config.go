package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ExtractionPrompts struct {
	System string `toml:"system"`
	User   string `toml:"user"`
}

type JudgePrompts struct {
	Compare string `toml:"compare"`
}

type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// JudgeConfig selects and tunes the value comparator used during
// reconciliation. Mode is one of "literal", "exact", "semantic", "fuzzy";
// "literal" never calls the LLM.
type JudgeConfig struct {
	Mode             string `toml:"mode"`
	FallbackToSimple bool   `toml:"fallback_to_simple"`
}

type DataCloudConfig struct {
	QueryURL     string `toml:"query_url"`
	IngestURL    string `toml:"ingest_url"`
	Token        string `toml:"token"`
	Connector    string `toml:"connector"`
	DLO          string `toml:"dlo"`
	TenantID     string `toml:"tenant_id"`
	VectorIndex  string `toml:"vector_index"`
	ChunkTable   string `toml:"chunk_table"`
	AttributeDLM string `toml:"attribute_dlm"`
}

type Config struct {
	LLM        LLMConfig         `toml:"llm"`
	Judge      JudgeConfig       `toml:"judge"`
	DataCloud  DataCloudConfig   `toml:"datacloud"`
	Extraction ExtractionPrompts `toml:"extraction"`
	Judging    JudgePrompts      `toml:"judging"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides file values with environment variables when set. Called
// once by the binaries; core packages never read the environment themselves.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.LLM.Provider, "LLM_PROVIDER")
	set(&c.LLM.Model, "LLM_MODEL")
	set(&c.LLM.APIKey, "LLM_API_KEY")
	set(&c.LLM.BaseURL, "LLM_BASE_URL")
	if c.LLM.APIKey == "" {
		set(&c.LLM.APIKey, "OPENAI_API_KEY")
	}

	set(&c.DataCloud.QueryURL, "QUERY_SVC_URL")
	set(&c.DataCloud.IngestURL, "INGESTION_URL")
	set(&c.DataCloud.Token, "DATACLOUD_TOKEN")
	set(&c.DataCloud.Connector, "MEMORY_CONNECTOR")
	set(&c.DataCloud.DLO, "MEMORY_DLO")
	set(&c.DataCloud.TenantID, "TENANT_ID")
	set(&c.DataCloud.VectorIndex, "VECTOR_IDX_DLM")
	set(&c.DataCloud.ChunkTable, "CHUNK_DLM")
	set(&c.DataCloud.AttributeDLM, "ATTRIBUTE_DLM")
}

// Validate checks the candidate-independent setup the engine cannot run
// without. Everything else has a usable default.
func (c *Config) Validate() error {
	if c.DataCloud.Connector == "" || c.DataCloud.DLO == "" {
		return fmt.Errorf("datacloud connector and dlo must be configured")
	}
	if c.DataCloud.TenantID == "" {
		return fmt.Errorf("datacloud tenant_id must be configured")
	}
	return nil
}
