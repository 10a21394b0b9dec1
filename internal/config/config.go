// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Slot store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	GRPCHealthPort  string // empty disables the gRPC health server
	ContextLifespan int
	Enrichment      EnrichmentConfig
	GenAI           GenAIConfig
	Jobs            JobsConfig
	Slots           SlotConfig
}

// EnrichmentConfig controls the profile enrichment API client.
type EnrichmentConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// GenAIConfig controls the summarization model.
// APIKey selects the Gemini API backend; otherwise Vertex AI is used with
// application default credentials.
type GenAIConfig struct {
	Model    string
	APIKey   string
	Project  string
	Location string
	BaseURL  string
}

// JobsConfig controls background job execution.
type JobsConfig struct {
	Timeout        time.Duration
	MaxConcurrency int // 0 = unbounded
}

// SlotConfig controls the result slot store.
type SlotConfig struct {
	Backend       string
	DSN           string
	Retention     time.Duration
	SweepInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		GRPCHealthPort:  getEnv("GRPC_HEALTH_PORT", ""),
		ContextLifespan: getEnvInt("CONTEXT_LIFESPAN", 5),
		Enrichment: EnrichmentConfig{
			BaseURL:  strings.TrimRight(getEnv("ENRICHMENT_BASE_URL", ""), "/"),
			APIToken: getEnv("ENRICHMENT_API_TOKEN", ""),
			Timeout:  getEnvDuration("ENRICHMENT_TIMEOUT", 20*time.Second),
		},
		GenAI: GenAIConfig{
			Model:    getEnv("GENAI_MODEL", "gemini-2.0-flash"),
			APIKey:   getEnv("GENAI_API_KEY", ""),
			Project:  getEnv("GENAI_PROJECT", ""),
			Location: getEnv("GENAI_LOCATION", "us-central1"),
			BaseURL:  getEnv("GENAI_BASE_URL", ""),
		},
		Jobs: JobsConfig{
			Timeout:        getEnvDuration("JOB_TIMEOUT", 90*time.Second),
			MaxConcurrency: getEnvInt("JOB_MAX_CONCURRENCY", 0),
		},
		Slots: SlotConfig{
			Backend:       strings.ToLower(getEnv("SLOT_STORE", StoreMemory)),
			DSN:           getEnv("SLOT_DB_DSN", ":memory:"),
			Retention:     getEnvDuration("SLOT_RETENTION", 30*time.Minute),
			SweepInterval: getEnvDuration("SWEEP_INTERVAL", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Enrichment.BaseURL == "" {
		return fmt.Errorf("ENRICHMENT_BASE_URL cannot be empty")
	}
	if c.Enrichment.Timeout <= 0 {
		return fmt.Errorf("ENRICHMENT_TIMEOUT must be > 0")
	}
	if c.GenAI.Model == "" {
		return fmt.Errorf("GENAI_MODEL cannot be empty")
	}
	if c.GenAI.APIKey == "" && c.GenAI.Project == "" {
		return fmt.Errorf("either GENAI_API_KEY or GENAI_PROJECT must be set")
	}
	if c.Jobs.Timeout <= 0 {
		return fmt.Errorf("JOB_TIMEOUT must be > 0")
	}
	if c.Jobs.MaxConcurrency < 0 {
		return fmt.Errorf("JOB_MAX_CONCURRENCY must be >= 0")
	}
	if c.ContextLifespan <= 0 {
		return fmt.Errorf("CONTEXT_LIFESPAN must be > 0")
	}
	switch c.Slots.Backend {
	case StoreMemory:
	case StoreSQLite:
		if c.Slots.DSN == "" {
			return fmt.Errorf("SLOT_DB_DSN cannot be empty when SLOT_STORE=sqlite")
		}
	default:
		return fmt.Errorf("SLOT_STORE must be %q or %q, got %q", StoreMemory, StoreSQLite, c.Slots.Backend)
	}
	if c.Slots.Retention <= 0 {
		return fmt.Errorf("SLOT_RETENTION must be > 0")
	}
	if c.Slots.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
