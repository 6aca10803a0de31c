// Package config loads CodeGraph's configuration from a YAML file layered
// under environment variables, following the teacher's precedence model:
//
//  1. Command-line flags (applied by cmd/codegraph)
//  2. Environment variables (CODEGRAPH_* prefix)
//  3. Config file (codegraph.yaml)
//  4. Built-in defaults
//
// Example:
//
//	cfg, err := config.Load(config.FindConfigFile())
//	if err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
//	log.Printf("starting with %s", cfg)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/charlenopires/codegraph/pkg/cgerr"
)

// Config holds every tunable CodeGraph reads at start. It mirrors
// SPEC_FULL.md's component list: one section per core component plus the
// ambient server/logging/storage sections.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Embedding EmbeddingConfig
	Reasoner  ReasonerConfig
	Retrieval RetrievalConfig
	Feedback  FeedbackConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// ServerConfig controls the HTTP+WebSocket adapter (pkg/server).
type ServerConfig struct {
	HTTPAddress string
	HTTPPort    int
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
}

// StorageConfig controls the graph and vector repositories.
type StorageConfig struct {
	DataDir      string
	InMemory     bool
	SyncWrites   bool
	EmbeddingDim int
	AuditLogPath string
}

// EmbeddingConfig controls QueryTranslator's embedder selection.
type EmbeddingConfig struct {
	Mode string // "llm" or "offline"
}

// ReasonerConfig mirrors pkg/reasoner.Config's fields one-to-one;
// cmd/codegraph copies them into a reasoner.Config at start.
type ReasonerConfig struct {
	Enabled                 bool
	Host                    string
	Port                    int
	InferenceCycles         int
	InferenceTimeout        time.Duration
	CircuitBreakerThreshold int
	CircuitResetAfter       time.Duration
}

// RetrievalConfig mirrors pkg/retrieval.Config, plus CacheSize which
// configures the pkg/retrieval.CachingRetriever wrapper cmd/codegraph
// builds around it.
type RetrievalConfig struct {
	VectorWeight      float64
	GraphWeight       float64
	SymbolicWeight    float64
	PerChannelTimeout time.Duration
	DefaultLimit      int
	VectorOverscan    int
	CacheSize         int
}

// FeedbackConfig mirrors pkg/feedback.Config.
type FeedbackConfig struct {
	PositiveConfidence float64
	NegativeConfidence float64
	SimilarAttenuation float64
	ReplaceAttenuation float64
	MaxDepth           int
	MaxRetries         int
}

// LoggingConfig holds the logging settings read from env vars and YAML.
type LoggingConfig struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text or json
	Output string // stdout, stderr, or a file path
}

// TelemetryConfig controls OpenTelemetry instrumentation.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// LoadDefaults returns the built-in defaults, matching spec.md's named
// constants wherever the spec fixes one.
func LoadDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddress: "0.0.0.0",
			HTTPPort:    8080,
		},
		Storage: StorageConfig{
			DataDir:      "./data",
			EmbeddingDim: 768,
			AuditLogPath: "./data/feedback-audit.log",
		},
		Embedding: EmbeddingConfig{
			Mode: "offline",
		},
		Reasoner: ReasonerConfig{
			Enabled:                 true,
			Host:                    "127.0.0.1",
			Port:                    9050,
			InferenceCycles:         100,
			InferenceTimeout:        200 * time.Millisecond,
			CircuitBreakerThreshold: 5,
			CircuitResetAfter:       30 * time.Second,
		},
		Retrieval: RetrievalConfig{
			VectorWeight:      0.4,
			GraphWeight:       0.3,
			SymbolicWeight:    0.3,
			PerChannelTimeout: 500 * time.Millisecond,
			DefaultLimit:      10,
			VectorOverscan:    4,
			CacheSize:         256,
		},
		Feedback: FeedbackConfig{
			PositiveConfidence: 0.9,
			NegativeConfidence: 0.9,
			SimilarAttenuation: 0.5,
			ReplaceAttenuation: 0.3,
			MaxDepth:           2,
			MaxRetries:         3,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "codegraph",
		},
	}
}

// LoadFromEnv overlays CODEGRAPH_*-prefixed environment variables onto cfg.
func LoadFromEnv(cfg *Config) {
	cfg.Server.HTTPAddress = getEnv("CODEGRAPH_HTTP_ADDRESS", cfg.Server.HTTPAddress)
	cfg.Server.HTTPPort = getEnvInt("CODEGRAPH_HTTP_PORT", cfg.Server.HTTPPort)
	cfg.Server.TLSEnabled = getEnvBool("CODEGRAPH_TLS_ENABLED", cfg.Server.TLSEnabled)
	cfg.Server.TLSCertFile = getEnv("CODEGRAPH_TLS_CERT_FILE", cfg.Server.TLSCertFile)
	cfg.Server.TLSKeyFile = getEnv("CODEGRAPH_TLS_KEY_FILE", cfg.Server.TLSKeyFile)

	cfg.Storage.DataDir = getEnv("CODEGRAPH_DATA_DIR", cfg.Storage.DataDir)
	cfg.Storage.InMemory = getEnvBool("CODEGRAPH_STORAGE_IN_MEMORY", cfg.Storage.InMemory)
	cfg.Storage.SyncWrites = getEnvBool("CODEGRAPH_STORAGE_SYNC_WRITES", cfg.Storage.SyncWrites)
	cfg.Storage.EmbeddingDim = getEnvInt("CODEGRAPH_EMBEDDING_DIM", cfg.Storage.EmbeddingDim)
	cfg.Storage.AuditLogPath = getEnv("CODEGRAPH_AUDIT_LOG_PATH", cfg.Storage.AuditLogPath)

	cfg.Embedding.Mode = getEnv("CODEGRAPH_EMBEDDING_MODE", cfg.Embedding.Mode)

	cfg.Reasoner.Enabled = getEnvBool("CODEGRAPH_REASONER_ENABLED", cfg.Reasoner.Enabled)
	cfg.Reasoner.Host = getEnv("CODEGRAPH_REASONER_HOST", cfg.Reasoner.Host)
	cfg.Reasoner.Port = getEnvInt("CODEGRAPH_REASONER_PORT", cfg.Reasoner.Port)
	cfg.Reasoner.InferenceCycles = getEnvInt("CODEGRAPH_REASONER_INFERENCE_CYCLES", cfg.Reasoner.InferenceCycles)
	cfg.Reasoner.InferenceTimeout = getEnvDuration("CODEGRAPH_REASONER_INFERENCE_TIMEOUT", cfg.Reasoner.InferenceTimeout)
	cfg.Reasoner.CircuitBreakerThreshold = getEnvInt("CODEGRAPH_REASONER_CIRCUIT_THRESHOLD", cfg.Reasoner.CircuitBreakerThreshold)
	cfg.Reasoner.CircuitResetAfter = getEnvDuration("CODEGRAPH_REASONER_CIRCUIT_RESET_AFTER", cfg.Reasoner.CircuitResetAfter)

	cfg.Retrieval.VectorWeight = getEnvFloat("CODEGRAPH_RETRIEVAL_VECTOR_WEIGHT", cfg.Retrieval.VectorWeight)
	cfg.Retrieval.GraphWeight = getEnvFloat("CODEGRAPH_RETRIEVAL_GRAPH_WEIGHT", cfg.Retrieval.GraphWeight)
	cfg.Retrieval.SymbolicWeight = getEnvFloat("CODEGRAPH_RETRIEVAL_SYMBOLIC_WEIGHT", cfg.Retrieval.SymbolicWeight)
	cfg.Retrieval.PerChannelTimeout = getEnvDuration("CODEGRAPH_RETRIEVAL_PER_CHANNEL_TIMEOUT", cfg.Retrieval.PerChannelTimeout)
	cfg.Retrieval.DefaultLimit = getEnvInt("CODEGRAPH_RETRIEVAL_DEFAULT_LIMIT", cfg.Retrieval.DefaultLimit)
	cfg.Retrieval.VectorOverscan = getEnvInt("CODEGRAPH_RETRIEVAL_VECTOR_OVERSCAN", cfg.Retrieval.VectorOverscan)
	cfg.Retrieval.CacheSize = getEnvInt("CODEGRAPH_RETRIEVAL_CACHE_SIZE", cfg.Retrieval.CacheSize)

	cfg.Feedback.PositiveConfidence = getEnvFloat("CODEGRAPH_FEEDBACK_POSITIVE_CONFIDENCE", cfg.Feedback.PositiveConfidence)
	cfg.Feedback.NegativeConfidence = getEnvFloat("CODEGRAPH_FEEDBACK_NEGATIVE_CONFIDENCE", cfg.Feedback.NegativeConfidence)
	cfg.Feedback.SimilarAttenuation = getEnvFloat("CODEGRAPH_FEEDBACK_SIMILAR_ATTENUATION", cfg.Feedback.SimilarAttenuation)
	cfg.Feedback.ReplaceAttenuation = getEnvFloat("CODEGRAPH_FEEDBACK_REPLACE_ATTENUATION", cfg.Feedback.ReplaceAttenuation)
	cfg.Feedback.MaxDepth = getEnvInt("CODEGRAPH_FEEDBACK_MAX_DEPTH", cfg.Feedback.MaxDepth)
	cfg.Feedback.MaxRetries = getEnvInt("CODEGRAPH_FEEDBACK_MAX_RETRIES", cfg.Feedback.MaxRetries)

	cfg.Logging.Level = getEnv("CODEGRAPH_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("CODEGRAPH_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Output = getEnv("CODEGRAPH_LOG_OUTPUT", cfg.Logging.Output)

	cfg.Telemetry.Enabled = getEnvBool("CODEGRAPH_TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.OTLPEndpoint = getEnv("CODEGRAPH_TELEMETRY_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.ServiceName = getEnv("CODEGRAPH_TELEMETRY_SERVICE_NAME", cfg.Telemetry.ServiceName)
}

// Load builds a Config from defaults, a YAML file (if present at path),
// and then environment variables, in that precedence order.
func Load(path string) (*Config, error) {
	cfg := LoadDefaults()

	if path != "" {
		if err := mergeYAMLFile(cfg, path); err != nil {
			return nil, err
		}
	}

	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile looks for codegraph.yaml in the working directory, then
// in /etc/codegraph/, returning "" if neither exists.
func FindConfigFile() string {
	candidates := []string{"codegraph.yaml", "codegraph.yml", "/etc/codegraph/codegraph.yaml"}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// yamlConfig mirrors the subset of Config an operator may override from a
// file. Missing/zero fields simply leave the default or env-derived value
// in place.
type yamlConfig struct {
	Server struct {
		HTTPAddress string `yaml:"http_address"`
		HTTPPort    int    `yaml:"http_port"`
	} `yaml:"server"`
	Storage struct {
		DataDir      string `yaml:"data_dir"`
		InMemory     bool   `yaml:"in_memory"`
		EmbeddingDim int    `yaml:"embedding_dim"`
	} `yaml:"storage"`
	Reasoner struct {
		Host             string `yaml:"host"`
		Port             int    `yaml:"port"`
		InferenceCycles  int    `yaml:"inference_cycles"`
		InferenceTimeout string `yaml:"inference_timeout"`
	} `yaml:"reasoner"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func mergeYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: reading config file: %v", cgerr.ErrConfigInvalid, err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return fmt.Errorf("%w: parsing config file: %v", cgerr.ErrConfigInvalid, err)
	}

	if y.Server.HTTPAddress != "" {
		cfg.Server.HTTPAddress = y.Server.HTTPAddress
	}
	if y.Server.HTTPPort > 0 {
		cfg.Server.HTTPPort = y.Server.HTTPPort
	}
	if y.Storage.DataDir != "" {
		cfg.Storage.DataDir = y.Storage.DataDir
	}
	if y.Storage.InMemory {
		cfg.Storage.InMemory = true
	}
	if y.Storage.EmbeddingDim > 0 {
		cfg.Storage.EmbeddingDim = y.Storage.EmbeddingDim
	}
	if y.Reasoner.Host != "" {
		cfg.Reasoner.Host = y.Reasoner.Host
	}
	if y.Reasoner.Port > 0 {
		cfg.Reasoner.Port = y.Reasoner.Port
	}
	if y.Reasoner.InferenceCycles > 0 {
		cfg.Reasoner.InferenceCycles = y.Reasoner.InferenceCycles
	}
	if y.Reasoner.InferenceTimeout != "" {
		if d, err := time.ParseDuration(y.Reasoner.InferenceTimeout); err == nil {
			cfg.Reasoner.InferenceTimeout = d
		}
	}
	if y.Logging.Level != "" {
		cfg.Logging.Level = y.Logging.Level
	}
	if y.Logging.Format != "" {
		cfg.Logging.Format = y.Logging.Format
	}

	return nil
}

// Validate rejects configurations that would fail later in confusing ways.
func (c *Config) Validate() error {
	if c.Storage.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive, got %d", cgerr.ErrConfigInvalid, c.Storage.EmbeddingDim)
	}
	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("%w: invalid http port %d", cgerr.ErrConfigInvalid, c.Server.HTTPPort)
	}
	sum := c.Retrieval.VectorWeight + c.Retrieval.GraphWeight + c.Retrieval.SymbolicWeight
	if sum <= 0 {
		return fmt.Errorf("%w: retrieval weights must sum to a positive value, got %.2f", cgerr.ErrConfigInvalid, sum)
	}
	if c.Feedback.MaxDepth < 0 {
		return fmt.Errorf("%w: feedback max depth cannot be negative", cgerr.ErrConfigInvalid)
	}
	if c.Feedback.MaxRetries <= 0 {
		return fmt.Errorf("%w: feedback max retries must be positive", cgerr.ErrConfigInvalid)
	}
	return nil
}

// String is a safe, one-line representation suitable for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{HTTP: %s:%d, DataDir: %s, EmbeddingDim: %d, Reasoner: %s:%d (enabled=%v), Weights: (%.2f,%.2f,%.2f)}",
		c.Server.HTTPAddress, c.Server.HTTPPort,
		c.Storage.DataDir, c.Storage.EmbeddingDim,
		c.Reasoner.Host, c.Reasoner.Port, c.Reasoner.Enabled,
		c.Retrieval.VectorWeight, c.Retrieval.GraphWeight, c.Retrieval.SymbolicWeight,
	)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
