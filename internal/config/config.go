package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting of the assistant.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Resolver ResolverConfig
	Catalog  CatalogConfig
	Tickets  TicketsConfig
	Session  SessionConfig
	LogLevel string
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	resolverCfg, err := loadResolverConfig()
	if err != nil {
		return nil, err
	}

	sessionCfg, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Resolver: resolverCfg,
		Catalog:  CatalogConfig{Path: getEnvOrDefault("CATALOG_PATH", "data/catalog.json")},
		Tickets:  TicketsConfig{DBPath: strings.TrimSpace(os.Getenv("TICKETS_DB_PATH"))},
		Session:  sessionCfg,
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the language-understanding backend.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present. Without them
// the assistant runs on heuristics only.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates the Ark chat model from this configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("missing Ark credentials or model: provide ARK_API_KEY + ARK_MODEL, or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// ResolverConfig tunes intent-resolution policy.
type ResolverConfig struct {
	ConfidenceThreshold float64
	Timeout             time.Duration
}

func loadResolverConfig() (ResolverConfig, error) {
	cfg := ResolverConfig{
		ConfidenceThreshold: 0.6,
		Timeout:             10 * time.Second,
	}

	if threshold, err := parseOptionalFloatEnv("RESOLVER_CONFIDENCE_THRESHOLD"); err != nil {
		return ResolverConfig{}, err
	} else if threshold != nil {
		if *threshold < 0 || *threshold > 1 {
			return ResolverConfig{}, fmt.Errorf("RESOLVER_CONFIDENCE_THRESHOLD must be between 0 and 1, got %v", *threshold)
		}
		cfg.ConfidenceThreshold = *threshold
	}

	if seconds, err := parseOptionalIntEnv("RESOLVER_TIMEOUT_SECONDS"); err != nil {
		return ResolverConfig{}, err
	} else if seconds != nil {
		if *seconds < 1 {
			return ResolverConfig{}, fmt.Errorf("RESOLVER_TIMEOUT_SECONDS must be positive, got %d", *seconds)
		}
		cfg.Timeout = time.Duration(*seconds) * time.Second
	}

	return cfg, nil
}

// CatalogConfig locates the catalog document.
type CatalogConfig struct {
	Path string
}

// TicketsConfig selects the ticket persistence medium. An empty DBPath keeps
// tickets in memory.
type TicketsConfig struct {
	DBPath string
}

// SessionConfig tunes per-conversation state.
type SessionConfig struct {
	HistoryLimit int
}

func loadSessionConfig() (SessionConfig, error) {
	cfg := SessionConfig{HistoryLimit: 20}
	if limit, err := parseOptionalIntEnv("SESSION_HISTORY_LIMIT"); err != nil {
		return SessionConfig{}, err
	} else if limit != nil {
		if *limit < 1 {
			return SessionConfig{}, fmt.Errorf("SESSION_HISTORY_LIMIT must be positive, got %d", *limit)
		}
		cfg.HistoryLimit = *limit
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
