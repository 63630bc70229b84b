// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds feedguard settings. Binaries use these values as flag defaults.
type Config struct {
	Stream     StreamConfig
	Moderation ModerationConfig
	Storage    StorageConfig
	NATS       NATSConfig
	HTTP       HTTPConfig
}

// StreamConfig selects the token stream endpoint.
type StreamConfig struct {
	URL         string // full ws(s) URL; overrides Host/Secure
	Host        string
	Secure      bool
	RPCEndpoint string // Solana RPC for on-chain uri lookup; empty disables
}

// ModerationConfig configures the remote check and the proxy upstream.
type ModerationConfig struct {
	RemoteURL     string // proxy endpoint used by the pipeline
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	BlocklistPath string
	RedisURL      string // shared verdict cache; empty means in-process
}

// StorageConfig selects the decision log backend.
type StorageConfig struct {
	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool
}

// NATSConfig enables feed fan-out when URL is set.
type NATSConfig struct {
	URL string
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
	ProxyRPS       float64
	ProxyBurst     int
	ShutdownGrace  time.Duration
}

// Load reads the environment. Malformed numeric or boolean values are errors.
func Load() (*Config, error) {
	secure, err := getEnvBool("STREAM_SECURE", false)
	if err != nil {
		return nil, fmt.Errorf("invalid STREAM_SECURE: %w", err)
	}
	useMemory, err := getEnvBool("USE_MEMORY", false)
	if err != nil {
		return nil, fmt.Errorf("invalid USE_MEMORY: %w", err)
	}
	proxyRPS, err := getEnvFloat("PROXY_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid PROXY_RPS: %w", err)
	}
	proxyBurst, err := getEnvInt("PROXY_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid PROXY_BURST: %w", err)
	}
	grace, err := getEnvDuration("SHUTDOWN_GRACE", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_GRACE: %w", err)
	}

	return &Config{
		Stream: StreamConfig{
			URL:         getEnv("STREAM_URL", ""),
			Host:        getEnv("STREAM_HOST", "localhost"),
			Secure:      secure,
			RPCEndpoint: getEnv("SOLANA_RPC_ENDPOINT", ""),
		},
		Moderation: ModerationConfig{
			RemoteURL:     getEnv("MODERATION_URL", "http://localhost:3000/api/moderate"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("OPENAI_MODERATION_MODEL", ""),
			BlocklistPath: getEnv("BLOCKLIST_PATH", ""),
			RedisURL:      getEnv("REDIS_URL", ""),
		},
		Storage: StorageConfig{
			PostgresDSN:   getEnv("POSTGRES_DSN", ""),
			ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),
			UseMemory:     useMemory,
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		HTTP: HTTPConfig{
			Addr:           getEnv("HTTP_ADDR", ":3000"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
			ProxyRPS:       proxyRPS,
			ProxyBurst:     proxyBurst,
			ShutdownGrace:  grace,
		},
	}, nil
}

// LoadEnvFile sets variables from a KEY=VALUE file. Existing variables win;
// a missing file is not an error.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
