package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"

	"thronebutt-scraper/internal/locator"
)

const DefaultFile = "thronebutt.json5"

type Config struct {
	BaseURL          string        `json:"base_url"`
	UserAgent        string        `json:"user_agent"`
	FetchTimeout     time.Duration `json:"-"`
	FetchTimeoutRaw  string        `json:"fetch_timeout"`
	DialTimeout      time.Duration `json:"-"`
	SizeCap          int64         `json:"size_cap"`
	MaxPages         int           `json:"max_pages"`
	PageRate         float64       `json:"page_rate"`
	HTTPAddr         string        `json:"http_addr"`
	BatchConcurrency int           `json:"batch_concurrency"`
	LogLevel         string        `json:"log_level"`
	LogFormat        string        `json:"log_format"`
	LogFile          string        `json:"log_file"`
}

func defaults() Config {
	return Config{
		BaseURL:          locator.DefaultBaseURL,
		FetchTimeout:     15 * time.Second,
		DialTimeout:      5 * time.Second,
		SizeCap:          5 * 1024 * 1024,
		MaxPages:         200,
		PageRate:         2,
		HTTPAddr:         ":8080",
		BatchConcurrency: 4,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load builds the configuration from defaults, then the optional json5
// file (and its .local override), then .env and the process environment.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path == "" {
		path = DefaultFile
	}
	fileCfg, err := ReadConfig[Config](path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return cfg, err
		}
		if cfg.FetchTimeoutRaw != "" {
			d, err := time.ParseDuration(cfg.FetchTimeoutRaw)
			if err != nil {
				return cfg, fmt.Errorf("fetch_timeout: %w", err)
			}
			cfg.FetchTimeout = d
		}
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg.BaseURL = getEnv("THRONEBUTT_BASE_URL", cfg.BaseURL)
	cfg.UserAgent = getEnv("USER_AGENT", cfg.UserAgent)
	cfg.FetchTimeout = getDuration("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.SizeCap = int64(getInt("SIZE_CAP", int(cfg.SizeCap)))
	cfg.MaxPages = getInt("MAX_PAGES", cfg.MaxPages)
	cfg.PageRate = getFloat("PAGE_RATE", cfg.PageRate)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.BatchConcurrency = getInt("BATCH_CONCURRENCY", cfg.BatchConcurrency)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	if cfg.BatchConcurrency < 1 {
		cfg.BatchConcurrency = 1
	}
	return cfg, nil
}

func splitExt(f string) (string, string) {
	ext := filepath.Ext(f)
	return strings.TrimSuffix(f, ext), strings.TrimPrefix(ext, ".")
}

// ReadConfig reads <name>.<ext> and merges <name>.local.<ext> over it. It
// returns os.ErrNotExist only when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	allNotFound := true

	prefix, ext := splitExt(name)

	defaultFile, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(defaultFile) > 0 {
		if err := json5.Unmarshal(defaultFile, &out); err != nil {
			return out, err
		}
		allNotFound = false
	}

	localPath := fmt.Sprintf("%s.local.%s", prefix, ext)
	localFile, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localFile) > 0 {
		var override T
		if err := json5.Unmarshal(localFile, &override); err != nil {
			return out, err
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid integer setting", "key", key, "value", raw, "error", err)
		return defaultVal
	}
	return v
}

func getFloat(key string, defaultVal float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("Invalid number setting", "key", key, "value", raw, "error", err)
		return defaultVal
	}
	return v
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultVal
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("Invalid duration setting", "key", key, "value", raw, "error", err)
		return defaultVal
	}
	return v
}
