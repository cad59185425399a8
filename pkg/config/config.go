// Package config loads runtime settings from the environment (and .env).
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bigneek/primeflare/pkg/sieve"
)

const (
	// DefaultBucket is used when R2_BUCKET is unset.
	DefaultBucket = "prime-flare"
	// DefaultQuotaMaxIndex is used when QUOTA_MAX_INDEX is unset. It keeps
	// a single bot request under a couple of seconds. Set it to 0 for no limit.
	DefaultQuotaMaxIndex = 10_000_000
)

// Config holds everything the CLI and bot need.
type Config struct {
	SegmentSize int
	LogLevel    zapcore.Level

	AccountID   string
	R2AccessKey string
	R2SecretKey string
	R2Bucket    string

	TelegramToken string

	QuotaMaxIndex    int64
	QuotaMaxRequests int64
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		SegmentSize:   sieve.DefaultSegmentSize,
		LogLevel:      zapcore.InfoLevel,
		AccountID:     getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKey:   getenv("R2_ACCESS_KEY_ID"),
		R2SecretKey:   getenv("R2_SECRET_ACCESS_KEY"),
		R2Bucket:      getenv("R2_BUCKET"),
		TelegramToken: getenv("TELEGRAM_BOT_TOKEN"),
	}
	if cfg.R2Bucket == "" {
		cfg.R2Bucket = DefaultBucket
	}

	if v := getenv("SIEVE_SEGMENT_SIZE"); v != "" {
		n, err := strconv.Atoi(strings.ReplaceAll(v, "_", ""))
		if err != nil {
			return Config{}, fmt.Errorf("SIEVE_SEGMENT_SIZE: %w", err)
		}
		if n <= 0 || n > sieve.MaxSegmentSize {
			return Config{}, fmt.Errorf("SIEVE_SEGMENT_SIZE: %d out of range (1..%d)", n, sieve.MaxSegmentSize)
		}
		cfg.SegmentSize = n
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		lvl, err := zapcore.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}

	var err error
	if cfg.QuotaMaxIndex, err = parseLimit(getenv, "QUOTA_MAX_INDEX", DefaultQuotaMaxIndex); err != nil {
		return Config{}, err
	}
	if cfg.QuotaMaxRequests, err = parseLimit(getenv, "QUOTA_MAX_REQUESTS", 0); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseLimit reads a non-negative limit. Unset yields def; 0 means unlimited.
func parseLimit(getenv func(string) string, key string, def int64) (int64, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(v, "_", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return n, nil
}

// HasR2 reports whether R2 credentials are complete.
func (c Config) HasR2() bool {
	return c.AccountID != "" && c.R2AccessKey != "" && c.R2SecretKey != ""
}

// NewLogger builds a production zap logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}
