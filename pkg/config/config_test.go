package config

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/bigneek/primeflare/pkg/sieve"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SegmentSize != sieve.DefaultSegmentSize {
		t.Errorf("SegmentSize = %d, want %d", cfg.SegmentSize, sieve.DefaultSegmentSize)
	}
	if cfg.LogLevel != zapcore.InfoLevel {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.R2Bucket != DefaultBucket {
		t.Errorf("R2Bucket = %q, want %q", cfg.R2Bucket, DefaultBucket)
	}
	if cfg.HasR2() {
		t.Error("HasR2 = true with no credentials")
	}
	if cfg.QuotaMaxIndex != DefaultQuotaMaxIndex || cfg.QuotaMaxRequests != 0 {
		t.Errorf("quota = %d/%d, want %d/unlimited", cfg.QuotaMaxIndex, cfg.QuotaMaxRequests, DefaultQuotaMaxIndex)
	}
}

func TestFromEnvQuotaZeroIsUnlimited(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"QUOTA_MAX_INDEX": "0"}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.QuotaMaxIndex != 0 {
		t.Errorf("QuotaMaxIndex = %d, want 0", cfg.QuotaMaxIndex)
	}
}

func TestFromEnvValues(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"SIEVE_SEGMENT_SIZE":    "65_536",
		"LOG_LEVEL":             "debug",
		"CLOUDFLARE_ACCOUNT_ID": "acct",
		"R2_ACCESS_KEY_ID":      "ak",
		"R2_SECRET_ACCESS_KEY":  "sk",
		"R2_BUCKET":             "primes",
		"QUOTA_MAX_INDEX":       "2_500_000",
		"QUOTA_MAX_REQUESTS":    "50",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SegmentSize != 65_536 || cfg.LogLevel != zapcore.DebugLevel {
		t.Errorf("SegmentSize = %d, LogLevel = %v", cfg.SegmentSize, cfg.LogLevel)
	}
	if !cfg.HasR2() || cfg.R2Bucket != "primes" {
		t.Errorf("R2 config = %+v", cfg)
	}
	if cfg.QuotaMaxIndex != 2_500_000 || cfg.QuotaMaxRequests != 50 {
		t.Errorf("quota = %d/%d", cfg.QuotaMaxIndex, cfg.QuotaMaxRequests)
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SIEVE_SEGMENT_SIZE", "lots"},
		{"SIEVE_SEGMENT_SIZE", "0"},
		{"SIEVE_SEGMENT_SIZE", "-10"},
		{"LOG_LEVEL", "chatty"},
		{"QUOTA_MAX_INDEX", "-1"},
		{"QUOTA_MAX_REQUESTS", "1e3"},
	}
	for _, tt := range tests {
		_, err := FromEnv(env(map[string]string{tt.key: tt.value}))
		if err == nil {
			t.Errorf("%s=%q accepted", tt.key, tt.value)
			continue
		}
		if !strings.Contains(err.Error(), tt.key) {
			t.Errorf("%s=%q error %q does not name the key", tt.key, tt.value, err)
		}
	}
}

func TestNewLogger(t *testing.T) {
	cfg, _ := FromEnv(env(map[string]string{"LOG_LEVEL": "warn"}))
	logger, err := cfg.NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info enabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error disabled at warn level")
	}
}
