package cli

import (
	"testing"

	"github.com/BurntSushi/toml"
)

func TestConfigDecode(t *testing.T) {
	src := `
token = "abc123"
concurrency = 8
retries = 3
cache = "redis"
proactive_rps = 2.5

[redis]
addr = "cache.internal:6379"
db = 2
`
	var cfg Config
	if _, err := toml.Decode(src, &cfg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Token != "abc123" {
		t.Errorf("Token = %q", cfg.Token)
	}
	if cfg.Concurrency != 8 || cfg.Retries != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Cache != "redis" || cfg.Redis.Addr != "cache.internal:6379" || cfg.Redis.DB != 2 {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if cfg.ProactiveRPS != 2.5 {
		t.Errorf("ProactiveRPS = %v", cfg.ProactiveRPS)
	}
}

func TestApplyEnvTokenOverride(t *testing.T) {
	t.Setenv("FORGESTATS_TOKEN", "from-env")
	t.Setenv("GITHUB_TOKEN", "")

	cfg := Config{Token: "from-file"}
	applyEnv(&cfg)
	if cfg.Token != "from-env" {
		t.Errorf("Token = %q, want env override", cfg.Token)
	}
}

func TestApplyEnvGithubTokenFallback(t *testing.T) {
	t.Setenv("FORGESTATS_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "gh-token")

	// GITHUB_TOKEN only fills an empty token; it never overrides the file.
	cfg := Config{}
	applyEnv(&cfg)
	if cfg.Token != "gh-token" {
		t.Errorf("Token = %q, want GITHUB_TOKEN fallback", cfg.Token)
	}

	cfg = Config{Token: "from-file"}
	applyEnv(&cfg)
	if cfg.Token != "from-file" {
		t.Errorf("Token = %q, want file value kept", cfg.Token)
	}
}
