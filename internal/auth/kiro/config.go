package kiro

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultTimeout = 30 * time.Second

// Config holds the upstream endpoints and local paths the provider talks to.
// Everything has a working default; a YAML file or env vars override.
type Config struct {
	SocialTokenURL     string `yaml:"social_token_url"`
	SocialClientID     string `yaml:"social_client_id"`
	SocialClientSecret string `yaml:"social_client_secret"`
	OIDCEndpoint       string `yaml:"oidc_endpoint"` // %s is the account region
	UsageURL           string `yaml:"usage_url"`
	TokenCachePath     string `yaml:"token_cache_path"`
	MachineIDPath      string `yaml:"machine_id_path"`
	Timeout            string `yaml:"timeout"`
	RefreshRateLimit   int    `yaml:"refresh_rate_limit"` // requests per second against token endpoints
}

// DefaultConfig returns the built-in endpoints and cache locations.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		SocialTokenURL:   "https://prod.us-east-1.auth.desktop.kiro.dev/oauth/token",
		OIDCEndpoint:     "https://oidc.%s.amazonaws.com/token",
		UsageURL:         "https://codewhisperer.us-east-1.amazonaws.com/getUsageLimits",
		TokenCachePath:   filepath.Join(home, ".aws", "sso", "cache", "kiro-auth-token.json"),
		MachineIDPath:    filepath.Join(home, ".aws", "sso", "cache", "kiro-machine-id"),
		RefreshRateLimit: 5,
	}
}

// LoadConfig reads the provider config file, falling back to defaults when no
// file exists. SWITCHBOARD_PROVIDER_CONFIG points at an explicit file;
// otherwise a short candidate list is probed.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	path, err := resolveConfigPath()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

func resolveConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("SWITCHBOARD_PROVIDER_CONFIG")); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}

	candidates := []string{
		"config/kiro_provider.yaml",
		"/etc/switchboard/kiro_provider.yaml",
	}
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		candidates = append(candidates,
			filepath.Join(homeDir, ".config", "switchboard", "kiro_provider.yaml"),
		)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// timeout parses the configured request timeout, falling back to the default.
func (c Config) timeout() time.Duration {
	if raw := strings.TrimSpace(c.Timeout); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultTimeout
}
