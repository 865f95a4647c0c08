// Package config provides configuration loading for relbump.
// Settings come from an optional .relbump.yaml, RELBUMP_* environment
// variables and defaults. A release policy stored in HashiCorp Vault may
// override the release settings.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/vault"
	"github.com/spf13/viper"
)

// Environment variable names.
const (
	// EnvLogLevel is the log level (debug, info, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"

	// EnvVaultReleasePolicyPath is the path in Vault KV where the release policy is stored.
	EnvVaultReleasePolicyPath = "VAULT_RELEASE_POLICY_PATH"

	// EnvVaultReleasePolicyMount is the Vault KV mount point (defaults to "secret").
	EnvVaultReleasePolicyMount = "VAULT_RELEASE_POLICY_MOUNT"
)

const (
	configName = ".relbump"
	configType = "yaml"
	envPrefix  = "RELBUMP"
)

// Default values.
const (
	DefaultLogLevel         = "info"
	DefaultLogAppName       = "relbump"
	DefaultEcosystem        = "auto"
	DefaultTagPrefix        = "v"
	DefaultStrategy         = "interactive"
	DefaultReleaseMessage   = "chore: release"
	DefaultVaultPolicyMount = "secret"
)

var (
	strategies = []string{"interactive", "minimum", "maximum"}
	ecosystems = []string{"auto", "cargo", "npm"}
)

// Configuration errors.
var (
	// ErrInvalidStrategy indicates release.strategy is not a known strategy.
	ErrInvalidStrategy = errors.New("invalid release strategy")

	// ErrInvalidEcosystem indicates ecosystem is not a supported manifest format.
	ErrInvalidEcosystem = errors.New("invalid ecosystem")

	// ErrReleasePolicyInvalid indicates the Vault release policy is not valid JSON.
	ErrReleasePolicyInvalid = errors.New("release policy is not valid JSON")

	// ErrVaultClientFailed indicates failure to create or authenticate with Vault.
	ErrVaultClientFailed = errors.New("failed to create Vault client")

	// ErrVaultSecretNotFound indicates the secret was not found in Vault.
	ErrVaultSecretNotFound = errors.New("release policy not found in Vault")
)

// VaultClient defines the interface for Vault operations.
// This interface allows for dependency injection and testing.
type VaultClient interface {
	// GetKVSecret retrieves a secret from Vault's KV v2 secrets engine.
	GetKVSecret(ctx context.Context, path, mount string) (map[string]interface{}, error)
}

// VaultClientFactory creates a VaultClient using AppRole authentication.
type VaultClientFactory func(ctx context.Context) (VaultClient, error)

// DefaultVaultClientFactory creates a VaultClient using goLibMyCarrier/vault with AppRole auth.
func DefaultVaultClientFactory(ctx context.Context) (VaultClient, error) {
	// Uses: VAULT_ADDRESS, VAULT_ROLE_ID, VAULT_SECRET_ID
	vaultConfig, err := vault.VaultLoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	client, err := vault.CreateVaultClient(ctx, vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	return client, nil
}

// Config holds all application configuration.
type Config struct {
	// Ecosystem selects the manifest format: auto, cargo or npm.
	Ecosystem string `mapstructure:"ecosystem"`

	// TagPrefix is stripped from tags before parsing them as versions.
	TagPrefix string `mapstructure:"tag_prefix"`

	Commits CommitsConfig `mapstructure:"commits"`
	Release ReleaseConfig `mapstructure:"release"`

	// LogLevel is the logging level (debug, info, error).
	LogLevel string `mapstructure:"-"`

	// LogAppName is the application name for log context.
	LogAppName string `mapstructure:"-"`
}

// CommitsConfig controls commit summary parsing.
type CommitsConfig struct {
	// Strict rejects summaries with surrounding whitespace, a trailing
	// period or an upper-case first word.
	Strict bool `mapstructure:"strict"`
}

// ReleaseConfig controls the bump command.
type ReleaseConfig struct {
	Strategy string `mapstructure:"strategy"`
	Commit   bool   `mapstructure:"commit"`
	Message  string `mapstructure:"message"`
}

// Options locate the configuration file.
type Options struct {
	// File is an explicit config file path. Empty searches Directory.
	File string

	// Directory is searched for .relbump.yaml when File is empty.
	Directory string
}

// Load loads the configuration with the default Vault client factory.
func Load(ctx context.Context, opts Options) (*Config, error) {
	return LoadWithVaultClient(ctx, opts, nil)
}

// LoadWithVaultClient loads configuration using the provided VaultClient factory.
// If vaultClientFactory is nil, DefaultVaultClientFactory is used. Vault is
// only contacted when VAULT_RELEASE_POLICY_PATH is set.
func LoadWithVaultClient(ctx context.Context, opts Options, vaultClientFactory VaultClientFactory) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		dir := opts.Directory
		if dir == "" {
			dir = "."
		}
		v.SetConfigName(configName)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if path := os.Getenv(EnvVaultReleasePolicyPath); path != "" {
		policy, err := loadReleasePolicyFromVault(ctx, vaultClientFactory, path)
		if err != nil {
			return nil, err
		}
		policy.apply(&cfg)
	}

	cfg.LogLevel = envOrDefault(EnvLogLevel, DefaultLogLevel)
	cfg.LogAppName = envOrDefault(EnvLogAppName, DefaultLogAppName)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("ecosystem", DefaultEcosystem)
	v.SetDefault("tag_prefix", DefaultTagPrefix)
	v.SetDefault("commits.strict", false)
	v.SetDefault("release.strategy", DefaultStrategy)
	v.SetDefault("release.commit", false)
	v.SetDefault("release.message", DefaultReleaseMessage)
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains(strategies, c.Release.Strategy) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidStrategy,
			c.Release.Strategy, strings.Join(strategies, ", "))
	}
	if !slices.Contains(ecosystems, c.Ecosystem) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidEcosystem,
			c.Ecosystem, strings.Join(ecosystems, ", "))
	}
	return nil
}

// releasePolicy is the Vault-managed override of the release settings.
// Absent fields keep the file/env value.
type releasePolicy struct {
	Strategy *string `json:"strategy"`
	Commit   *bool   `json:"commit"`
	Message  *string `json:"message"`
	Strict   *bool   `json:"strict"`
}

func (p *releasePolicy) apply(cfg *Config) {
	if p.Strategy != nil {
		cfg.Release.Strategy = *p.Strategy
	}
	if p.Commit != nil {
		cfg.Release.Commit = *p.Commit
	}
	if p.Message != nil {
		cfg.Release.Message = *p.Message
	}
	if p.Strict != nil {
		cfg.Commits.Strict = *p.Strict
	}
}

// loadReleasePolicyFromVault loads the release policy from Vault KV v2.
func loadReleasePolicyFromVault(
	ctx context.Context,
	vaultClientFactory VaultClientFactory,
	path string,
) (*releasePolicy, error) {
	if vaultClientFactory == nil {
		vaultClientFactory = DefaultVaultClientFactory
	}

	client, err := vaultClientFactory(ctx)
	if err != nil {
		return nil, err
	}

	mount := envOrDefault(EnvVaultReleasePolicyMount, DefaultVaultPolicyMount)

	secretData, err := client.GetKVSecret(ctx, path, mount)
	if err != nil {
		return nil, fmt.Errorf("%w at path %s: %w", ErrVaultSecretNotFound, path, err)
	}

	return parseReleasePolicy(secretData)
}

// parseReleasePolicy parses the policy from Vault secret data, either as a
// JSON string under a "config" key or as the secret map itself.
func parseReleasePolicy(secretData map[string]interface{}) (*releasePolicy, error) {
	if configStr, ok := secretData["config"].(string); ok {
		var policy releasePolicy
		if err := json.Unmarshal([]byte(configStr), &policy); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReleasePolicyInvalid, err)
		}
		return &policy, nil
	}

	jsonData, err := json.Marshal(secretData)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal secret data: %w", ErrReleasePolicyInvalid, err)
	}

	var policy releasePolicy
	if err := json.Unmarshal(jsonData, &policy); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReleasePolicyInvalid, err)
	}
	return &policy, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
