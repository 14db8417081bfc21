package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type (
	Config struct {
		Language     string `toml:"language"`
		GeminiAPIKey string `toml:"gemini_api_key,omitempty"`
		GitHubToken  string `toml:"github_token,omitempty"`

		Repository RepositoryConfig `toml:"repository"`
		Collector  CollectorConfig  `toml:"collector"`
		AI         AIConfig         `toml:"ai"`
		Grading    GradingConfig    `toml:"grading"`
		Storage    StorageConfig    `toml:"storage"`
		Metrics    MetricsConfig    `toml:"metrics"`

		PathFile string `toml:"-"`
	}

	RepositoryConfig struct {
		Strategy     string   `toml:"strategy"` // "clone" or "contents"
		CloneTimeout Duration `toml:"clone_timeout"`
	}

	CollectorConfig struct {
		Extension string   `toml:"extension"`
		Include   []string `toml:"include"`
	}

	AIConfig struct {
		Provider       string   `toml:"provider"`
		Model          string   `toml:"model"`
		MaxPromptChars int      `toml:"max_prompt_chars"`
		Timeout        Duration `toml:"timeout"`
		Temperature    float32  `toml:"temperature"`
		// CacheTTL keeps model responses for identical prompts; 0 disables the cache.
		CacheTTL Duration `toml:"cache_ttl"`
		CacheDir string   `toml:"cache_dir"`
	}

	GradingConfig struct {
		// MaxModelDeduction caps every model deduction; 0 disables the cap.
		MaxModelDeduction int `toml:"max_model_deduction"`
	}

	StorageConfig struct {
		Path string `toml:"path"`
	}

	MetricsConfig struct {
		Textfile string `toml:"textfile"`
	}
)

const (
	StrategyClone    = "clone"
	StrategyContents = "contents"

	defaultLang           = "en"
	defaultCloneTimeout   = 60 * time.Second
	defaultExtension      = ".java"
	defaultProvider       = "gemini"
	defaultModel          = "gemini-1.5-flash"
	defaultMaxPromptChars = 20000
	defaultAITimeout      = 120 * time.Second

	configDirName  = ".mate-grade"
	configFileName = "config.toml"
)

// Environment overrides, applied after the file is read.
const (
	EnvGeminiAPIKey = "MATEGRADE_GEMINI_API_KEY"
	EnvGitHubToken  = "MATEGRADE_GITHUB_TOKEN"
	EnvDBPath       = "MATEGRADE_DB_PATH"
)

// LoadConfig reads the config at path. A path without the .toml extension is
// treated as a home directory holding .mate-grade/config.toml. A missing file
// is created with defaults.
func LoadConfig(path string) (*Config, error) {
	configPath := path
	if filepath.Ext(path) != ".toml" {
		configPath = filepath.Join(path, configDirName, configFileName)
	}

	if _, err := os.Stat(configPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error checking config file: %w", err)
		}
		cfg, err := CreateDefaultConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg.applyEnv()
		return cfg, nil
	}

	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	cfg.PathFile = configPath
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loaded configuration is invalid: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Language: defaultLang,
		Repository: RepositoryConfig{
			Strategy:     StrategyClone,
			CloneTimeout: Duration{defaultCloneTimeout},
		},
		Collector: CollectorConfig{
			Extension: defaultExtension,
			Include:   []string{},
		},
		AI: AIConfig{
			Provider:       defaultProvider,
			Model:          defaultModel,
			MaxPromptChars: defaultMaxPromptChars,
			Timeout:        Duration{defaultAITimeout},
			CacheDir:       filepath.Join("~", configDirName, "cache"),
		},
		Storage: StorageConfig{
			Path: filepath.Join("~", configDirName, "grades.db"),
		},
	}
}

func CreateDefaultConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.PathFile = path

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	if err := SaveConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration to save is invalid: %w", err)
	}

	if cfg.PathFile == "" {
		return errors.New("config file path is not set")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	if err := os.WriteFile(cfg.PathFile, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Language == "" {
		return errors.New("language cannot be empty")
	}
	switch c.Repository.Strategy {
	case StrategyClone, StrategyContents:
	default:
		return fmt.Errorf("unknown repository strategy %q", c.Repository.Strategy)
	}
	if c.Repository.CloneTimeout.Duration <= 0 {
		return errors.New("repository.clone_timeout must be greater than 0")
	}
	if strings.Trim(c.Collector.Extension, ".") == "" {
		return errors.New("collector.extension cannot be empty")
	}
	if c.AI.Provider == "" {
		return errors.New("ai.provider cannot be empty")
	}
	if c.AI.MaxPromptChars <= 0 {
		return errors.New("ai.max_prompt_chars must be greater than 0")
	}
	if c.AI.Timeout.Duration <= 0 {
		return errors.New("ai.timeout must be greater than 0")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return errors.New("ai.temperature must be between 0 and 2")
	}
	if c.AI.CacheTTL.Duration < 0 {
		return errors.New("ai.cache_ttl cannot be negative")
	}
	if c.Grading.MaxModelDeduction < 0 {
		return errors.New("grading.max_model_deduction cannot be negative")
	}
	if c.Storage.Path == "" {
		return errors.New("storage.path cannot be empty")
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvGeminiAPIKey); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv(EnvGitHubToken); v != "" {
		c.GitHubToken = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Storage.Path = v
	}
}

// DatabasePath returns storage.path with a leading ~ expanded.
func (c *Config) DatabasePath() (string, error) {
	return ExpandHome(c.Storage.Path)
}

func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
