package common

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	ProviderTypeOpenAI           = "openai"
	ProviderTypeAnthropic        = "anthropic"
	ProviderTypeGoogle           = "google"
	ProviderTypeOpenAICompatible = "openai_compatible"
)

// ValidProviderTypes are the provider integrations a server can be started with
var ValidProviderTypes = []string{ProviderTypeOpenAI, ProviderTypeAnthropic, ProviderTypeGoogle, ProviderTypeOpenAICompatible}

const defaultProviderTimeout = 10 * time.Minute

// ConfigFileCandidates are looked up in order inside the config directory
var ConfigFileCandidates = []string{"config.yml", "config.yaml", "config.toml", "config.json"}

type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	AllowedOrigins  []string `koanf:"allowed_origins"`
	CompleteWorkers int      `koanf:"complete_workers"`
}

// ProviderConfig describes the single LLM provider integration a server
// relays to.
type ProviderConfig struct {
	Type string `koanf:"type"`
	// Name is used to look up the <NAME>_API_KEY secret; defaults to Type.
	Name        string        `koanf:"name"`
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	MaxTokens   int           `koanf:"max_tokens"`
	Temperature *float64      `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`
}

func (c ProviderConfig) ProviderName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Type
}

func (c ProviderConfig) NormalizedProviderName() string {
	return strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(c.ProviderName(), " ", "_"), "-", "_"))
}

// SecretName is the secret holding this provider's API key.
func (c ProviderConfig) SecretName() string {
	return fmt.Sprintf("%s_API_KEY", c.NormalizedProviderName())
}

func (c ProviderConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if !slices.Contains(ValidProviderTypes, c.Type) {
		return fmt.Errorf("invalid provider type: %s", c.Type)
	}
	if c.Type == ProviderTypeOpenAICompatible && c.BaseURL == "" {
		return fmt.Errorf("base_url is required for %s providers", ProviderTypeOpenAICompatible)
	}
	if c.Type == ProviderTypeOpenAICompatible && c.Model == "" {
		return fmt.Errorf("model is required for %s providers", ProviderTypeOpenAICompatible)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// LocalConfig represents the config file structure
type LocalConfig struct {
	Server        ServerConfig   `koanf:"server"`
	Provider      ProviderConfig `koanf:"provider"`
	SecretManager string         `koanf:"secret_manager"`
}

func DefaultConfig() LocalConfig {
	return LocalConfig{
		Server: ServerConfig{
			Host: defaultServerHost,
			Port: defaultServerPort,
		},
		Provider: ProviderConfig{
			Type:    ProviderTypeOpenAI,
			Timeout: defaultProviderTimeout,
		},
		SecretManager: "env",
	}
}

func (c LocalConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.CompleteWorkers < 0 {
		return fmt.Errorf("complete_workers must not be negative")
	}
	if err := c.Provider.Validate(); err != nil {
		return fmt.Errorf("invalid provider config: %w", err)
	}
	if !slices.Contains([]string{"env", "keyring", "mock"}, c.SecretManager) {
		return fmt.Errorf("invalid secret_manager: %s", c.SecretManager)
	}
	return nil
}

// LoadConfig reads the config file at configPath on top of the defaults, then
// applies environment overrides. A missing file is not an error.
func LoadConfig(configPath string) (LocalConfig, error) {
	config := DefaultConfig()

	if configPath != "" {
		_, err := os.Stat(configPath)
		switch {
		case err == nil:
			if err := loadConfigFile(configPath, &config); err != nil {
				return LocalConfig{}, err
			}
		case !os.IsNotExist(err):
			return LocalConfig{}, fmt.Errorf("error reading config %s: %w", configPath, err)
		}
	}

	if err := applyEnvOverrides(&config); err != nil {
		return LocalConfig{}, err
	}

	if err := config.Validate(); err != nil {
		return LocalConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func loadConfigFile(configPath string, config *LocalConfig) error {
	parser := GetParserForExtension(configPath)
	if parser == nil {
		return fmt.Errorf("unsupported config file extension: %s", configPath)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath), parser); err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := k.Unmarshal("", config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	return nil
}

func applyEnvOverrides(config *LocalConfig) error {
	config.Server.Host = GetServerHost(config.Server.Host)
	port, err := GetServerPort(config.Server.Port)
	if err != nil {
		return err
	}
	config.Server.Port = port
	if origins := GetAllowedOriginsEnv(); origins != "" {
		config.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	if providerType := os.Getenv("CHATRELAY_PROVIDER"); providerType != "" {
		config.Provider.Type = providerType
	}
	if model := os.Getenv("CHATRELAY_MODEL"); model != "" {
		config.Provider.Model = model
	}
	if baseURL := os.Getenv("CHATRELAY_BASE_URL"); baseURL != "" {
		config.Provider.BaseURL = baseURL
	}
	if sm := os.Getenv("CHATRELAY_SECRET_MANAGER"); sm != "" {
		config.SecretManager = sm
	}
	return nil
}

// DiscoverConfigFile returns the first of candidates that exists in dir, or
// "" when none do.
func DiscoverConfigFile(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// GetParserForExtension returns the koanf parser for a config file path, or
// nil for unsupported extensions.
func GetParserForExtension(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yaml.Parser()
	case ".toml":
		return toml.Parser()
	case ".json":
		return json.Parser()
	default:
		return nil
	}
}

// GetDefaultConfigPath returns CHATRELAY_CONFIG if set, otherwise the first
// config file found in the XDG config directory, falling back to config.yaml
// there.
func GetDefaultConfigPath() string {
	if path := os.Getenv("CHATRELAY_CONFIG"); path != "" {
		return path
	}
	dir := filepath.Join(xdg.ConfigHome, "chatrelay")
	if found := DiscoverConfigFile(dir, ConfigFileCandidates); found != "" {
		return found
	}
	return filepath.Join(dir, "config.yaml")
}
