package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/funcagent/logging"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderScripted  = "scripted"

	TokenizerNaive    = "naive"
	TokenizerTiktoken = "tiktoken"

	DefaultProvider         = ProviderOpenAI
	DefaultOpenAIModel      = "gpt-4o-mini"
	DefaultAnthropicModel   = "claude-3-5-haiku-latest"
	DefaultMaxFunctionCalls = 5
	DefaultTokenLimit       = 3000
	DefaultServiceName      = "funcagent"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of the YAML document.
type Config struct {
	Provider         string        `yaml:"provider"`
	Model            string        `yaml:"model"`
	APIKey           string        `yaml:"api_key"`
	BaseURL          string        `yaml:"base_url"`
	SystemPrompt     string        `yaml:"system_prompt"`
	MaxFunctionCalls int           `yaml:"max_function_calls"`
	Verbose          bool          `yaml:"verbose"`
	Memory           MemoryConfig  `yaml:"memory"`
	Log              LogConfig     `yaml:"log"`
	Tracing          TracingConfig `yaml:"tracing"`

	// Script holds the turns replayed by the scripted provider.
	Script []ScriptTurn `yaml:"script"`
}

// ScriptTurn is one scripted assistant turn: a final answer when Tool is
// empty, otherwise a call of Tool with Args.
type ScriptTurn struct {
	Content string         `yaml:"content"`
	Tool    string         `yaml:"tool"`
	Args    map[string]any `yaml:"args"`
}

type MemoryConfig struct {
	TokenLimit int    `yaml:"token_limit"`
	Tokenizer  string `yaml:"tokenizer"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TracingConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Endpoint    string            `yaml:"endpoint"`
	Insecure    bool              `yaml:"insecure"`
	ServiceName string            `yaml:"service_name"`
	Headers     map[string]string `yaml:"headers"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()

	return cfg
}

// Load reads path (when non-empty), applies environment overrides and
// defaults, and validates the result. A missing file is an error only when
// the path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(os.Getenv)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML into cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}

	return nil
}

// applyEnv overlays FUNCAGENT_* variables, then falls back to the provider
// key variables when no key is configured.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("FUNCAGENT_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := getenv("FUNCAGENT_MODEL"); v != "" {
		c.Model = v
	}
	if v := getenv("FUNCAGENT_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := getenv("FUNCAGENT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := getenv("FUNCAGENT_MAX_FUNCTION_CALLS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxFunctionCalls = n
		}
	}
	if v := getenv("FUNCAGENT_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Verbose = b
		}
	}
	if v := getenv("FUNCAGENT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if c.APIKey != "" {
		return
	}

	switch c.Provider {
	case ProviderAnthropic:
		c.APIKey = getenv("ANTHROPIC_API_KEY")
	case ProviderOpenAI, "":
		c.APIKey = getenv("OPENAI_API_KEY")
	}
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}

	if c.Model == "" {
		switch c.Provider {
		case ProviderOpenAI:
			c.Model = DefaultOpenAIModel
		case ProviderAnthropic:
			c.Model = DefaultAnthropicModel
		}
	}

	if c.MaxFunctionCalls == 0 {
		c.MaxFunctionCalls = DefaultMaxFunctionCalls
	}

	if c.Memory.TokenLimit == 0 {
		c.Memory.TokenLimit = DefaultTokenLimit
	}

	if c.Memory.Tokenizer == "" {
		c.Memory.Tokenizer = TokenizerTiktoken
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = DefaultServiceName
	}
}

// Validate reports the first problem found.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic:
		if c.APIKey == "" {
			return fmt.Errorf("%w: api key required for provider %s", ErrInvalidConfig, c.Provider)
		}
	case ProviderScripted:
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}

	if c.MaxFunctionCalls < 0 {
		return fmt.Errorf("%w: max_function_calls must not be negative", ErrInvalidConfig)
	}

	switch c.Memory.Tokenizer {
	case TokenizerNaive, TokenizerTiktoken:
	default:
		return fmt.Errorf("%w: unknown tokenizer %q", ErrInvalidConfig, c.Memory.Tokenizer)
	}

	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("%w: tracing endpoint required when tracing is enabled", ErrInvalidConfig)
	}

	return nil
}

// LoggerConfig maps the log section onto the logging package.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultLoggerConfig()
	lc.Level, _ = logging.ParseLevel(c.Log.Level)
	lc.Format = c.Log.Format

	return lc
}
