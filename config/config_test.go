package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/funcagent/logging"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "funcagent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_File(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	path := writeFile(t, `
provider: anthropic
api_key: sk-file
system_prompt: "You can use {{ join \", \" .tools }}."
max_function_calls: 3
verbose: true
memory:
  token_limit: 1000
  tokenizer: naive
log:
  level: debug
  format: json
tracing:
  enabled: true
  endpoint: localhost:4318
  insecure: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, DefaultAnthropicModel, cfg.Model)
	assert.Equal(t, "sk-file", cfg.APIKey)
	assert.Equal(t, 3, cfg.MaxFunctionCalls)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 1000, cfg.Memory.TokenLimit)
	assert.Equal(t, TokenizerNaive, cfg.Memory.Tokenizer)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, DefaultServiceName, cfg.Tracing.ServiceName)

	lc := cfg.LoggerConfig()
	assert.Equal(t, logging.LogLevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FUNCAGENT_API_KEY", "")
	t.Setenv("FUNCAGENT_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("FUNCAGENT_MAX_FUNCTION_CALLS", "7")
	t.Setenv("FUNCAGENT_MODEL", "gpt-4o")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.Equal(t, 7, cfg.MaxFunctionCalls)
}

func TestLoad_ExplicitKeyWins(t *testing.T) {
	t.Setenv("FUNCAGENT_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(writeFile(t, "api_key: sk-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeFile(t, "provider: scripted\nbogus: 1\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse config")
	})

	t.Run("missing api key", func(t *testing.T) {
		t.Setenv("FUNCAGENT_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "")

		_, err := Load(writeFile(t, "provider: openai\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"scripted defaults", func(c *Config) {}, true},
		{"unknown provider", func(c *Config) { c.Provider = "cohere" }, false},
		{"negative ceiling", func(c *Config) { c.MaxFunctionCalls = -1 }, false},
		{"unknown tokenizer", func(c *Config) { c.Memory.Tokenizer = "bpe" }, false},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, false},
		{"tracing without endpoint", func(c *Config) { c.Tracing.Enabled = true }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: ProviderScripted}
			cfg.ApplyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, Parse(nil, cfg))
	assert.Equal(t, Config{}, *cfg)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultProvider, cfg.Provider)
	assert.Equal(t, DefaultOpenAIModel, cfg.Model)
	assert.Equal(t, DefaultMaxFunctionCalls, cfg.MaxFunctionCalls)
	assert.Equal(t, DefaultTokenLimit, cfg.Memory.TokenLimit)
	assert.Equal(t, TokenizerTiktoken, cfg.Memory.Tokenizer)
}

func TestParse_Script(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, Parse([]byte(`
provider: scripted
script:
  - tool: add
    args: {a: 2, b: 3}
  - content: "5"
`), cfg))

	require.Len(t, cfg.Script, 2)
	assert.Equal(t, "add", cfg.Script[0].Tool)
	assert.Equal(t, 2, cfg.Script[0].Args["a"])
	assert.Equal(t, "5", cfg.Script[1].Content)
}
