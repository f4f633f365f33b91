// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 0.7, cfg.Compose.Temperature)
	assert.Equal(t, 4096, cfg.Stream.BufferSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "composekit.yaml")

	yamlContent := `
compose:
  temperature: 0.2
  retries: 2
  redact: false

stream:
  buffer_size: 1024
  json_detection: false

provider:
  name: openai
  base_url: http://localhost:11434
  model: llama3
  timeout: 45s
  requests_per_second: 2.5

audit:
  enabled: true
  driver: redis
  redis:
    addr: redis:6379
    stream: attempts

log:
  level: debug
  format: console
  output_paths:
    - stdout
    - /var/log/composekit.log
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 0.2, cfg.Compose.Temperature)
	assert.Equal(t, 2, cfg.Compose.Retries)
	assert.False(t, cfg.Compose.Redact)

	assert.Equal(t, 1024, cfg.Stream.BufferSize)
	assert.False(t, cfg.Stream.JSONDetection)

	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, "llama3", cfg.Provider.Model)
	assert.Equal(t, 45*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 2.5, cfg.Provider.RequestsPerSecond)

	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, "redis", cfg.Audit.Driver)
	assert.Equal(t, "redis:6379", cfg.Audit.Redis.Addr)
	assert.Equal(t, "attempts", cfg.Audit.Redis.Stream)
	// 未出现在 YAML 中的字段保留默认值
	assert.Equal(t, int64(10000), cfg.Audit.Redis.MaxLen)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"stdout", "/var/log/composekit.log"}, cfg.Log.OutputPaths)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromEnv(t *testing.T) {
	envVars := map[string]string{
		"COMPOSEKIT_COMPOSE_TEMPERATURE":         "0.9",
		"COMPOSEKIT_COMPOSE_RETRIES":             "3",
		"COMPOSEKIT_STREAM_BUFFER_SIZE":          "512",
		"COMPOSEKIT_PROVIDER_NAME":               "openai",
		"COMPOSEKIT_PROVIDER_API_KEY":            "sk-test",
		"COMPOSEKIT_PROVIDER_TIMEOUT":            "10s",
		"COMPOSEKIT_AUDIT_DATABASE_NAME":         "/tmp/audit.db",
		"COMPOSEKIT_LOG_OUTPUT_PATHS":            "stdout, stderr",
		"COMPOSEKIT_METRICS_ENABLED":             "true",
		"COMPOSEKIT_TELEMETRY_SAMPLE_RATE":       "0.25",
		"COMPOSEKIT_PROVIDER_REQUESTS_PER_SECOND": "4",
	}
	for k, v := range envVars {
		t.Setenv(k, v)
	}

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Compose.Temperature)
	assert.Equal(t, 3, cfg.Compose.Retries)
	assert.Equal(t, 512, cfg.Stream.BufferSize)
	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, "sk-test", cfg.Provider.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 4.0, cfg.Provider.RequestsPerSecond)
	assert.Equal(t, "/tmp/audit.db", cfg.Audit.Database.Name)
	assert.Equal(t, []string{"stdout", "stderr"}, cfg.Log.OutputPaths)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRate)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "composekit.yaml")

	yamlContent := `
compose:
  retries: 1
provider:
  model: yaml-model
  base_url: http://yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("COMPOSEKIT_COMPOSE_RETRIES", "2")
	t.Setenv("COMPOSEKIT_PROVIDER_MODEL", "env-model")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Compose.Retries)
	assert.Equal(t, "env-model", cfg.Provider.Model)
	assert.Equal(t, "http://yaml", cfg.Provider.BaseURL)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_PROVIDER_MODEL", "custom-model")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, "custom-model", cfg.Provider.Model)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("COMPOSEKIT_COMPOSE_RETRIES", "many")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMPOSEKIT_COMPOSE_RETRIES")
}

func TestLoader_WithValidator(t *testing.T) {
	t.Setenv("COMPOSEKIT_COMPOSE_TEMPERATURE", "1.5")

	_, err := NewLoader().
		WithValidator(func(cfg *Config) error { return cfg.Validate() }).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature must be between 0 and 1")
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/non/existent/path/composekit.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Compose, cfg.Compose)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("compose:\n  retries: [invalid\n"), 0644))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"temperature too high", func(c *Config) { c.Compose.Temperature = 1.1 }, "temperature"},
		{"negative temperature", func(c *Config) { c.Compose.Temperature = -0.1 }, "temperature"},
		{"too many retries", func(c *Config) { c.Compose.Retries = 4 }, "retries"},
		{"negative max tokens", func(c *Config) { c.Compose.MaxTokens = -1 }, "max_tokens"},
		{"zero buffer", func(c *Config) { c.Stream.BufferSize = 0 }, "buffer_size"},
		{"unknown provider", func(c *Config) { c.Provider.Name = "bard" }, "unknown provider"},
		{"unknown audit driver", func(c *Config) { c.Audit.Enabled = true; c.Audit.Driver = "csv" }, "audit driver"},
		{"disabled audit ignores driver", func(c *Config) { c.Audit.Driver = "csv" }, ""},
		{"redis without addr", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.Driver = "redis"
			c.Audit.Redis.Addr = ""
		}, "redis addr"},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestComposeConfig_Options(t *testing.T) {
	opts := ComposeConfig{Temperature: 0.3, MaxTokens: 256, Retries: 2}.Options()
	assert.Equal(t, 0.3, opts.Temperature)
	assert.Equal(t, 256, opts.MaxTokens)
	assert.Equal(t, 2, opts.Retries)
	assert.Nil(t, opts.Schema)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "postgres DSN",
			config: DatabaseConfig{
				Driver: "postgres", Host: "localhost", Port: 5432,
				User: "user", Password: "pass", Name: "dbname", SSLMode: "disable",
			},
			expected: "host=localhost port=5432 user=user password=pass dbname=dbname sslmode=disable",
		},
		{
			name: "mysql DSN",
			config: DatabaseConfig{
				Driver: "mysql", Host: "localhost", Port: 3306,
				User: "user", Password: "pass", Name: "dbname",
			},
			expected: "user:pass@tcp(localhost:3306)/dbname?parseTime=true",
		},
		{
			name:     "sqlite DSN",
			config:   DatabaseConfig{Driver: "sqlite", Name: "/path/to/db.sqlite"},
			expected: "/path/to/db.sqlite",
		},
		{
			name:     "unknown driver",
			config:   DatabaseConfig{Driver: "unknown"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

// --- MustLoad 测试 ---

func TestMustLoad(t *testing.T) {
	good := filepath.Join(t.TempDir(), "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("stream:\n  buffer_size: 64\n"), 0644))
	assert.NotPanics(t, func() {
		assert.Equal(t, 64, MustLoad(good).Stream.BufferSize)
	})

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("invalid: [yaml"), 0644))
	assert.Panics(t, func() { MustLoad(bad) })
}

func TestLoadFromEnv_Function(t *testing.T) {
	t.Setenv("COMPOSEKIT_PROVIDER_NAME", "openai")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider.Name)
}
