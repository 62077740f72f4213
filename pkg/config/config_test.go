package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/dotprompt/runtime/persistence"
	"github.com/google/dotprompt/runtime/persistence/memory"
)

const fullManifest = `apiVersion: dotprompt.google.com/v1alpha1
kind: DotpromptConfig
metadata:
  name: production
  labels:
    team: prompts
spec:
  store:
    id: prompts-1
    name: primary
    defaultLimit: 25
    maxLimit: 200
  logging:
    defaultLevel: warn
    format: json
    commonFields:
      environment: production
    modules:
      - name: runtime.persistence.memory
        level: debug
    file:
      path: /var/log/dotprompt.log
      maxSizeMB: 50
      maxBackups: 3
`

func TestParseConfig_Full(t *testing.T) {
	cfg, err := ParseConfig([]byte(fullManifest))
	require.NoError(t, err)

	assert.Equal(t, StoreConfig{ID: "prompts-1", Name: "primary", DefaultLimit: 25, MaxLimit: 200}, cfg.Store)
	assert.Equal(t, LogLevelWarn, cfg.Logging.DefaultLevel)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, map[string]string{"environment": "production"}, cfg.Logging.CommonFields)
	require.Len(t, cfg.Logging.Modules, 1)
	assert.Equal(t, "runtime.persistence.memory", cfg.Logging.Modules[0].Name)
	require.NotNil(t, cfg.Logging.File)
	assert.Equal(t, 3, cfg.Logging.File.MaxBackups)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("apiVersion: dotprompt.google.com/v1alpha1\nkind: DotpromptConfig\nspec: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, persistence.DefaultListLimit, cfg.Store.DefaultLimit)
	assert.Equal(t, persistence.MaxListLimit, cfg.Store.MaxLimit)
	assert.Equal(t, LogLevelInfo, cfg.Logging.DefaultLevel)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.Equal(t, Default(), cfg)
}

func TestParseConfig_Invalid(t *testing.T) {
	header := "apiVersion: dotprompt.google.com/v1alpha1\nkind: DotpromptConfig\n"
	tests := []struct {
		name string
		yaml string
	}{
		{"empty document", ""},
		{"wrong kind", "apiVersion: dotprompt.google.com/v1alpha1\nkind: LoggingConfig\nspec: {}\n"},
		{"wrong api version", "apiVersion: v1\nkind: DotpromptConfig\nspec: {}\n"},
		{"missing spec", header},
		{"unknown field", header + "spec:\n  store:\n    pageSize: 10\n"},
		{"negative limit", header + "spec:\n  store:\n    defaultLimit: -1\n"},
		{"limit wrong type", header + "spec:\n  store:\n    maxLimit: many\n"},
		{"bad level", header + "spec:\n  logging:\n    defaultLevel: verbose\n"},
		{"module without level", header + "spec:\n  logging:\n    modules:\n      - name: runtime.persistence\n"},
		{"default above max", header + "spec:\n  store:\n    defaultLimit: 500\n    maxLimit: 100\n"},
		{"default above implied max", header + "spec:\n  store:\n    defaultLimit: 5000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseConfig_CrossFieldError(t *testing.T) {
	_, err := ParseConfig([]byte(`apiVersion: dotprompt.google.com/v1alpha1
kind: DotpromptConfig
spec:
  store:
    defaultLimit: 500
    maxLimit: 100
`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "store.defaultLimit", ve.Field)
	assert.Equal(t, "500", ve.Value)
}

func TestParseConfig_MalformedYAML(t *testing.T) {
	_, err := ParseConfig([]byte("spec: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dotprompt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullManifest), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Store.Name)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: Nope\n"), 0o600))
	_, err = LoadConfig(path)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), path)
}

func TestConfig_MemoryOptions(t *testing.T) {
	cfg, err := ParseConfig([]byte(fullManifest))
	require.NoError(t, err)

	store := memory.New(cfg.MemoryOptions())
	assert.Equal(t, "prompts-1", store.ID())
	assert.Equal(t, &memory.Options{ID: "prompts-1", DefaultLimit: 25, MaxLimit: 200}, cfg.MemoryOptions())
}

func TestSchema(t *testing.T) {
	schema, err := Schema()
	require.NoError(t, err)
	again, err := Schema()
	require.NoError(t, err)
	assert.Equal(t, schema, again)

	s := string(schema)
	assert.Contains(t, s, SchemaBaseURL+"/config.json")
	assert.Contains(t, s, KindConfig)
	assert.Contains(t, s, APIVersion)
	assert.Contains(t, s, `"defaultLimit"`)
}

func TestValidateWithSchema_ReportsFields(t *testing.T) {
	result, err := ValidateWithSchema([]byte("apiVersion: dotprompt.google.com/v1alpha1\nkind: DotpromptConfig\nspec:\n  logging:\n    format: xml\n"))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Field, "format")
}
