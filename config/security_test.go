package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		ok   bool
	}{
		{"empty", "", false},
		{"relative json", "configs/run.json", true},
		{"relative yml", "run.yml", true},
		{"escapes working directory", "../../etc/passwd.json", false},
		{"wrong extension", "run.toml", false},
		{"too long", strings.Repeat("a", maxPathLen+1) + ".json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSafeReadFile_RejectsDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested.json")
	require.NoError(t, os.Mkdir(dir, 0755))

	_, err := safeReadFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}

func TestSafeReadFile_RejectsOversized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(maxConfigSize+1))
	require.NoError(t, f.Close())

	_, err = safeReadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestValidateEnvVar(t *testing.T) {
	assert.NoError(t, validateEnvVar("K", ""))
	assert.NoError(t, validateEnvVar("K", "value"))
	assert.Error(t, validateEnvVar("K", "a\x00b"))
	assert.Error(t, validateEnvVar("K", strings.Repeat("x", maxEnvVarLen+1)))
}

func TestValidateJSONDepth(t *testing.T) {
	assert.NoError(t, validateJSONDepth([]byte(`{"a": {"b": [1, 2, "}"]}}`)))
	assert.Error(t, validateJSONDepth([]byte(`{"a": {"b": 1}`)))
	assert.Error(t, validateJSONDepth([]byte(`{"a": 1}}`)))

	deep := strings.Repeat("[", maxJSONDepth+1) + strings.Repeat("]", maxJSONDepth+1)
	err := validateJSONDepth([]byte(deep))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too deep")
}

func TestValidateValueDepth(t *testing.T) {
	var v any = "leaf"
	for i := 0; i < maxJSONDepth+1; i++ {
		v = map[string]any{"k": v}
	}
	assert.Error(t, validateValueDepth(v, 0))

	shallow := map[string]any{"a": []any{map[string]any{"b": 1}}}
	assert.NoError(t, validateValueDepth(shallow, 0))
}
