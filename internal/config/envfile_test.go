package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupEnvFile(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
		wantErr  error
	}{
		{
			name:     "simple",
			content:  "EXPO_PUBLIC_BACKEND_URL=https://example.com\n",
			expected: "https://example.com",
		},
		{
			name:     "value keeps later equals signs",
			content:  "EXPO_PUBLIC_BACKEND_URL=https://example.com/?a=b\n",
			expected: "https://example.com/?a=b",
		},
		{
			name:     "first match wins",
			content:  "EXPO_PUBLIC_BACKEND_URL=first\nEXPO_PUBLIC_BACKEND_URL=second\n",
			expected: "first",
		},
		{
			name:     "value is trimmed",
			content:  "EXPO_PUBLIC_BACKEND_URL=  http://localhost:8001  \r\n",
			expected: "http://localhost:8001",
		},
		{
			name:    "longer key does not match",
			content: "EXPO_PUBLIC_BACKEND_URL_OLD=x\n",
			wantErr: ErrKeyNotFound,
		},
		{
			name:    "indented line does not match",
			content: "  EXPO_PUBLIC_BACKEND_URL=x\n",
			wantErr: ErrKeyNotFound,
		},
		{
			name:    "empty file",
			content: "",
			wantErr: ErrKeyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			writeFile(t, path, tt.content)

			got, err := LookupEnvFile(path, "EXPO_PUBLIC_BACKEND_URL")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLookupEnvFileMissing(t *testing.T) {
	_, err := LookupEnvFile(filepath.Join(t.TempDir(), "nope"), "K")
	assert.Error(t, err)
}

func TestLoadFromEnvFileEmptyValueKeepsFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "EXPO_PUBLIC_BACKEND_URL=\n")

	cfg := Default()
	cfg.EnvFile = path
	LoadFromEnvFile(cfg)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestLoadFromEnvFileQuotedEmptyKeepsFallback(t *testing.T) {
	for _, line := range []string{`EXPO_PUBLIC_BACKEND_URL=""`, `EXPO_PUBLIC_BACKEND_URL=''`, `EXPO_PUBLIC_BACKEND_URL=" "`} {
		t.Run(line, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			writeFile(t, path, line+"\n")

			cfg := Default()
			cfg.EnvFile = path
			LoadFromEnvFile(cfg)

			assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
			assert.Equal(t, "default", cfg.SourceOf("base_url"))
		})
	}
}

func TestLoadFromEnvFileQuotedValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, `EXPO_PUBLIC_BACKEND_URL="http://localhost:8001"`+"\n")

	cfg := Default()
	cfg.EnvFile = path
	LoadFromEnvFile(cfg)

	assert.Equal(t, "http://localhost:8001", cfg.BaseURL)
	assert.Equal(t, "env_file", cfg.SourceOf("base_url"))
}
