package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected map[string]string
	}{
		{
			name:     "simple key-value",
			content:  "WFM_API_KEY=secret123",
			expected: map[string]string{"WFM_API_KEY": "secret123"},
		},
		{
			name:     "quoted values",
			content:  "A=\"with spaces\"\nB='single'",
			expected: map[string]string{"A": "with spaces", "B": "single"},
		},
		{
			name:     "comments and blank lines",
			content:  "# comment\n\nA=1\n",
			expected: map[string]string{"A": "1"},
		},
		{
			name:     "export prefix",
			content:  "export A=1",
			expected: map[string]string{"A": "1"},
		},
		{
			name:     "lines without equals are skipped",
			content:  "garbage\nA=b=c",
			expected: map[string]string{"A": "b=c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".env")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, err := LoadDotEnv(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoadDotEnv_Missing(t *testing.T) {
	_, err := LoadDotEnv(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("WFM_API_KEY", "from-env")
	t.Setenv("WFM_TIMEOUT", "2500")

	cfg, err := DefaultConfig().ApplyEnv(map[string]string{
		"WFM_API_KEY":     "from-dotenv",
		"WFM_ACCOUNT_KEY": "acct",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, "acct", cfg.AccountKey)
	assert.Equal(t, 2500, cfg.Timeout)
}

func TestApplyEnv_BadNumber(t *testing.T) {
	t.Setenv("WFM_UPLOAD_RATE", "fast")

	_, err := DefaultConfig().ApplyEnv(nil)
	assert.ErrorContains(t, err, "WFM_UPLOAD_RATE")
}
