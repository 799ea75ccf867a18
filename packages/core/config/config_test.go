package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetVerbose())
	assert.True(t, cfg.IsDefault())
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
}

func TestFindAndLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	content := `
apiKey: key-1
accountKey: acct-1
email: me@example.com
timeout: 5000
validateSSL: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".stopwatch.yaml"), []byte(content), 0o644))

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "key-1", cfg.APIKey)
	assert.Equal(t, "acct-1", cfg.AccountKey)
	assert.Equal(t, "me@example.com", cfg.Email)
	assert.Equal(t, 5*time.Second, cfg.TimeoutDuration())
	assert.False(t, cfg.GetValidateSSL())
	// Unset keys keep their defaults
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, 10, cfg.MaxRedirects)
}

func TestLoadConfig_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".stopwatch.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"apiKey": "k", "staffId": "42", "uploadRate": 0.5}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "42", cfg.StaffID)
	assert.Equal(t, 0.5, cfg.UploadRate)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: [nope"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	merged := base.Merge(&Config{APIKey: "new", Verbose: BoolPtr(true), Timeout: 1000})

	assert.Equal(t, "new", merged.APIKey)
	assert.True(t, merged.GetVerbose())
	assert.Equal(t, 1000, merged.Timeout)
	assert.Equal(t, DefaultHost, merged.Host)
	// The receiver is untouched
	assert.Empty(t, base.APIKey)
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stopwatch.yaml")
	cfg := DefaultConfig().Merge(&Config{APIKey: "k", AccountKey: "a", Email: "me@example.com"})
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	err := DefaultConfig().Validate()
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"apiKey", "accountKey", "email or staffId"}, missing.Keys)

	ok := DefaultConfig().Merge(&Config{APIKey: "k", AccountKey: "a", StaffID: "1"})
	assert.NoError(t, ok.Validate())
}
