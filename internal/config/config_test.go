package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blacktop/fbpost/internal/fbpost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnv = []string{
	EnvAccessToken, EnvPageID, EnvEmail, EnvPassword, EnvAPIVersion, EnvHeadless, EnvSlowMo,
	EnvTwoFactorTimeout, EnvChromeDriverPath, EnvChromeDriverPort, EnvLoginURL, EnvHomeURL, EnvUploadsDir,
}

// isolate runs the test in an empty directory with every variable cleared.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	for _, key := range allEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
	assert.Equal(t, DefaultSlowMo, cfg.SlowMo)
	assert.Equal(t, DefaultTwoFactorTimeout, cfg.TwoFactorTimeout)
	assert.Equal(t, DefaultChromeDriverPort, cfg.ChromeDriverPort)
	assert.Equal(t, DefaultLoginURL, cfg.LoginURL)
	assert.Equal(t, DefaultHomeURL, cfg.HomeURL)
	assert.Equal(t, DefaultUploadsDir, cfg.UploadsDir)
	assert.False(t, cfg.Headless)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"FACEBOOK_ACCESS_TOKEN=from-dotenv\nFACEBOOK_PAGE_ID=42\nHEADLESS_MODE=true\n"), 0o600))
	t.Setenv(EnvPageID, "from-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.AccessToken)
	assert.Equal(t, "from-env", cfg.PageID)
	assert.True(t, cfg.Headless)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "fbpost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
email: yaml@example.com
password: yaml-secret
api_version: v20.0
two_factor_timeout: 45s
chromedriver_port: 9600
`), 0o600))
	t.Setenv(EnvEmail, "env@example.com")
	t.Setenv(EnvTwoFactorTimeout, "90")
	t.Setenv(EnvSlowMo, "250")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env@example.com", cfg.Email)
	assert.Equal(t, "yaml-secret", cfg.Password)
	assert.Equal(t, "v20.0", cfg.APIVersion)
	assert.Equal(t, 90*time.Second, cfg.TwoFactorTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowMo)
	assert.Equal(t, 9600, cfg.ChromeDriverPort)
}

func TestLoadMissingFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{EnvHeadless, "maybe"},
		{EnvSlowMo, "-5"},
		{EnvSlowMo, "fast"},
		{EnvTwoFactorTimeout, "soon"},
		{EnvTwoFactorTimeout, "-1"},
		{EnvChromeDriverPort, "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			require.Error(t, err)
			assert.ErrorIs(t, err, fbpost.ErrConfig)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestCredentials(t *testing.T) {
	_, err := Config{}.API()
	assert.ErrorIs(t, err, fbpost.ErrConfig)

	var missing fbpost.MissingEnvError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{EnvAccessToken, EnvPageID}, missing.Variables)

	api, err := Config{AccessToken: "t", PageID: "p", APIVersion: "v19.0"}.API()
	require.NoError(t, err)
	assert.Equal(t, APICredentials{AccessToken: "t", PageID: "p", Version: "v19.0"}, api)

	_, err = Config{Email: "me@example.com"}.Login("playwright")
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "playwright", missing.Provider)
	assert.Equal(t, []string{EnvPassword}, missing.Variables)

	login, err := Config{Email: "me@example.com", Password: "pw"}.Login("selenium")
	require.NoError(t, err)
	assert.Equal(t, LoginCredentials{Email: "me@example.com", Password: "pw"}, login)
}

func TestParseSeconds(t *testing.T) {
	d, err := parseSeconds("30")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	d, err = parseSeconds("1m30s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = parseSeconds("-2s")
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
