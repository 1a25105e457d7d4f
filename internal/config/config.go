package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/blacktop/fbpost/internal/fbpost"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvAccessToken      = "FACEBOOK_ACCESS_TOKEN"
	EnvPageID           = "FACEBOOK_PAGE_ID"
	EnvEmail            = "FACEBOOK_EMAIL"
	EnvPassword         = "FACEBOOK_PASSWORD"
	EnvAPIVersion       = "FACEBOOK_API_VERSION"
	EnvHeadless         = "HEADLESS_MODE"
	EnvSlowMo           = "FACEBOOK_SLOW_MO_MS"
	EnvTwoFactorTimeout = "FACEBOOK_2FA_TIMEOUT"
	EnvChromeDriverPath = "CHROMEDRIVER_PATH"
	EnvChromeDriverPort = "CHROMEDRIVER_PORT"
	EnvLoginURL         = "FACEBOOK_LOGIN_URL"
	EnvHomeURL          = "FACEBOOK_HOME_URL"
	EnvUploadsDir       = "FBPOST_UPLOADS_DIR"

	DefaultAPIVersion       = "v19.0"
	DefaultSlowMo           = 100 * time.Millisecond
	DefaultTwoFactorTimeout = 30 * time.Second
	DefaultChromeDriverPort = 9515
	DefaultLoginURL         = "https://www.facebook.com/login"
	DefaultHomeURL          = "https://www.facebook.com"
	DefaultUploadsDir       = "uploads"
)

// Config holds every setting the backends need. It is loaded once at startup
// and passed by value.
type Config struct {
	AccessToken string `yaml:"access_token"`
	PageID      string `yaml:"page_id"`
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	APIVersion  string `yaml:"api_version"`

	Headless         bool          `yaml:"headless"`
	SlowMo           time.Duration `yaml:"slow_mo"`
	TwoFactorTimeout time.Duration `yaml:"two_factor_timeout"`
	ChromeDriverPath string        `yaml:"chromedriver_path"`
	ChromeDriverPort int           `yaml:"chromedriver_port"`
	LoginURL         string        `yaml:"login_url"`
	HomeURL          string        `yaml:"home_url"`
	UploadsDir       string        `yaml:"uploads_dir"`
}

// APICredentials authenticate the Graph API backend.
type APICredentials struct {
	AccessToken string
	PageID      string
	Version     string
}

// LoginCredentials authenticate the browser backends.
type LoginCredentials struct {
	Email    string
	Password string
}

// Load reads .env from the working directory, then the optional YAML file at
// path, then applies environment overrides. Variables already present in the
// environment are never replaced by .env.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() error {
	overrideString(&c.AccessToken, EnvAccessToken)
	overrideString(&c.PageID, EnvPageID)
	overrideString(&c.Email, EnvEmail)
	overrideString(&c.Password, EnvPassword)
	overrideString(&c.APIVersion, EnvAPIVersion)
	overrideString(&c.ChromeDriverPath, EnvChromeDriverPath)
	overrideString(&c.LoginURL, EnvLoginURL)
	overrideString(&c.HomeURL, EnvHomeURL)
	overrideString(&c.UploadsDir, EnvUploadsDir)

	if v := strings.TrimSpace(os.Getenv(EnvHeadless)); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fbpost.NewError(fbpost.ErrConfig, "config", EnvHeadless, err)
		}
		c.Headless = headless
	}
	if v := strings.TrimSpace(os.Getenv(EnvSlowMo)); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return fbpost.NewError(fbpost.ErrConfig, "config", EnvSlowMo, fmt.Errorf("invalid milliseconds %q", v))
		}
		c.SlowMo = time.Duration(ms) * time.Millisecond
	}
	if v := strings.TrimSpace(os.Getenv(EnvTwoFactorTimeout)); v != "" {
		timeout, err := parseSeconds(v)
		if err != nil {
			return fbpost.NewError(fbpost.ErrConfig, "config", EnvTwoFactorTimeout, err)
		}
		c.TwoFactorTimeout = timeout
	}
	if v := strings.TrimSpace(os.Getenv(EnvChromeDriverPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fbpost.NewError(fbpost.ErrConfig, "config", EnvChromeDriverPort, fmt.Errorf("invalid port %q", v))
		}
		c.ChromeDriverPort = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.SlowMo == 0 {
		c.SlowMo = DefaultSlowMo
	}
	if c.TwoFactorTimeout == 0 {
		c.TwoFactorTimeout = DefaultTwoFactorTimeout
	}
	if c.ChromeDriverPort == 0 {
		c.ChromeDriverPort = DefaultChromeDriverPort
	}
	if c.LoginURL == "" {
		c.LoginURL = DefaultLoginURL
	}
	if c.HomeURL == "" {
		c.HomeURL = DefaultHomeURL
	}
	if c.UploadsDir == "" {
		c.UploadsDir = DefaultUploadsDir
	}
}

// API returns the Graph API credentials or a MissingEnvError naming the
// absent variables.
func (c Config) API() (APICredentials, error) {
	var missing []string
	if c.AccessToken == "" {
		missing = append(missing, EnvAccessToken)
	}
	if c.PageID == "" {
		missing = append(missing, EnvPageID)
	}
	if len(missing) > 0 {
		return APICredentials{}, fbpost.MissingEnvError{Provider: "api", Variables: missing}
	}
	return APICredentials{AccessToken: c.AccessToken, PageID: c.PageID, Version: c.APIVersion}, nil
}

// Login returns the browser login credentials for provider or a
// MissingEnvError naming the absent variables.
func (c Config) Login(provider string) (LoginCredentials, error) {
	var missing []string
	if c.Email == "" {
		missing = append(missing, EnvEmail)
	}
	if c.Password == "" {
		missing = append(missing, EnvPassword)
	}
	if len(missing) > 0 {
		return LoginCredentials{}, fbpost.MissingEnvError{Provider: provider, Variables: missing}
	}
	return LoginCredentials{Email: c.Email, Password: c.Password}, nil
}

func overrideString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// parseSeconds accepts a bare number of seconds or a Go duration string.
func parseSeconds(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("negative timeout %q", v)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", v)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout %q", v)
	}
	return d, nil
}
