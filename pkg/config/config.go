// Package config resolves the settings of one siemctl invocation.
//
// Settings come from, in order of precedence: command-line flags,
// SIEMCTL_* environment variables, the optional config file
// $XDG_CONFIG_HOME/siemctl/config.yaml and built-in defaults.
//
// # Config File
//
//	region: EUROPE
//	env: prod
//	credential_file: /path/to/credentials.json
//	timeout: 600s
//	mask_style: partial
//	mask_show_chars: 2
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CliForge/siemctl/pkg/secrets"
	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AppName names the configuration directory and the environment prefix.
const AppName = "siemctl"

// DefaultTimeout bounds each API call.
const DefaultTimeout = 1200 * time.Second

// Setting keys. Flag names match the keys.
const (
	KeyRegion         = "region"
	KeyEnv            = "env"
	KeyURL            = "url"
	KeyCredentialFile = "credential_file"
	KeyTimeout        = "timeout"
	KeyVerbose        = "verbose"
	KeyConfigDir      = "config_dir"
	KeyMaskStyle      = "mask_style"
	KeyMaskShowChars  = "mask_show_chars"
)

// DefaultMaskShowChars is the number of leading characters the partial mask
// style reveals.
const DefaultMaskShowChars = 4

// Settings are the resolved settings of one invocation.
type Settings struct {
	Region string
	Env    string
	// URL overrides the region base URL when set.
	URL            string
	CredentialFile string
	// ConfigDir holds the credentials, config file and backups.
	ConfigDir string
	Timeout   time.Duration
	Verbose   bool
	// MaskStyle selects how secrets are masked in request previews.
	MaskStyle     secrets.Style
	MaskShowChars int
}

// Masking returns the masking applied to secrets in previews.
func (s *Settings) Masking() *secrets.Masking {
	return &secrets.Masking{Style: s.MaskStyle, ShowChars: s.MaskShowChars}
}

// BackupDir returns the directory backups are stored under.
func (s *Settings) BackupDir() string {
	return s.ConfigDir
}

// BaseURL returns the API base URL.
func (s *Settings) BaseURL() (string, error) {
	if s.URL != "" {
		return strings.TrimRight(s.URL, "/"), nil
	}
	return BaseURL(s.Region, s.Env)
}

// Loader resolves Settings through viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with the environment and defaults wired.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyRegion, DefaultRegion)
	v.SetDefault(KeyEnv, EnvProd)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyMaskShowChars, DefaultMaskShowChars)
	v.SetDefault(KeyConfigDir, filepath.Join(xdg.ConfigHome, AppName))

	return &Loader{v: v}
}

// BindFlags binds command-line flags so they take precedence over every
// other source.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for _, key := range []string{KeyRegion, KeyEnv, KeyURL, KeyCredentialFile, KeyVerbose} {
		flag := flags.Lookup(key)
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the config file if present and resolves the settings.
func (l *Loader) Load() (*Settings, error) {
	configDir := expandHome(l.v.GetString(KeyConfigDir))

	configFile := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configFile); err == nil {
		l.v.SetConfigFile(configFile)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configFile, err)
	}

	style, err := secrets.ParseStyle(l.v.GetString(KeyMaskStyle))
	if err != nil {
		return nil, err
	}

	s := &Settings{
		Region:         strings.ToUpper(strings.TrimSpace(l.v.GetString(KeyRegion))),
		Env:            strings.ToLower(strings.TrimSpace(l.v.GetString(KeyEnv))),
		URL:            strings.TrimSpace(l.v.GetString(KeyURL)),
		CredentialFile: expandHome(l.v.GetString(KeyCredentialFile)),
		ConfigDir:      configDir,
		Timeout:        l.v.GetDuration(KeyTimeout),
		Verbose:        l.v.GetBool(KeyVerbose),
		MaskStyle:      style,
		MaskShowChars:  l.v.GetInt(KeyMaskShowChars),
	}
	if s.CredentialFile == "" {
		s.CredentialFile = filepath.Join(configDir, "credentials.json")
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks region and environment. A URL override skips the region
// lookup.
func (s *Settings) Validate() error {
	if s.Env != EnvProd && s.Env != EnvTest {
		return fmt.Errorf("invalid environment %q, valid environments: %s, %s", s.Env, EnvProd, EnvTest)
	}
	if s.URL != "" {
		return nil
	}
	_, err := BaseURL(s.Region, s.Env)
	return err
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
