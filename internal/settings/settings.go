// Package settings loads valhalla runtime settings from the environment.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvFile is read when present. Its entries never override variables that
// are already set.
const EnvFile = ".valhalla.env"

// ErrMissingToken is returned when VALHALLA_TOKEN is not set.
var ErrMissingToken = errors.New("VALHALLA_TOKEN environment variable is not set!")

// Settings holds everything valhalla reads from the environment itself.
// Provider specific variables are read by the providers.
type Settings struct {
	Token      string `mapstructure:"token"`
	ReleaseCmd string `mapstructure:"release_cmd"`
	LogLevel   string `mapstructure:"log_level"`
	Root       string `mapstructure:"root"`
}

// Load reads settings from envFile (optional) and the process environment.
// Validation errors are returned together with the loaded settings so the
// caller can still configure logging from them.
func Load(envFile string) (*Settings, error) {
	if envFile != "" {
		if err := applyEnvFile(envFile); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetEnvPrefix("VALHALLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("root", ".")
	for _, k := range []string{"token", "release_cmd", "log_level", "root"} {
		_ = v.BindEnv(k)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return &s, err
	}
	return &s, nil
}

// Validate ensures required settings are present.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Token) == "" {
		return ErrMissingToken
	}
	return nil
}

func applyEnvFile(path string) error {
	envMap, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	for k, val := range envMap {
		if _, exists := os.LookupEnv(k); !exists {
			_ = os.Setenv(k, val)
		}
	}
	return nil
}
