package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "WIRECODE"
	envConfigDefaultPath = "WIRECODE_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "wirecode.yaml"
)

// Load resolves the config file, creating it with defaults when missing, and
// returns the merged configuration with the path it came from.
// Precedence: defaults < config file < WIRECODE_* env < caller overrides (UpdateFrom).
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	cfg := Default()
	path := resolveConfigPath(explicitPath)

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	// Unmarshal only sees env values for keys viper already knows about.
	for key, value := range settings(cfg) {
		v.SetDefault(key, value)
	}

	if err := readOrCreate(v, path, cfg, logger); err != nil {
		return cfg, path, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, path, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, path, nil
}

// readOrCreate reads path into v. A missing file is created from cfg; failing
// to create it is logged and the defaults stay in effect.
func readOrCreate(v *viper.Viper, path string, cfg Config, logger *zerolog.Logger) error {
	err := v.ReadInConfig()
	if err == nil {
		logger.Debug().Str("path", path).Msg("config loaded")
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := writeDefaultConfig(path, cfg); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("could not write default config")
		return nil
	}
	logger.Info().Str("path", path).Msg("created default config")
	return nil
}

// settings maps every mapstructure key of cfg to its value.
func settings(cfg Config) map[string]any {
	out := make(map[string]any)
	rv := reflect.ValueOf(cfg)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		if key := rt.Field(i).Tag.Get("mapstructure"); key != "" {
			out[key] = rv.Field(i).Interface()
		}
	}
	return out
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	if base := os.Getenv(envConfigDefaultPath); base != "" {
		return filepath.Join(base, defaultConfigName)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "wirecode", defaultConfigName)
	}
	return defaultConfigName
}

// writeDefaultConfig writes cfg with durations spelled as "400ms" rather
// than nanosecond counts so the file is editable by hand.
func writeDefaultConfig(path string, cfg Config) error {
	values := settings(cfg)
	for key, value := range values {
		if d, ok := value.(time.Duration); ok {
			values[key] = d.String()
		}
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
