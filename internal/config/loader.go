package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "TMSEARCH"

// envAliases maps config keys to the flat environment names the service has
// always accepted.  The prefixed form (TMSEARCH_SEARCH_MAX_LIMIT) still wins
// when both are set.
var envAliases = map[string]string{
	"app.name":             "APP_NAME",
	"app.environment":      "ENVIRONMENT",
	"app.debug":            "DEBUG",
	"search.default_limit": "DEFAULT_LIMIT",
	"search.max_limit":     "MAX_LIMIT",
	"log.level":            "LOG_LEVEL",
	"database.url":         "DATABASE_URL",
	"server.cors_origins":  "CORS_ORIGINS",
	"ingest.data_file":     "DATA_FILE_PATH",
}

// newViper builds a pre-configured Viper instance: YAML file type, TMSEARCH_
// env prefix, automatic env binding and a key replacer that maps "." to "_"
// so that "database.host" resolves to "TMSEARCH_DATABASE_HOST".
//
// Every key of Config is bound explicitly; viper's Unmarshal ignores
// AutomaticEnv for keys it has never seen.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range configKeys(reflect.TypeOf(Config{}), "") {
		envName := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		names := []string{key, envName}
		if alias, ok := envAliases[key]; ok {
			names = append(names, alias)
		}
		_ = v.BindEnv(names...)
	}
	return v
}

// configKeys lists the dotted mapstructure keys of every leaf field in t.
func configKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() != "time" {
			keys = append(keys, configKeys(f.Type, key)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// loadDotEnv loads a .env file from the working directory when present.
// Variables already set in the process environment are not overridden.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: failed to load .env: %w", err)
	}
	return nil
}

// Load reads the YAML file at configPath, merges any TMSEARCH_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from environment variables, with no
// config file required.
//
//	TMSEARCH_<SECTION>_<FIELD>   e.g.  TMSEARCH_DATABASE_HOST, TMSEARCH_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is written.  Only settings that are safe to
// swap at runtime (log level) should be applied by the callback.
//
// A change that fails to parse or validate is reported to onError and the
// previous configuration stays in effect.  onError may be nil.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("config: cannot watch %q: %w", configPath, err)
	}
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on any error.  Intended for main().
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
