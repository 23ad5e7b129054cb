package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/matzehuels/jarmill/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JARMILL"

// FileName is the config file searched for when no path is given.
const FileName = "jarmill"

// Load reads the configuration. With an empty path, jarmill.toml is looked
// up in the working directory and the user config directory; finding none
// is not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = Path()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the jarmill.toml that Load reads when given an empty path, or
// "" when there is none. The working directory wins over the user config
// directory.
func Path() string {
	candidates := []string{FileName + ".toml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "jarmill", FileName+".toml"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c
		}
	}
	return ""
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("name", d.Name)
	v.SetDefault("version", d.Version)
	v.SetDefault("cache_dir", d.CacheDir)
	v.SetDefault("offline", d.Offline)
	v.SetDefault("refresh", d.Refresh)
	v.SetDefault("share_caches", d.ShareCaches)
	v.SetDefault("root_project", d.RootProject)
	v.SetDefault("mappings.path", d.Mappings.Path)
	v.SetDefault("mappings.name", d.Mappings.Name)
	v.SetDefault("mappings.version", d.Mappings.Version)
	v.SetDefault("manifest.url", d.Manifest.URL)
	v.SetDefault("manifest.cache", d.Manifest.Cache)
	v.SetDefault("manifest.redis_url", d.Manifest.RedisURL)
	v.SetDefault("manifest.ttl", d.Manifest.TTL.Std().String())
	v.SetDefault("manifest.timeout", d.Manifest.Timeout.Std().String())
	v.SetDefault("manifest.attempts", d.Manifest.Attempts)
	v.SetDefault("log.level", d.Log.Level)
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	target := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != target {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			var d Duration
			if err := d.UnmarshalText([]byte(v)); err != nil {
				return nil, err
			}
			return d, nil
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("unsupported duration type %T", v)
		}
	}
}
