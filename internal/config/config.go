package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MDB_STORAGE_DATA_DIR
const EnvPrefix = "MDB"

type Config struct {
	Storage struct {
		DataDir   string `mapstructure:"data_dir"`
		Extension string `mapstructure:"extension"`
	} `mapstructure:"storage"`

	Backup struct {
		Compress bool `mapstructure:"compress"`
	} `mapstructure:"backup"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // text | json
		SeqURL string `mapstructure:"seq_url"`
	} `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.extension", ".mdb")
	v.SetDefault("backup.compress", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.seq_url", "")
}

// Default returns the built-in configuration without reading files or the environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// decoding plain defaults cannot fail
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads the YAML file at path (optional, may be empty) and MDB_* environment overrides
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot check for us
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return errors.New("config: storage.data_dir must not be empty")
	}
	if !strings.HasPrefix(c.Storage.Extension, ".") || len(c.Storage.Extension) < 2 {
		return fmt.Errorf("config: storage.extension %q must start with '.'", c.Storage.Extension)
	}
	if strings.ContainsAny(c.Storage.Extension, `/\`) {
		return fmt.Errorf("config: storage.extension %q must not contain path separators", c.Storage.Extension)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: logging.format %q must be text or json", c.Logging.Format)
	}
	return nil
}
