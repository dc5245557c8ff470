// Package conf loads the application configuration from file and
// environment. Every component config is embedded here under its section
// name; components stay unaware of viper.
package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/identity/local"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/log"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/watcher"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/pkg/xcache"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/server"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/server/biz"
	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/store"
)

const envPrefix = "NEXUS"

type Config struct {
	APIServer server.Config     `conf:"server" yaml:"server" json:"server"`
	DB        store.Config      `conf:"db" yaml:"db" json:"db"`
	Log       log.Config        `conf:"log" yaml:"log" json:"log"`
	Cache     xcache.Config     `conf:"cache" yaml:"cache" json:"cache"`
	Watch     watcher.Config    `conf:"watch" yaml:"watch" json:"watch"`
	Identity  local.Config      `conf:"identity" yaml:"identity" json:"identity"`
	Session   biz.SessionConfig `conf:"session" yaml:"session" json:"session"`
}

func defaultConfig() Config {
	return Config{
		APIServer: server.Config{
			Host:           "0.0.0.0",
			Port:           8090,
			Name:           "nexus",
			ReadTimeout:    30 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		DB: store.Config{
			DSN: "nexus.db",
		},
		Log: log.Config{
			Name:   "nexus",
			Level:  "info",
			Format: "json",
		},
		Cache: xcache.Config{
			Mode: xcache.ModeMemory,
		},
		Watch: watcher.Config{
			Mode: watcher.ModeMemory,
		},
		Identity: local.Config{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Session: biz.SessionConfig{
			RecoveryEmail: biz.DefaultRecoveryEmail,
		},
	}
}

// Load reads nexus.yml (working directory, $HOME/.nexus, /etc/nexus) and the
// NEXUS_* environment, then fills the gaps with defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("nexus")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.nexus")
	v.AddConfigPath("/etc/nexus")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("conf: read config: %w", err)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return Config{}, fmt.Errorf("conf: unmarshal config: %w", err)
	}

	if err := mergo.Merge(&cfg, defaultConfig()); err != nil {
		return Config{}, fmt.Errorf("conf: apply defaults: %w", err)
	}

	return cfg, nil
}
