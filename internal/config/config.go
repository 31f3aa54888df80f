// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	API        struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"api"`
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Session struct {
		TTL          time.Duration `mapstructure:"ttl"`
		CookieSecure bool          `mapstructure:"cookie_secure"`
		LoginPath    string        `mapstructure:"login_path"`
		PurgeEvery   time.Duration `mapstructure:"purge_every"`
	} `mapstructure:"session"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
	LogLevel string `mapstructure:"log_level"`
}

var ErrMissingBaseURL = errors.New("config error: api.base_url/HOA_API_URL required")

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("session.ttl", 8*time.Hour)
	v.SetDefault("session.cookie_secure", true)
	v.SetDefault("session.login_path", "/login")
	v.SetDefault("session.purge_every", 15*time.Minute)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("log_level", "info")
}

// Load reads config.yaml from . or .. and applies env overrides.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// explicit bindings
	_ = v.BindEnv("listen_addr", "LISTEN_ADDR")
	_ = v.BindEnv("api.base_url", "HOA_API_URL")
	_ = v.BindEnv("api.timeout", "API_TIMEOUT")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("session.ttl", "SESSION_TTL")
	_ = v.BindEnv("session.cookie_secure", "COOKIE_SECURE")
	_ = v.BindEnv("session.login_path", "LOGIN_PATH")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, err
	}
	// CORS_ALLOWED_ORIGINS is a comma separated list.
	if raw := v.GetString("cors_allowed_origins"); raw != "" {
		c.CORS.AllowedOrigins = splitList(raw)
	}
	if v.IsSet("port") && v.GetString("port") != "" {
		c.ListenAddr = ":" + v.GetString("port")
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return Config{}, ErrMissingBaseURL
	}
	return c, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
