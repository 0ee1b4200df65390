package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server settings. Values come from the YAML file with
// environment variables taking precedence, so container deployments can
// run without a config file at all.
type Config struct {
	Server struct {
		Port        string `yaml:"port"`
		CORSOrigins string `yaml:"cors_origins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Auth struct {
		Mode      string   `yaml:"mode"` // "discord" or "jwt" (dev)
		JWTSecret string   `yaml:"jwt_secret"`
		AdminIDs  []string `yaml:"admin_ids"`
	} `yaml:"auth"`
	Discord struct {
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		RedirectURI  string `yaml:"redirect_uri"`
		APIBase      string `yaml:"api_base"`
	} `yaml:"discord"`
	Game struct {
		RoundDuration       string  `yaml:"round_duration"`
		MaxPoints           int     `yaml:"max_points"`
		Exponent            float64 `yaml:"exponent"`
		PushScoring         string  `yaml:"push_scoring"` // "curve" or "bonus"
		CleanupInterval     string  `yaml:"cleanup_interval"`
		InactivityThreshold string  `yaml:"inactivity_threshold"`
		ResetHourUTC        int     `yaml:"reset_hour_utc"`
	} `yaml:"game"`
}

// Default returns the built-in settings: 15s rounds, 150-point curve
// with exponent 2, 30m cleanup sweeps, 60m inactivity threshold and a
// midnight-UTC leaderboard reset.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.CORSOrigins = "*"
	cfg.Mongo.Database = "trivia"
	cfg.Auth.Mode = "discord"
	cfg.Discord.APIBase = "https://discord.com/api"
	cfg.Game.RoundDuration = "15s"
	cfg.Game.MaxPoints = 150
	cfg.Game.Exponent = 2
	cfg.Game.PushScoring = "curve"
	cfg.Game.CleanupInterval = "30m"
	cfg.Game.InactivityThreshold = "60m"
	cfg.Game.ResetHourUTC = 0
	return cfg
}

// Load builds the config: defaults, then the YAML file if it exists,
// then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfEnv(&c.Server.Port, "PORT")
	setIfEnv(&c.Server.CORSOrigins, "CORS_ALLOWED_ORIGINS")
	setIfEnv(&c.Redis.Addr, "REDIS_URI")
	setIfEnv(&c.Mongo.URI, "MONGO_URI")
	setIfEnv(&c.Mongo.Database, "MONGO_DATABASE")
	setIfEnv(&c.Auth.Mode, "AUTH_MODE")
	setIfEnv(&c.Auth.JWTSecret, "JWT_SECRET")
	setIfEnv(&c.Discord.ClientID, "DISCORD_CLIENT_ID")
	setIfEnv(&c.Discord.ClientSecret, "DISCORD_CLIENT_SECRET")
	setIfEnv(&c.Discord.RedirectURI, "DISCORD_REDIRECT_URI")
	setIfEnv(&c.Discord.APIBase, "DISCORD_API_BASE")
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		c.Auth.AdminIDs = splitList(v)
	}
	if v := os.Getenv("RESET_HOUR_UTC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Game.ResetHourUTC = n
		}
	}
	// Redis URIs often arrive with a scheme prefix
	c.Redis.Addr = strings.TrimPrefix(c.Redis.Addr, "redis://")
}

// RoundDuration returns the round length, falling back to 15s.
func (c Config) RoundDuration() time.Duration {
	return Duration(c.Game.RoundDuration, 15*time.Second)
}

// CleanupInterval returns how often inactive rooms are swept.
func (c Config) CleanupInterval() time.Duration {
	return Duration(c.Game.CleanupInterval, 30*time.Minute)
}

// InactivityThreshold returns how long an untouched room survives.
func (c Config) InactivityThreshold() time.Duration {
	return Duration(c.Game.InactivityThreshold, time.Hour)
}

// Duration parses a duration string or returns the fallback if empty or
// malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
