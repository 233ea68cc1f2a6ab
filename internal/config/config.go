package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for the stripalerts daemon.
type Config struct {
	API     APIConfig     `toml:"api"`
	LED     LEDConfig     `toml:"led"`
	Alerts  AlertsConfig  `toml:"alerts"`
	Poll    PollConfig    `toml:"poll"`
	Control ControlConfig `toml:"control"`
}

// APIConfig locates the broadcaster's event feed.
type APIConfig struct {
	Username string `toml:"username"`
	Token    string `toml:"token"`
	BaseURL  string `toml:"base_url"`
	Timeout  int    `toml:"timeout"`  // HTTP request timeout, seconds
	Longpoll int    `toml:"longpoll"` // long-poll timeout URL parameter, seconds
}

// LEDConfig describes the strip and the gateway daemon that owns it.
type LEDConfig struct {
	Count          int     `toml:"count"`
	Brightness     float64 `toml:"brightness"`
	GatewayURL     string  `toml:"gateway_url"`
	GatewayToken   string  `toml:"gateway_token"`
	Ambient        string  `toml:"ambient"`
	AlertAnimation string  `toml:"alert_animation"`
	ColorAnimation string  `toml:"color_animation"`
}

// AlertsConfig holds classification thresholds and alert timing.
type AlertsConfig struct {
	StandardThreshold int    `toml:"standard_threshold"` // tokens
	ColorThreshold    int    `toml:"color_threshold"`    // tokens
	AlertDuration     int    `toml:"alert_duration"`     // seconds
	MaxAlertDuration  int    `toml:"max_alert_duration"` // seconds
	ColorWindow       int    `toml:"color_window"`       // seconds
	DefaultColor      string `toml:"default_color"`
	QueueDepth        int    `toml:"queue_depth"`
}

// PollConfig holds the retry/backoff parameters for feed polling.
type PollConfig struct {
	InitialRetry int `toml:"initial_retry"` // seconds
	MaxRetry     int `toml:"max_retry"`     // seconds
	RetryFactor  int `toml:"retry_factor"`
}

// ControlConfig configures the status HTTP server. An empty Addr disables it.
type ControlConfig struct {
	Addr string `toml:"addr"`
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:  "https://eventsapi.chaturbate.com/events",
			Timeout:  30,
			Longpoll: 20,
		},
		LED: LEDConfig{
			Count:          50,
			Brightness:     0.2,
			GatewayURL:     "ws://127.0.0.1:8787",
			Ambient:        "rainbow",
			AlertAnimation: "sparkle",
			ColorAnimation: "pulse",
		},
		Alerts: AlertsConfig{
			StandardThreshold: 1,
			ColorThreshold:    35,
			AlertDuration:     3,
			MaxAlertDuration:  10,
			ColorWindow:       600,
			DefaultColor:      "red",
			QueueDepth:        32,
		},
		Poll: PollConfig{
			InitialRetry: 5,
			MaxRetry:     60,
			RetryFactor:  2,
		},
		Control: ControlConfig{
			Addr: ":8780",
		},
	}
}

// Load reads configuration from the TOML config file (if it exists) and
// applies environment variable overrides. Env vars always win.
//
// Config file resolution: STRIPALERTS_CONFIG env var →
// ~/.config/stripalerts/config.toml → skip.
func Load() (*Config, error) {
	cfg := defaults()

	path := configPath()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, err
			}
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func configPath() string {
	if p := os.Getenv("STRIPALERTS_CONFIG"); p != "" {
		return expandHome(p)
	}
	home := os.Getenv("HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "stripalerts", "config.toml")
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("STRIPALERTS_USERNAME", &cfg.API.Username)
	setString("STRIPALERTS_TOKEN", &cfg.API.Token)
	setString("STRIPALERTS_BASE_URL", &cfg.API.BaseURL)
	setInt("STRIPALERTS_TIMEOUT", &cfg.API.Timeout)

	setInt("STRIPALERTS_LED_COUNT", &cfg.LED.Count)
	if v := os.Getenv("STRIPALERTS_LED_BRIGHTNESS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.LED.Brightness = f
		}
	}
	setString("STRIPALERTS_GATEWAY_URL", &cfg.LED.GatewayURL)
	setString("STRIPALERTS_GATEWAY_TOKEN", &cfg.LED.GatewayToken)

	setInt("STRIPALERTS_STANDARD_THRESHOLD", &cfg.Alerts.StandardThreshold)
	setInt("STRIPALERTS_COLOR_THRESHOLD", &cfg.Alerts.ColorThreshold)
	setInt("STRIPALERTS_ALERT_DURATION", &cfg.Alerts.AlertDuration)
	setInt("STRIPALERTS_COLOR_WINDOW", &cfg.Alerts.ColorWindow)
	setString("STRIPALERTS_DEFAULT_COLOR", &cfg.Alerts.DefaultColor)

	setString("STRIPALERTS_CONTROL_ADDR", &cfg.Control.Addr)
}

// Validate checks required fields and clamps nonsense values to defaults.
func (c *Config) Validate() error {
	if c.API.Username == "" {
		return fmt.Errorf("api.username is required (STRIPALERTS_USERNAME)")
	}
	if c.API.Token == "" {
		return fmt.Errorf("api.token is required (STRIPALERTS_TOKEN)")
	}

	def := defaults()

	if c.API.Timeout < 1 {
		c.API.Timeout = def.API.Timeout
	}
	if c.API.Longpoll < 1 {
		c.API.Longpoll = def.API.Longpoll
	}

	if c.LED.Count < 1 {
		c.LED.Count = def.LED.Count
	}
	if c.LED.Brightness <= 0 || c.LED.Brightness > 1 {
		c.LED.Brightness = def.LED.Brightness
	}

	if c.Alerts.StandardThreshold < 1 {
		c.Alerts.StandardThreshold = 1
	}
	if c.Alerts.ColorThreshold < c.Alerts.StandardThreshold {
		c.Alerts.ColorThreshold = c.Alerts.StandardThreshold
	}
	if c.Alerts.AlertDuration < 1 {
		c.Alerts.AlertDuration = def.Alerts.AlertDuration
	}
	if c.Alerts.MaxAlertDuration < c.Alerts.AlertDuration {
		c.Alerts.MaxAlertDuration = c.Alerts.AlertDuration
	}
	if c.Alerts.ColorWindow < 1 {
		c.Alerts.ColorWindow = def.Alerts.ColorWindow
	}
	if c.Alerts.QueueDepth < 0 {
		c.Alerts.QueueDepth = def.Alerts.QueueDepth
	}

	if c.Poll.InitialRetry < 1 {
		c.Poll.InitialRetry = def.Poll.InitialRetry
	}
	if c.Poll.MaxRetry < c.Poll.InitialRetry {
		c.Poll.MaxRetry = def.Poll.MaxRetry
	}
	if c.Poll.RetryFactor < 2 {
		c.Poll.RetryFactor = def.Poll.RetryFactor
	}

	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
