package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"reserba/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
	Booking    BookingConfig    `yaml:"booking"`
	Facilities []FacilitySeed   `yaml:"facilities"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

type TelegramConfig struct {
	Enabled         bool    `yaml:"enabled"`
	BotToken        string  `yaml:"bot_token"`
	OfficialChatIDs []int64 `yaml:"official_chat_ids"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type BookingConfig struct {
	MaxBookingDays int     `yaml:"max_booking_days"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
	Timezone       string  `yaml:"timezone"`
}

// FacilitySeed declares a facility and its bookable windows in config; they
// are upserted into storage at startup.
type FacilitySeed struct {
	Facility models.Facility   `yaml:"facility"`
	Slots    []models.TimeSlot `yaml:"slots"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment wins when both define a variable.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Substitute environment variables referenced in the YAML.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth jwt_secret is required")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram bot token is required when telegram is enabled")
	}
	if c.Booking.Timezone != "" {
		if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
			return fmt.Errorf("invalid booking timezone %q: %w", c.Booking.Timezone, err)
		}
	}
	return ValidateFacilities(c.Facilities)
}

func ValidateFacilities(seeds []FacilitySeed) error {
	names := make(map[string]bool)
	for _, seed := range seeds {
		if seed.Facility.Name == "" {
			return errors.New("facility with empty name in config")
		}
		if names[seed.Facility.Name] {
			return fmt.Errorf("duplicate facility name found: %s", seed.Facility.Name)
		}
		names[seed.Facility.Name] = true

		for _, slot := range seed.Slots {
			if _, _, err := models.ParseTimeslot(slot.Display()); err != nil {
				return fmt.Errorf("facility %s: %w", seed.Facility.Name, err)
			}
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = models.DefaultSessionTTLHours
	}
	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if c.Booking.RateLimitRPS == 0 {
		c.Booking.RateLimitRPS = models.DefaultRateLimitRPS
	}
	if c.Booking.RateLimitBurst == 0 {
		c.Booking.RateLimitBurst = models.DefaultRateLimitBurst
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "Local"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}

	for i := range c.Facilities {
		seed := &c.Facilities[i]
		seed.Facility.IsActive = true
		for j := range seed.Slots {
			slot := &seed.Slots[j]
			if slot.DurationMinutes == 0 {
				if start, end, err := models.ParseTimeslot(slot.Display()); err == nil {
					slot.DurationMinutes = int64(end.Sub(start).Minutes())
				}
			}
		}
	}
}
