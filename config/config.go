package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`

	// Slot generation.
	SlotDurationMinutes int    `mapstructure:"SLOT_DURATION_MINUTES"`
	SlotHorizonDays     int    `mapstructure:"SLOT_HORIZON_DAYS"`
	SlotCronSpec        string `mapstructure:"SLOT_CRON_SPEC"`

	// Reminder/follow-up offsets, parsed as Go durations.
	ReminderOffsets []string `mapstructure:"REMINDER_OFFSETS"`
	FollowUpOffset  string   `mapstructure:"FOLLOWUP_OFFSET"`

	// Dispatch coordinator.
	DispatchWorkers      int    `mapstructure:"DISPATCH_WORKERS"`
	DispatchPollInterval string `mapstructure:"DISPATCH_POLL_INTERVAL"`
	DispatchBatchSize    int    `mapstructure:"DISPATCH_BATCH_SIZE"`
	DispatchLeaseTTL     string `mapstructure:"DISPATCH_LEASE_TTL"`
	DispatchMaxAttempts  int    `mapstructure:"DISPATCH_MAX_ATTEMPTS"`
	DispatchBackoffBase  string `mapstructure:"DISPATCH_BACKOFF_BASE"`
	DispatchBackoffMax   string `mapstructure:"DISPATCH_BACKOFF_MAX"`
}

// SlotConfig is handed to the availability service at construction.
type SlotConfig struct {
	SlotDuration time.Duration
	HorizonDays  int
	CronSpec     string
}

// ReminderConfig drives how many events a booking schedules and when.
type ReminderConfig struct {
	Offsets  []time.Duration // before appointment start
	FollowUp time.Duration   // after appointment end
}

// DispatchConfig tunes the dispatch coordinator worker pool.
type DispatchConfig struct {
	Workers      int
	PollInterval time.Duration
	BatchSize    int
	LeaseTTL     time.Duration
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "schedcore")
	viper.SetDefault("SLOT_DURATION_MINUTES", 60)
	viper.SetDefault("SLOT_HORIZON_DAYS", 28)
	viper.SetDefault("SLOT_CRON_SPEC", "0 2 * * *")
	viper.SetDefault("REMINDER_OFFSETS", []string{"24h", "2h", "30m"})
	viper.SetDefault("FOLLOWUP_OFFSET", "24h")
	viper.SetDefault("DISPATCH_WORKERS", 4)
	viper.SetDefault("DISPATCH_POLL_INTERVAL", "5s")
	viper.SetDefault("DISPATCH_BATCH_SIZE", 20)
	viper.SetDefault("DISPATCH_LEASE_TTL", "2m")
	viper.SetDefault("DISPATCH_MAX_ATTEMPTS", 5)
	viper.SetDefault("DISPATCH_BACKOFF_BASE", "30s")
	viper.SetDefault("DISPATCH_BACKOFF_MAX", "30m")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// Slots builds the slot generator configuration.
func (c Config) Slots() SlotConfig {
	return SlotConfig{
		SlotDuration: time.Duration(c.SlotDurationMinutes) * time.Minute,
		HorizonDays:  c.SlotHorizonDays,
		CronSpec:     c.SlotCronSpec,
	}
}

// Reminders builds the reminder schedule configuration.
func (c Config) Reminders() ReminderConfig {
	offsets := make([]time.Duration, 0, len(c.ReminderOffsets))
	for _, raw := range c.ReminderOffsets {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("Invalid reminder offset %q: %v", raw, err)
		}
		offsets = append(offsets, d)
	}
	return ReminderConfig{Offsets: offsets, FollowUp: mustDuration(c.FollowUpOffset)}
}

// Dispatch builds the dispatch coordinator configuration.
func (c Config) Dispatch() DispatchConfig {
	return DispatchConfig{
		Workers:      c.DispatchWorkers,
		PollInterval: mustDuration(c.DispatchPollInterval),
		BatchSize:    c.DispatchBatchSize,
		LeaseTTL:     mustDuration(c.DispatchLeaseTTL),
		MaxAttempts:  c.DispatchMaxAttempts,
		BackoffBase:  mustDuration(c.DispatchBackoffBase),
		BackoffMax:   mustDuration(c.DispatchBackoffMax),
	}
}

func mustDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("Invalid duration %q: %v", raw, err)
	}
	return d
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
