package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samims/birthday/internal/birthday"
)

// DBConfig holds the Postgres connection settings
type DBConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
}

// NotifierConfig describes the outbound notification endpoint.
type NotifierConfig struct {
	Endpoint        string
	Timeout         time.Duration
	ServerFaultRate float64
}

// SchedulerConfig describes when the daily scan fires.
type SchedulerConfig struct {
	Hour          int
	Minute        int
	Interval      time.Duration
	Timezone      string
	LeapDayPolicy birthday.LeapDayPolicy
}

// Location resolves Timezone. "Local" and "" mean the process zone.
func (c SchedulerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// KafkaConfig enables the outcome event producer when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type TracingConfig struct {
	ServiceName       string
	CollectorEndpoint string
}

func (c TracingConfig) Enabled() bool {
	return c.CollectorEndpoint != ""
}

type LogConfig struct {
	Level  string
	Format string
}

type Config struct {
	Port      string
	DB        DBConfig
	Notifier  NotifierConfig
	Scheduler SchedulerConfig
	Kafka     KafkaConfig
	Tracing   TracingConfig
	Log       LogConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "3000")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")
	v.SetDefault("NOTIFY_ENDPOINT", "https://email-service.digitalenvision.com.au")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("NOTIFY_SERVER_FAULT_RATE", 0.1)
	v.SetDefault("SCHEDULE_HOUR", 9)
	v.SetDefault("SCHEDULE_MINUTE", 0)
	v.SetDefault("SCHEDULE_INTERVAL", "60s")
	v.SetDefault("SCHEDULE_TIMEZONE", "Local")
	v.SetDefault("BIRTHDAY_LEAP_DAY_POLICY", string(birthday.LeapDayStrict))
	v.SetDefault("KAFKA_OUTCOME_TOPIC", "birthday.notification.outcomes")
	v.SetDefault("OTEL_SERVICE_NAME", "birthday-service")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	// .env is optional; the environment always wins.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	policy, err := birthday.ParseLeapDayPolicy(v.GetString("BIRTHDAY_LEAP_DAY_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Port: v.GetString("HTTP_PORT"),
		DB: DBConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		Notifier: NotifierConfig{
			Endpoint:        v.GetString("NOTIFY_ENDPOINT"),
			Timeout:         v.GetDuration("NOTIFY_TIMEOUT"),
			ServerFaultRate: v.GetFloat64("NOTIFY_SERVER_FAULT_RATE"),
		},
		Scheduler: SchedulerConfig{
			Hour:          v.GetInt("SCHEDULE_HOUR"),
			Minute:        v.GetInt("SCHEDULE_MINUTE"),
			Interval:      v.GetDuration("SCHEDULE_INTERVAL"),
			Timezone:      v.GetString("SCHEDULE_TIMEZONE"),
			LeapDayPolicy: policy,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_OUTCOME_TOPIC"),
		},
		Tracing: TracingConfig{
			ServiceName:       v.GetString("OTEL_SERVICE_NAME"),
			CollectorEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Notifier.Endpoint == "" {
		return fmt.Errorf("NOTIFY_ENDPOINT is required")
	}
	if c.Notifier.Timeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive, got %s", c.Notifier.Timeout)
	}
	if c.Notifier.ServerFaultRate < 0 || c.Notifier.ServerFaultRate > 1 {
		return fmt.Errorf("NOTIFY_SERVER_FAULT_RATE must be within [0,1], got %v", c.Notifier.ServerFaultRate)
	}
	if c.Scheduler.Hour < 0 || c.Scheduler.Hour > 23 {
		return fmt.Errorf("SCHEDULE_HOUR must be within 0-23, got %d", c.Scheduler.Hour)
	}
	if c.Scheduler.Minute < 0 || c.Scheduler.Minute > 59 {
		return fmt.Errorf("SCHEDULE_MINUTE must be within 0-59, got %d", c.Scheduler.Minute)
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHEDULE_INTERVAL must be positive, got %s", c.Scheduler.Interval)
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return fmt.Errorf("SCHEDULE_TIMEZONE: %w", err)
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_OUTCOME_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
