package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"booking-service/internal/policy"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

const defaultConfigPath = "./config/config.yaml"

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	Storage    `yaml:"storage"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	Schedule   `yaml:"schedule"`
	Policy     `yaml:"policy"`
	Tracing    `yaml:"tracing"`
}

type Storage struct {
	Driver        string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	PostgresDSN   string `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
	MongoURI      string `yaml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"booking"`
}

type Redis struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"REDIS_LOCK_TTL" env-default:"10s"`
}

type HTTPServer struct {
	Address            string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout            time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout        time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
	RateLimitRPS       float64       `yaml:"rate_limit_rps" env-default:"5"`
	RateLimitBurst     int           `yaml:"rate_limit_burst" env-default:"20"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

// Schedule lists the bookable HH:mm times per weekday in the practice timezone.
type Schedule struct {
	Timezone  string   `yaml:"timezone" env:"SCHEDULE_TIMEZONE" env-default:"Europe/Berlin"`
	Monday    []string `yaml:"monday" env-default:"09:00,10:00,11:00,12:00,14:00,15:00,16:00,17:00"`
	Tuesday   []string `yaml:"tuesday" env-default:"09:00,10:00,11:00,12:00,14:00,15:00,16:00,17:00,18:00,19:00"`
	Wednesday []string `yaml:"wednesday" env-default:"09:00,10:00,11:00,12:00,14:00,15:00,16:00,17:00"`
	Thursday  []string `yaml:"thursday" env-default:"09:00,10:00,11:00,12:00,14:00,15:00,16:00,17:00,18:00,19:00"`
	Friday    []string `yaml:"friday" env-default:"09:00,10:00,11:00,12:00,14:00,15:00,16:00,17:00"`
	Saturday  []string `yaml:"saturday" env-default:"09:00,10:00,11:00,12:00"`
	Sunday    []string `yaml:"sunday"`
}

type Policy struct {
	GraceWindow     time.Duration `yaml:"grace_window" env-default:"1h"`
	FeeWindow       time.Duration `yaml:"fee_window" env-default:"4h"`
	RescheduleFee   string        `yaml:"reschedule_fee" env:"POLICY_RESCHEDULE_FEE" env-default:"5.00"`
	Currency        string        `yaml:"currency" env-default:"EUR"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env-default:"60s"`
}

type Tracing struct {
	Enabled      bool    `yaml:"enabled" env:"TRACING_ENABLED" env-default:"false"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`
	SampleRatio  float64 `yaml:"sample_ratio" env-default:"1"`
}

// MustLoad reads the file named by CONFIG_PATH, falling back to ./config/config.yaml.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (s Schedule) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

func (s Schedule) Days() map[time.Weekday][]string {
	return map[time.Weekday][]string{
		time.Sunday:    s.Sunday,
		time.Monday:    s.Monday,
		time.Tuesday:   s.Tuesday,
		time.Wednesday: s.Wednesday,
		time.Thursday:  s.Thursday,
		time.Friday:    s.Friday,
		time.Saturday:  s.Saturday,
	}
}

func (p Policy) Rules() (policy.Rules, error) {
	const op = "config.Policy.Rules"

	fee, err := decimal.NewFromString(p.RescheduleFee)
	if err != nil {
		return policy.Rules{}, fmt.Errorf("%s: reschedule_fee: %w", op, err)
	}

	return policy.Rules{
		GraceWindow:   p.GraceWindow,
		FeeWindow:     p.FeeWindow,
		RescheduleFee: fee,
		Currency:      p.Currency,
	}, nil
}
