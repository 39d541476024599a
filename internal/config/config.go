package config

import (
	"log"
	"os"
	"time"

	"github.com/AadityaUoHyd/ABCart/pkg/utils"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string  `yaml:"env" env:"ENV" env-default:"local"`
	HTTP          HTTP    `yaml:"http"`
	Postgres      PG      `yaml:"postgres"`
	Stripe        Stripe  `yaml:"stripe"`
	SMTP          SMTP    `yaml:"smtp"`
	Clerk         Clerk   `yaml:"clerk"`
	PublicBaseURL string  `yaml:"public_base_url" env:"PUBLIC_BASE_URL" env-default:"http://localhost:3000"`
	Limiter       Limiter `yaml:"limiter"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":8080"`
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"15s"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Stripe struct {
	APIKey        string `yaml:"api_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-default:"smtp.gmail.com"`
	Port     string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	From     string `yaml:"from" env:"SMTP_EMAIL"`
	Password string `yaml:"password" env:"SMTP_APP_PASSWORD"`
}

type Clerk struct {
	SecretKey string `yaml:"secret_key" env:"CLERK_SECRET_KEY"`
}

type Limiter struct {
	Max        int           `yaml:"max" env-default:"20"`
	Expiration time.Duration `yaml:"expiration" env-default:"5s"`
}

func MustLoad() *Config {
	var cfg Config

	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("error reading config from env: %v", err)
		}

		return &cfg
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
