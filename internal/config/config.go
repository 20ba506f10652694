package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env              string `yaml:"env" env-default:"local"`
	StoragePath      string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	RedisAddr        string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	BusinessTimeZone string `yaml:"business_timezone" env:"BUSINESS_TIMEZONE" env-default:"America/Toronto"`
	HTTPServer       `yaml:"http_server"`
	Email            Email `yaml:"email"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type Email struct {
	SendGridKey string `yaml:"sendgrid_key" env:"SENDGRID_API_KEY"`
	FromEmail   string `yaml:"from_email" env-default:"bookings@fitnesshealth.example"`
	FromName    string `yaml:"from_name" env-default:"Fitness Health Clinic"`
}

func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}
