package config

import (
	"fmt"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the order engine.
type Config struct {
	LogMode    string `yaml:"log_mode" env:"LOG_MODE" env-default:"dev"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	Kafka      `yaml:"kafka"`
}

type HTTPServer struct {
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8081"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-required:"true"`
	Password string `yaml:"password" env:"DB_PASSWORD" env-required:"true"`
	DBName   string `yaml:"database" env:"DB_NAME" env-required:"true"`
	SSLMode  string `yaml:"ssl_mode" env:"SSL_MODE" env-default:"disable"`
}

// Kafka configures the optional ingestion consumer. An empty broker address
// disables it.
type Kafka struct {
	Broker  string `yaml:"broker" env:"KAFKA_BROKER"`
	Topic   string `yaml:"topic" env:"KAFKA_TOPIC" env-default:"orders"`
	GroupID string `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"order-engine"`
}

// MustLoad reads configuration from CONFIG_PATH if set, otherwise from the
// environment alone. It exits on any error; there is nothing useful to do
// without configuration.
func MustLoad() *Config {
	_ = godotenv.Load()

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Fatalf("config file %s does not exist", configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
		return &cfg
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("cannot read config from environment: %s", err)
	}
	return &cfg
}

// GetDSN returns the PostgreSQL connection string.
func (p *Postgres) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host,
		p.Port,
		p.User,
		p.Password,
		p.DBName,
		p.SSLMode,
	)
}
