package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	aws_pkg "github.com/nawoda2/Temporal-Order-Lifecycle/pkg/aws"
)

// Config holds all configuration for the order lifecycle service.
type Config struct {
	Port string
	Env  string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	TemporalAddress   string
	OrderTaskQueue    string
	ShippingTaskQueue string

	// InjectFaults enables the activity layer's fault injector. Never enable
	// in production.
	InjectFaults bool

	SNSTopicArn  string
	KafkaBrokers string
	KafkaTopic   string
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override for the database credentials.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8000"),
		Env:               getEnv("ENV", "development"),
		PostgresUser:      os.Getenv("POSTGRES_USER"),
		PostgresPassword:  os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:        os.Getenv("POSTGRES_DB"),
		PostgresHost:      os.Getenv("POSTGRES_HOST"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:   getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:  getEnv("POSTGRES_TIMEZONE", "UTC"),
		TemporalAddress:   getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		OrderTaskQueue:    getEnv("ORDER_TASK_QUEUE", "order-tq"),
		ShippingTaskQueue: getEnv("SHIPPING_TASK_QUEUE", "shipping-tq"),
		InjectFaults:      getEnv("INJECT_FAULTS", "false") == "true",
		SNSTopicArn:       os.Getenv("SNS_TOPIC_ARN"),
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "order.lifecycle"),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)

			var m map[string]string
			if err := sm.GetJSONSecret(context.Background(), "orders/DB_CREDENTIALS", &m); err == nil {
				if v, ok := m["POSTGRES_USER"]; ok && v != "" {
					cfg.PostgresUser = v
				}
				if v, ok := m["POSTGRES_PASSWORD"]; ok && v != "" {
					cfg.PostgresPassword = v
				}
				if v, ok := m["POSTGRES_DB"]; ok && v != "" {
					cfg.PostgresDB = v
				}
				if v, ok := m["POSTGRES_HOST"]; ok && v != "" {
					cfg.PostgresHost = v
				}
				if v, ok := m["POSTGRES_PORT"]; ok && v != "" {
					cfg.PostgresPort = v
				}
			}
		}
	}

	return cfg, nil
}

// ValidateDatabase checks the Postgres settings the workers need. The API
// binary never touches the store directly and skips this.
func (c *Config) ValidateDatabase() error {
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}
	return nil
}

// KafkaBrokerList splits the comma-separated broker list.
func (c *Config) KafkaBrokerList() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	return strings.Split(c.KafkaBrokers, ",")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
