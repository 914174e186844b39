package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"push-service/database"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the push service.
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

	// Android gateway
	GoogleProjectID string
	GoogleKeyFile   string

	// Apple gateway
	ApnsP8      []byte
	ApnsKeyID   string
	AppleTeamID string
	ApnsTopic   string

	JWTSecret   string
	SQSQueueURL string
	SendTimeout time.Duration
}

// LoadConfig reads configuration from environment variables. Every value the
// dispatch engine needs must be present; the process refuses to start
// without them.
func LoadConfig() (*Config, error) {
	// .env is optional; the system environment wins when absent.
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "3000"),
		Env:              getEnv("APP_ENV", "production"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		GoogleProjectID:  os.Getenv("GOOGLE_PROJECT_ID"),
		GoogleKeyFile:    os.Getenv("GOOGLE_KEY_FILE"),
		ApnsKeyID:        os.Getenv("APNS_P8_KID"),
		AppleTeamID:      os.Getenv("APPLE_TEAM_ID"),
		ApnsTopic:        os.Getenv("APNS_TOPIC"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		SQSQueueURL:      os.Getenv("SQS_QUEUE_URL"),
		SendTimeout:      10 * time.Second,
	}

	p8, err := decodeApnsKey(os.Getenv("APNS_P8"))
	if err != nil {
		return nil, err
	}
	cfg.ApnsP8 = p8

	required := map[string]string{
		"POSTGRES_USER":     cfg.PostgresUser,
		"POSTGRES_PASSWORD": cfg.PostgresPassword,
		"POSTGRES_DB":       cfg.PostgresDB,
		"GOOGLE_PROJECT_ID": cfg.GoogleProjectID,
		"GOOGLE_KEY_FILE":   cfg.GoogleKeyFile,
		"APNS_P8_KID":       cfg.ApnsKeyID,
		"APPLE_TEAM_ID":     cfg.AppleTeamID,
		"APNS_TOPIC":        cfg.ApnsTopic,
		"JWT_SECRET":        cfg.JWTSecret,
	}
	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(cfg.ApnsP8) == 0 {
		missing = append(missing, "APNS_P8")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// Postgres builds the database connection parameters.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPassword,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSLMode,
		TimeZone: c.PostgresTimeZone,
	}
}

// decodeApnsKey accepts the .p8 signing key either as raw PEM or hex-encoded
// PEM (the form deployment tooling tends to produce).
func decodeApnsKey(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "-----") {
		return []byte(raw), nil
	}
	decoded, err := hex.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("APNS_P8 is neither PEM nor hex: %w", err)
	}
	return decoded, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
