package config

import (
	"fmt"
	"os"
	"strconv"
)

const minAuthSecretLength = 32

type Config struct {
	Port          int
	MetricsPort   int
	Domain        string
	AuthSecret    string
	DataDir       string
	AdminEmail    string
	AdminPassword string
	BehindProxy   bool
	Debug         bool
}

func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d out of range", port)
	}

	metricsPort, err := strconv.Atoi(getEnv("METRICS_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_PORT: %w", err)
	}
	if metricsPort < 0 || metricsPort > 65535 {
		return nil, fmt.Errorf("invalid METRICS_PORT: %d out of range", metricsPort)
	}
	if metricsPort == port {
		return nil, fmt.Errorf("METRICS_PORT must differ from PORT")
	}

	behindProxy, err := strconv.ParseBool(getEnv("BEHIND_PROXY", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid BEHIND_PROXY: %w", err)
	}

	debug, err := strconv.ParseBool(getEnv("DEBUG", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEBUG: %w", err)
	}

	authSecret := os.Getenv("AUTH_SECRET")
	if authSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is required")
	}
	if len(authSecret) < minAuthSecretLength {
		return nil, fmt.Errorf("AUTH_SECRET must be at least %d bytes", minAuthSecretLength)
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if (adminEmail == "") != (adminPassword == "") {
		return nil, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return &Config{
		Port:          port,
		MetricsPort:   metricsPort,
		Domain:        getEnv("DOMAIN", "localhost:8080"),
		AuthSecret:    authSecret,
		DataDir:       getEnv("DATA_DIR", "/data"),
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
		BehindProxy:   behindProxy,
		Debug:         debug,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
