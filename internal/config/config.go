package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWTSecret   string
	CORSOrigins string
	TablePrefix string
	FrontendURL string
	// Email configuration
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	EmailFrom      string
	EmailFromName  string
	ContactEmailTo string
	// Stats proxy
	WakatimeAPIKey string
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		EmailFrom:      getEnv("EMAIL_FROM", ""),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", ""),
		ContactEmailTo: getEnv("CONTACT_EMAIL_TO", ""),

		WakatimeAPIKey: getEnv("WAKATIME_API_KEY", ""),
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
