package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Storage     string // postgres | sqlite
	DB          DBConfig
	SQLitePath  string
	JWTSecret   string
	UploadDir   string
	Port        string
	CORSOrigins []string
	LogMode     string // development | production
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found")
	}
}

func GetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("environment variable %s is not set", key)
	}
	return value
}

func GetEnvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

// Load читает переменные окружения. Параметры postgres обязательны только для STORAGE=postgres.
func Load(storage string) Config {
	if storage == "" {
		storage = GetEnvDefault("STORAGE", "postgres")
	}

	cfg := Config{
		Storage:    storage,
		SQLitePath: GetEnvDefault("SQLITE_PATH", "blog.db"),
		JWTSecret:  os.Getenv("JWT_SECRET"), // обязателен только серверу, проверяется в cmd/server
		UploadDir:  GetEnvDefault("UPLOAD_DIR", "./uploads"),
		Port:       GetEnvDefault("APP_PORT", "8080"),
		LogMode:    GetEnvDefault("LOG_LEVEL", "development"),
	}

	for _, origin := range strings.Split(GetEnvDefault("CORS_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if storage == "postgres" {
		cfg.DB = DBConfig{
			Host:     GetEnv("DB_HOST"),
			User:     GetEnv("DB_USER"),
			Password: GetEnv("DB_PASSWORD"),
			Name:     GetEnv("DB_NAME"),
			Port:     GetEnvDefault("DB_PORT", "5432"),
			SSLMode:  GetEnvDefault("DB_SSLMODE", "disable"),
		}
	}

	return cfg
}
