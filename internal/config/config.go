package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port string

	DataPath     string
	DataSource   string // csv, sqlite or postgres
	RatingPolicy string

	SQLitePath    string
	SnapshotTable string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	DBConnectRetries int

	LogLevel       string
	LogDevelopment bool

	RateLimitRPS    float64
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Load reads the .env file (or the given files) and returns a populated Config.
func Load(files ...string) *Config {
	if err := godotenv.Load(files...); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		DataPath:     getEnv("DATA_PATH", "Zomato_data.csv"),
		DataSource:   strings.ToLower(getEnv("DATA_SOURCE", "csv")),
		RatingPolicy: getEnv("RATING_POLICY", "absent"),

		SQLitePath:    getEnv("SQLITE_PATH", "./orders.db"),
		SnapshotTable: getEnv("SNAPSHOT_TABLE", "orders"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "dashboard"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "dashboard"),
		PostgresDB:       getEnv("POSTGRES_DB", "orders_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		DBConnectRetries: getEnvInt("DB_CONNECT_RETRIES", 5),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDevelopment: getEnvBool("LOG_DEVELOPMENT", false),

		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 20),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"*"}),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// DSN returns the connection string for the configured SQL source.
func (c *Config) DSN() string {
	if c.DataSource == "sqlite" {
		return c.SQLitePath
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// Driver returns the database/sql driver name for the configured SQL source.
func (c *Config) Driver() string {
	if c.DataSource == "sqlite" {
		return "sqlite3"
	}
	return "postgres"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
