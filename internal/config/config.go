// Package config reads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends accepted by SKETCH_STORE.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreFile     = "file"
)

// MinIO holds the overlay bucket settings. An empty endpoint disables
// remote asset storage.
type MinIO struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Config is the process configuration.
type Config struct {
	Addr        string
	Store       string
	SQLitePath  string
	DatabaseURL string
	RedisURL    string
	FileDir     string
	MinIO       MinIO

	PricingCatalog string
	GSTRate        float64
	HistoryLimit   int
}

// Load reads .env files if present and then the environment. Variables
// already set in the environment win over .env values.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Addr:        getenv("SKETCH_ADDR", ":8080"),
		Store:       strings.ToLower(getenv("SKETCH_STORE", StoreSQLite)),
		SQLitePath:  getenv("SQLITE_PATH", "sitesketch.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		FileDir:     getenv("SKETCH_FILE_DIR", "sketches"),
		MinIO: MinIO{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getenv("MINIO_BUCKET", "sitesketch"),
			UseSSL:    getenvBool("MINIO_USE_SSL", false),
		},
		PricingCatalog: os.Getenv("PRICING_CATALOG"),
		GSTRate:        getenvFloat("GST_RATE", 0.05),
		HistoryLimit:   getenvInt("HISTORY_LIMIT", 0),
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

func getenvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
