package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	JWTSecret   string
	CORSOrigins []string
	SessionTTL  time.Duration
	Scylla      ScyllaConfig
	Redis       RedisConfig
	Elastic     ElasticConfig
	MinIO       MinIOConfig
}

type ScyllaConfig struct {
	Hosts    []string
	Keyspace string
	Username string
	Password string
	Timeout  time.Duration
	NumConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ElasticConfig struct {
	URL      string
	User     string
	Password string
	Index    string // index des SKU de variantes
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load lit .env s'il existe, puis les variables d'environnement
func Load() (*Config, error) {
	// .env optionnel : les variables système restent prioritaires
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("EDITOR_SESSION_TTL", "2h")
	v.SetDefault("SCYLLA_HOSTS", "127.0.0.1")
	v.SetDefault("SCYLLA_KS_PRODUCTS_KEYSPACE", "ks_products")
	v.SetDefault("SCYLLA_TIMEOUT", "5s")
	v.SetDefault("SCYLLA_NUM_CONNS", 20)
	v.SetDefault("REDIS_HOST", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ELASTIC_URL", "http://localhost:9200")
	v.SetDefault("ELASTIC_VARIANTS_INDEX", "product_variants")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_BUCKET", "cedra-images")
	v.SetDefault("MINIO_USE_SSL", false)

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		JWTSecret:   strings.TrimSpace(v.GetString("JWT_SECRET")),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		SessionTTL:  v.GetDuration("EDITOR_SESSION_TTL"),
		Scylla: ScyllaConfig{
			Hosts:    splitList(v.GetString("SCYLLA_HOSTS")),
			Keyspace: v.GetString("SCYLLA_KS_PRODUCTS_KEYSPACE"),
			Username: v.GetString("SCYLLA_KS_PRODUCTS_ROLE"),
			Password: v.GetString("SCYLLA_KS_PRODUCTS_PASSWORD"),
			Timeout:  v.GetDuration("SCYLLA_TIMEOUT"),
			NumConns: v.GetInt("SCYLLA_NUM_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_HOST"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Elastic: ElasticConfig{
			URL:      v.GetString("ELASTIC_URL"),
			User:     v.GetString("ELASTIC_USER"),
			Password: v.GetString("ELASTIC_PASSWORD"),
			Index:    v.GetString("ELASTIC_VARIANTS_INDEX"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET est requis")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("EDITOR_SESSION_TTL invalide: %q", v.GetString("EDITOR_SESSION_TTL"))
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
