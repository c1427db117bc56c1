// Package config provides the environment-backed configuration loader used
// by the packsight service bootstrap (cmd/packsight-service/main.go).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr          string
	Categories    []string
	MaxOrders     int
	DataDir       string
	ResourceDir   string
	EncryptionKey string

	DatabaseURL string

	S3Bucket string
	S3Prefix string

	KafkaBrokers []string
	KafkaTopic   string

	WebhookURL string

	RedisURL        string
	CatalogCacheTTL time.Duration

	AuthSecret string
	RunOnStart bool
}

const (
	defaultAddr       = ":8070"
	defaultCategories = "kc,jf,jwl"
	defaultMaxOrders  = 99999
	defaultDataDir    = "data"
	defaultResources  = "resources"
	defaultCacheTTL   = 5 * time.Minute
)

// Load reads config values from environment variables. The only fatal
// condition at this layer is an empty category list; everything else has a
// default or is optional and merely disables its collaborator.
func Load() (Config, error) {
	cfg := Config{
		Addr:          getEnv("PACKSIGHT_ADDR", defaultAddr),
		Categories:    splitList(getEnv("PACKSIGHT_CATEGORIES", defaultCategories)),
		MaxOrders:     getInt("PACKSIGHT_MAX_ORDERS", defaultMaxOrders),
		DataDir:       getEnv("PACKSIGHT_DATA_DIR", defaultDataDir),
		ResourceDir:   getEnv("PACKSIGHT_RESOURCE_DIR", defaultResources),
		EncryptionKey: firstNonEmpty(os.Getenv("PACKSIGHT_ENCRYPTION_KEY"), os.Getenv("LOCAL_ENCRYPTION_KEY")),

		DatabaseURL: firstNonEmpty(os.Getenv("PACKSIGHT_DATABASE_URL"), os.Getenv("DATABASE_URL")),

		S3Bucket: os.Getenv("PACKSIGHT_S3_BUCKET"),
		S3Prefix: os.Getenv("PACKSIGHT_S3_PREFIX"),

		KafkaBrokers: splitList(os.Getenv("PACKSIGHT_KAFKA_BROKERS")),
		KafkaTopic:   os.Getenv("PACKSIGHT_KAFKA_TOPIC"),

		WebhookURL: os.Getenv("PACKSIGHT_WEBHOOK_URL"),

		RedisURL:        firstNonEmpty(os.Getenv("PACKSIGHT_REDIS_URL"), os.Getenv("REDIS_URL")),
		CatalogCacheTTL: getSeconds("PACKSIGHT_CATALOG_CACHE_TTL", defaultCacheTTL),

		AuthSecret: os.Getenv("PACKSIGHT_AUTH_SECRET"),
		RunOnStart: getBool("PACKSIGHT_RUN_ON_START", false),
	}
	if len(cfg.Categories) == 0 {
		return Config{}, fmt.Errorf("PACKSIGHT_CATEGORIES must name at least one category")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
