// Package config loads settings from .env, environment variables, and
// flags, in that order of increasing precedence for the port.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	LLM      LLMConfig
	Store    StoreConfig
	Artifact ArtifactConfig
}

type LLMConfig struct {
	APIKey     string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
	Retries    int
	CacheSize  int
}

type StoreConfig struct {
	// Backend is "file", "sqlite", or "postgres".
	Backend       string
	Path          string
	DSN           string
	MaxBytes      int64
	RetentionDays int
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:     *port,
		Env:      env,
		LLM:      loadLLMConfig(),
		Store:    loadStoreConfig(),
		Artifact: loadArtifactConfig(env),
	}, nil
}

func loadLLMConfig() LLMConfig {
	return LLMConfig{
		APIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		TextModel:  firstNonEmpty(os.Getenv("LLM_TEXT_MODEL"), "gemini-2.5-flash"),
		ImageModel: firstNonEmpty(os.Getenv("LLM_IMAGE_MODEL"), "gemini-2.5-flash-image-preview"),
		Timeout:    time.Duration(envInt("LLM_TIMEOUT_SECONDS", 90)) * time.Second,
		Retries:    envInt("LLM_RETRIES", 2),
		CacheSize:  envInt("LLM_CACHE_SIZE", 256),
	}
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:       firstNonEmpty(strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND"))), "file"),
		Path:          firstNonEmpty(os.Getenv("STORE_PATH"), "data/projects.json"),
		DSN:           strings.TrimSpace(os.Getenv("STORE_PG_DSN")),
		MaxBytes:      int64(envInt("STORE_MAX_BYTES", 0)),
		RetentionDays: envInt("STORE_RETENTION_DAYS", 20),
	}
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(os.Getenv("ARTIFACT_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(os.Getenv("ARTIFACT_S3_ACCESS_KEY"), os.Getenv("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(os.Getenv("ARTIFACT_S3_SECRET_KEY"), os.Getenv("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(os.Getenv("ARTIFACT_S3_BUCKET"), "roomcraft-artifacts"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
