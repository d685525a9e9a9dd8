package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Database      string
	UploadDir     string
	SessionSecret string
	TokenTTL      time.Duration

	// OCR engine selection: "tesseract" (default) or "vision".
	OCREngine      string
	OCRLanguage    string
	VisionKey      string
	VisionEndpoint string
	VisionModel    string

	// Answer checking thresholds.
	SimilarityThreshold float64
	OverlapThreshold    float64

	// Extraction presentation.
	ShuffleCards bool
	DomainTerms  []string
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()
	cfg := Config{
		Database:      getEnv("DATABASE_PATH", "./data/flashmind.db"),
		UploadDir:     getEnv("UPLOAD_DIR", "./static/uploads"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 24*60)) * time.Minute,

		OCREngine:      getEnv("OCR_ENGINE", "tesseract"),
		OCRLanguage:    getEnv("OCR_LANGUAGE", "eng"),
		VisionKey:      os.Getenv("OPENAI_API_KEY"),
		VisionEndpoint: getEnv("OPENAI_API_ENDPOINT", ""),
		VisionModel:    getEnv("OCR_VISION_MODEL", "gpt-4o-mini"),

		SimilarityThreshold: getEnvFloat("ANSWER_SIMILARITY", 75),
		OverlapThreshold:    getEnvFloat("ANSWER_OVERLAP", 0.6),

		ShuffleCards: getEnv("SHUFFLE_CARDS", "true") == "true",
	}
	if terms := os.Getenv("DOMAIN_TERMS"); terms != "" {
		cfg.DomainTerms = splitCSV(terms)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("failed to ensure upload dir %s: %v", cfg.UploadDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		log.Fatalf("failed to ensure database dir %s: %v", cfg.Database, err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
