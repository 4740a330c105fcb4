package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DataDir        string
	Workers        int
	QueueSize      int
	RenderDPI      float64
	OCRPrimary     []string
	OCRFallback    []string
	PageTimeout    time.Duration
	JobTTL         time.Duration
	JanitorEvery   time.Duration
	RequestTimeout time.Duration
	MaxUploadBytes int64
	LogLevel       string
	LogFormat      string
	HeuristicsFile string

	Heuristics *Heuristics
}

// LoadConfig loads the environment (and an optional .env file) into a Config.
func LoadConfig() (*Config, error) {

	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8000"),
		DataDir:        getEnv("DATA_DIR", "./data"),
		Workers:        getEnvInt("WORKERS", 2),
		QueueSize:      getEnvInt("QUEUE_SIZE", 64),
		RenderDPI:      float64(getEnvInt("RENDER_DPI", 150)),
		OCRPrimary:     splitLangs(getEnv("OCR_PRIMARY_LANGS", "chi_sim+eng")),
		OCRFallback:    splitLangs(getEnv("OCR_FALLBACK_LANGS", "eng")),
		PageTimeout:    getEnvDuration("PAGE_TIMEOUT", 2*time.Minute),
		JobTTL:         getEnvDuration("JOB_TTL", 24*time.Hour),
		JanitorEvery:   getEnvDuration("JANITOR_INTERVAL", 10*time.Minute),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 2*time.Minute),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 64)) << 20,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		HeuristicsFile: getEnv("HEURISTICS_FILE", ""),
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("WORKERS must be at least 1, got %d", cfg.Workers)
	}
	if cfg.QueueSize < 1 {
		return nil, fmt.Errorf("QUEUE_SIZE must be at least 1, got %d", cfg.QueueSize)
	}
	if cfg.RenderDPI <= 0 {
		return nil, fmt.Errorf("RENDER_DPI must be positive")
	}
	if len(cfg.OCRPrimary) == 0 {
		return nil, fmt.Errorf("OCR_PRIMARY_LANGS not set")
	}

	h, err := LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		return nil, err
	}
	cfg.Heuristics = h

	return cfg, nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// splitLangs turns a tesseract profile such as "chi_sim+eng" into its parts.
func splitLangs(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "+") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
