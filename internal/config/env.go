package config

import (
    "os"
    "runtime"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// GeometryConfig defines the low-zoom rendering pass used for line analysis.
type GeometryConfig struct {
    Zoom     float64
    MaxWidth int
}

// OCRConfig defines the high-zoom title-block pass and Tesseract settings.
type OCRConfig struct {
    Zoom     float64
    MaxWidth int
    Language string
    Timeout  time.Duration
}

// AnalysisConfig defines detection defaults and per-run limits.
type AnalysisConfig struct {
    TopK        int
    MinScore    float64
    Concurrency int
    MaxPages    int
    MaxInflight int
}

// ServerConfig defines HTTP server behavior and limits.
type ServerConfig struct {
    Port            string
    MaxPDFMB        float64
    ShutdownTimeout time.Duration
}

// CacheConfig defines the optional Redis result cache.
type CacheConfig struct {
    RedisURL string
    TTL      time.Duration
}

// Config is the top-level configuration.
type Config struct {
    Logging  LoggingConfig
    Axiom    AxiomConfig
    Geometry GeometryConfig
    OCR      OCRConfig
    Analysis AnalysisConfig
    Server   ServerConfig
    Cache    CacheConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/plandetect.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_plandetect",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    // Geometry pass defaults (low zoom, bounded width to cap cost)
    cfg.Geometry = GeometryConfig{
        Zoom:     parseFloat(getEnv("GEOMETRY_ZOOM", "1.2"), 1.2),
        MaxWidth: parseInt(getEnv("GEOMETRY_MAX_WIDTH", "1400"), 1400),
    }

    // OCR pass defaults (higher zoom; title blocks carry small print)
    cfg.OCR = OCRConfig{
        Zoom:     parseFloat(getEnv("OCR_ZOOM", "2.5"), 2.5),
        MaxWidth: parseInt(getEnv("OCR_MAX_WIDTH", "2200"), 2200),
        Language: getEnv("OCR_LANG", "fra"),
        Timeout:  parseDuration(getEnv("OCR_TIMEOUT", "12s"), 12*time.Second),
    }

    // Analysis defaults
    cfg.Analysis = AnalysisConfig{
        TopK:        parseInt(getEnv("TOP_K", "5"), 5),
        MinScore:    parseFloat(getEnv("MIN_SCORE", "1.0"), 1.0),
        Concurrency: parseInt(getEnv("ANALYSIS_CONCURRENCY", strconv.Itoa(runtime.NumCPU())), runtime.NumCPU()),
        MaxPages:    parseInt(getEnv("MAX_PAGES", "200"), 200),
        MaxInflight: parseInt(getEnv("MAX_INFLIGHT", "4"), 4),
    }

    // Server defaults
    cfg.Server = ServerConfig{
        Port:            getEnv("PORT", "8080"),
        MaxPDFMB:        parseFloat(getEnv("MAX_PDF_MB", "35"), 35),
        ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
    }

    // Cache defaults (empty REDIS_URL disables the cache)
    cfg.Cache = CacheConfig{
        RedisURL: getEnv("REDIS_URL", ""),
        TTL:      parseDuration(getEnv("CACHE_TTL", "1h"), time.Hour),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseFloat(s string, def float64) float64 {
    if s == "" { return def }
    if f, err := strconv.ParseFloat(s, 64); err == nil { return f }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
