// Package config loads server, storage and board engine settings from the
// environment, an optional .env file and an optional YAML file of engine
// limits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type (
	Config struct {
		Server      ServerConfig
		Auth        AuthConfig
		Storage     StorageConfig
		Board       BoardConfig
		LinkPreview LinkPreviewConfig
	}

	ServerConfig struct {
		CORSOrigins []string
		// MaxBufferSize bounds socket.io message payloads.
		MaxBufferSize int64
	}

	AuthConfig struct {
		JWTSecret   string
		Required    bool
		TokenExpiry time.Duration
	}

	StorageConfig struct {
		Type           string
		LocalPath      string
		DataSourceName string
		S3Bucket       string
		Postgres       PostgresConfig
		Redis          RedisConfig
	}

	PostgresConfig struct {
		Host     string
		Port     string
		User     string
		Password string
		DBName   string
		SSLMode  string
		TimeZone string
	}

	RedisConfig struct {
		Addr     string
		Password string
	}

	// BoardConfig holds the engine limits. It can be overridden from YAML.
	BoardConfig struct {
		HistoryDepth  int           `yaml:"history_depth"`
		FreeTierLimit int           `yaml:"free_tier_limit"`
		ZoomMin       float64       `yaml:"zoom_min"`
		ZoomMax       float64       `yaml:"zoom_max"`
		Padding       float64       `yaml:"padding"`
		MinExtent     float64       `yaml:"min_extent"`
		GridSnap      float64       `yaml:"grid_snap"`
		SaveDebounce  time.Duration `yaml:"save_debounce"`
	}

	LinkPreviewConfig struct {
		Enabled bool
		Timeout time.Duration
	}
)

// Load reads the configuration. A missing .env file is not an error.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			CORSOrigins:   getList("CORS_ALLOW_ORIGINS", []string{"*"}),
			MaxBufferSize: int64(getInt("SOCKET_MAX_BUFFER", 10<<20)),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			Required:    getBool("AUTH_REQUIRED", false),
			TokenExpiry: getDuration("TOKEN_EXPIRY", 7*24*time.Hour),
		},
		Storage: StorageConfig{
			Type:           getEnv("STORAGE_TYPE", "memory"),
			LocalPath:      getEnv("LOCAL_STORAGE_PATH", "./data"),
			DataSourceName: getEnv("DATA_SOURCE_NAME", "anotequest.db"),
			S3Bucket:       getEnv("S3_BUCKET_NAME", ""),
			Postgres: PostgresConfig{
				Host:     getEnv("DB_HOST", "localhost"),
				Port:     getEnv("DB_PORT", "5432"),
				User:     getEnv("DB_USER", "postgres"),
				Password: getEnv("DB_PASSWORD", ""),
				DBName:   getEnv("DB_NAME", "anotequest"),
				SSLMode:  getEnv("DB_SSLMODE", "disable"),
				TimeZone: getEnv("DB_TIMEZONE", "UTC"),
			},
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
			},
		},
		Board: BoardConfig{
			HistoryDepth:  getInt("HISTORY_DEPTH", 50),
			FreeTierLimit: getInt("FREE_TIER_LIMIT", 100),
			ZoomMin:       getFloat("ZOOM_MIN", 0.25),
			ZoomMax:       getFloat("ZOOM_MAX", 3.0),
			Padding:       getFloat("CANVAS_PADDING", 400),
			MinExtent:     getFloat("CANVAS_MIN_EXTENT", 4000),
			GridSnap:      getFloat("GRID_SNAP", 0),
			SaveDebounce:  getDuration("SAVE_DEBOUNCE", 500*time.Millisecond),
		},
		LinkPreview: LinkPreviewConfig{
			Enabled: getBool("LINK_PREVIEW_ENABLED", true),
			Timeout: getDuration("LINK_PREVIEW_TIMEOUT", 5*time.Second),
		},
	}

	if path := os.Getenv("BOARD_CONFIG_FILE"); path != "" {
		if err := cfg.Board.LoadFile(path); err != nil {
			logrus.WithError(err).WithField("path", path).Warn("Failed to load board config file, using environment values")
		} else {
			logrus.WithField("path", path).Info("Board config file loaded")
		}
	}
	if err := cfg.Board.Validate(); err != nil {
		logrus.WithError(err).Warn("Invalid board limits, falling back to defaults")
		cfg.Board = DefaultBoard()
	}
	return cfg
}

// DefaultBoard returns the built-in engine limits.
func DefaultBoard() BoardConfig {
	return BoardConfig{
		HistoryDepth:  50,
		FreeTierLimit: 100,
		ZoomMin:       0.25,
		ZoomMax:       3.0,
		Padding:       400,
		MinExtent:     4000,
		SaveDebounce:  500 * time.Millisecond,
	}
}

// LoadFile overlays the YAML file at path. Keys absent from the file keep
// their current values.
func (b *BoardConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, b); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (b BoardConfig) Validate() error {
	switch {
	case b.HistoryDepth < 1:
		return fmt.Errorf("history depth must be positive, got %d", b.HistoryDepth)
	case b.ZoomMin <= 0 || b.ZoomMax < b.ZoomMin:
		return fmt.Errorf("zoom bounds [%v, %v] are invalid", b.ZoomMin, b.ZoomMax)
	case b.MinExtent < 0 || b.Padding < 0:
		return fmt.Errorf("canvas extent and padding must not be negative")
	case b.SaveDebounce < 0:
		return fmt.Errorf("save debounce must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration accepts Go durations or a bare number of milliseconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
