package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores application-level configuration loaded from the
// environment.
type Config struct {
	FFmpegPath    string // explicit ffmpeg override; empty means resolve
	TempDir       string // where preview artifacts and intermediates go
	DBPath        string // settings database location
	GitHubRepo    string // "owner/repo" slug for update checks
	AppVersion    string
	PreviewPoints int // waveform preview decimation cap, 0 keeps all
	LogLevel      string
	LogPath       string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load reads configuration from a .env file (when present) and the
// environment, falling back to defaults.
func Load() *Config {
	// godotenv.Load will not override variables already set.
	_ = godotenv.Load()

	return &Config{
		FFmpegPath:    getEnv("FFMPEG_PATH", ""),
		TempDir:       getEnv("STITCH_TEMP_DIR", os.TempDir()),
		DBPath:        getEnv("STITCH_DB_PATH", "trackstitch.sqlite3"),
		GitHubRepo:    getEnv("STITCH_GITHUB_REPO", "trackstitch/trackstitch"),
		AppVersion:    getEnv("STITCH_VERSION", "1.0"),
		PreviewPoints: getEnvInt("STITCH_PREVIEW_POINTS", 4096),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       getEnv("LOG_PATH", ""),
	}
}
