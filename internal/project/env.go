package project

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// EnvPrefix is prepended to every environment variable read by ApplyEnv.
const EnvPrefix = "ROOMLOAD_"

// ApplyEnv loads the given .env files (".env" when none are given; missing
// files are ignored) and then overrides config fields from ROOMLOAD_*
// variables: PORT, UPLOAD_DIR, MAX_FILE_SIZE, CORS_ORIGIN (comma separated),
// LOG_LEVEL, LOG_FORMAT, HISTORY_DB, FACTORS and POWER_FACTOR. A bare PORT
// is honoured when ROOMLOAD_PORT is unset.
func ApplyEnv(config *model.AppConfig, envFiles ...string) {
	_ = godotenv.Load(envFiles...)

	config.Port = getEnvAsInt("PORT", getEnvAsIntRaw("PORT", config.Port))
	config.UploadDir = getEnv("UPLOAD_DIR", config.UploadDir)
	config.MaxUploadSize = getEnvAsInt("MAX_FILE_SIZE", config.MaxUploadSize)
	if origins := getEnv("CORS_ORIGIN", ""); origins != "" {
		config.CORSOrigins = splitList(origins)
	}
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.LogFormat = getEnv("LOG_FORMAT", config.LogFormat)
	config.HistoryDB = getEnv("HISTORY_DB", config.HistoryDB)
	config.FactorsPath = getEnv("FACTORS", config.FactorsPath)
	if pf, err := strconv.ParseFloat(getEnv("POWER_FACTOR", ""), 64); err == nil && pf > 0 && pf <= 1 {
		config.PowerFactor = pf
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

// getEnvAsIntRaw reads an unprefixed variable.
func getEnvAsIntRaw(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
