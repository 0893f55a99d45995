package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds every tunable the bot reads at startup.
// Secrets (tokens, keys) stay in the environment and are read by the
// packages that use them; this struct only carries the non-secret knobs.
type Config struct {
	Version string

	LogLevel      string
	MaxLogSizeMB  int64
	MaxLogBackups int

	MongoDatabase string

	// Daily prediction trigger, local server time.
	PredictionHour   int
	PredictionMinute int

	// Idle conversation sessions older than this are swept.
	SessionTTLMins int

	// Max users processed concurrently by the daily job.
	SchedulerWorkers int

	GroqModel    string
	RapidAPIHost string
}

// Load initializes the configuration.
// It tries to read a .env file and checks for necessary environment variables.
func Load() *Config {
	// Load .env variables into the process environment
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	// Define which variables are critical and confidential.
	requiredSecretVars := map[string]bool{
		"TELEGRAM_BOT_TOKEN": true,
		"GROQ_API_KEY":       true,
		"RAPID_API_KEY":      true,
		"MONGO_URI":          true,
	}

	// 1. Check for missing required variables (in actual environment)
	var missing []string
	for key := range requiredSecretVars {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		log.Fatalf("CRITICAL: Missing required environment variables: %v", missing)
	}

	// 2. Print variables defined in .env file, masking secrets
	envMap, err := godotenv.Read()
	if err == nil {
		log.Println("--- .env File Variables ---")
		for key, val := range envMap {
			if requiredSecretVars[key] {
				// Mask secret values: show only last 4 chars
				masked := "***"
				if len(val) > 4 {
					masked = "***" + val[len(val)-4:]
				}
				log.Printf("%s=%s", key, masked)
			} else {
				log.Printf("%s=%s", key, val)
			}
		}
		log.Println("---------------------------")
	}

	return &Config{
		LogLevel:         getEnvAsString("STOCKERBOT_LOG_LEVEL", "INFO"),
		MaxLogSizeMB:     int64(getEnvAsInt("STOCKERBOT_MAX_LOG_SIZE_MB", 10)),
		MaxLogBackups:    getEnvAsInt("STOCKERBOT_MAX_LOG_BACKUPS", 3),
		MongoDatabase:    getEnvAsString("MONGO_DATABASE", "stockerbot_db"),
		PredictionHour:   getEnvAsInt("PREDICTION_HOUR", 9),
		PredictionMinute: getEnvAsInt("PREDICTION_MINUTE", 0),
		SessionTTLMins:   getEnvAsInt("SESSION_TTL_MINS", 30),
		SchedulerWorkers: getEnvAsInt("SCHEDULER_WORKERS", 4),
		GroqModel:        getEnvAsString("GROQ_MODEL", "gemma2-9b-it"),
		RapidAPIHost:     getEnvAsString("RAPID_API_HOST", "indian-stock-exchange-api2.p.rapidapi.com"),
	}
}
