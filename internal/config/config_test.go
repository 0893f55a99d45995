package config

import (
	"os"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// 1. Setup Required Envs (to bypass validation)
	required := map[string]string{
		"TELEGRAM_BOT_TOKEN": "test_token",
		"GROQ_API_KEY":       "test_groq",
		"RAPID_API_KEY":      "test_rapid",
		"MONGO_URI":          "mongodb://localhost:27017",
	}

	for k, v := range required {
		os.Setenv(k, v)
		defer os.Unsetenv(k) // Clean up
	}

	// 2. Ensure Optional Envs are Unset
	optionals := []string{
		"STOCKERBOT_LOG_LEVEL",
		"MONGO_DATABASE",
		"PREDICTION_HOUR",
		"PREDICTION_MINUTE",
		"SESSION_TTL_MINS",
		"SCHEDULER_WORKERS",
		"GROQ_MODEL",
		"RAPID_API_HOST",
	}

	for _, k := range optionals {
		os.Unsetenv(k)
	}

	// 3. Load Config
	cfg := Load()

	// 4. Verify Defaults
	if cfg.LogLevel != "INFO" {
		t.Errorf("Expected LogLevel 'INFO', got '%s'", cfg.LogLevel)
	}

	if cfg.MongoDatabase != "stockerbot_db" {
		t.Errorf("Expected MongoDatabase 'stockerbot_db', got '%s'", cfg.MongoDatabase)
	}

	if cfg.PredictionHour != 9 || cfg.PredictionMinute != 0 {
		t.Errorf("Expected prediction at 09:00, got %02d:%02d", cfg.PredictionHour, cfg.PredictionMinute)
	}

	if cfg.SessionTTLMins != 30 {
		t.Errorf("Expected SessionTTLMins 30, got %d", cfg.SessionTTLMins)
	}

	if cfg.SchedulerWorkers != 4 {
		t.Errorf("Expected SchedulerWorkers 4, got %d", cfg.SchedulerWorkers)
	}

	if cfg.GroqModel != "gemma2-9b-it" {
		t.Errorf("Expected GroqModel 'gemma2-9b-it', got '%s'", cfg.GroqModel)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	required := map[string]string{
		"TELEGRAM_BOT_TOKEN": "test_token",
		"GROQ_API_KEY":       "test_groq",
		"RAPID_API_KEY":      "test_rapid",
		"MONGO_URI":          "mongodb://localhost:27017",
		"PREDICTION_HOUR":    "3",
		"PREDICTION_MINUTE":  "10",
		"SESSION_TTL_MINS":   "5",
	}

	for k, v := range required {
		os.Setenv(k, v)
		defer os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.PredictionHour != 3 || cfg.PredictionMinute != 10 {
		t.Errorf("Expected prediction at 03:10, got %02d:%02d", cfg.PredictionHour, cfg.PredictionMinute)
	}
	if cfg.SessionTTLMins != 5 {
		t.Errorf("Expected SessionTTLMins 5, got %d", cfg.SessionTTLMins)
	}
}
