package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables with the TEXTWORKER_
// prefix, applies defaults, and validates the result. Nested keys map to
// environment variables with underscores: llm.base_url becomes
// TEXTWORKER_LLM_BASE_URL.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TEXTWORKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Database defaults
	v.SetDefault("database.url", "")

	// LLM defaults
	v.SetDefault("llm.backend", "llamacpp")
	v.SetDefault("llm.base_url", "http://localhost:8000")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.timeout_secs", 120)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.top_p", 0.9)

	// Worker defaults
	v.SetDefault("worker.count", 4)
	v.SetDefault("worker.queue_size", 100)
	v.SetDefault("worker.stuck_task_age_secs", 1800)
	v.SetDefault("worker.monitor_interval_secs", 300)

	// Retry defaults
	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.base_delay_secs", 60)
	v.SetDefault("retry.max_delay_secs", 3600)
	v.SetDefault("retry.jitter", true)

	// Text heuristics: empty lists fall back to the built-in defaults.
	v.SetDefault("text.keyword_placeholder_patterns", []string{})
	v.SetDefault("text.summary_placeholder_patterns", []string{})
	v.SetDefault("text.summary_prefix_patterns", []string{})
	v.SetDefault("text.sentence_endings", []string{})
}
