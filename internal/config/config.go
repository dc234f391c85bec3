package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
	Retry    RetryConfig    `mapstructure:"retry" validate:"required"`
	Text     TextConfig     `mapstructure:"text"`
}

// ServerConfig contains the HTTP API server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains the inference backend settings.
type LLMConfig struct {
	Backend     string  `mapstructure:"backend" validate:"required,oneof=llamacpp vllm"`
	BaseURL     string  `mapstructure:"base_url" validate:"required,url"`
	Model       string  `mapstructure:"model"`
	TimeoutSecs int     `mapstructure:"timeout_secs" validate:"required,gt=0"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"required,gt=0"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	TopP        float64 `mapstructure:"top_p" validate:"gte=0,lte=1"`
}

// Timeout returns the per-request timeout as a duration.
func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// WorkerConfig contains the task runner settings.
type WorkerConfig struct {
	Count               int `mapstructure:"count" validate:"required,gt=0"`
	QueueSize           int `mapstructure:"queue_size" validate:"required,gt=0"`
	StuckTaskAgeSecs    int `mapstructure:"stuck_task_age_secs" validate:"required,gt=0"`
	MonitorIntervalSecs int `mapstructure:"monitor_interval_secs" validate:"required,gt=0"`
}

// StuckTaskAge returns the age after which a processing task is
// considered stuck.
func (c *WorkerConfig) StuckTaskAge() time.Duration {
	return time.Duration(c.StuckTaskAgeSecs) * time.Second
}

// MonitorInterval returns how often the stuck-task monitor runs.
func (c *WorkerConfig) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalSecs) * time.Second
}

// RetryConfig contains the task retry policy settings.
type RetryConfig struct {
	MaxRetries    int  `mapstructure:"max_retries" validate:"gte=0"`
	BaseDelaySecs int  `mapstructure:"base_delay_secs" validate:"required,gt=0"`
	MaxDelaySecs  int  `mapstructure:"max_delay_secs" validate:"required,gt=0"`
	Jitter        bool `mapstructure:"jitter"`
}

// BaseDelay returns the initial retry delay as a duration.
func (c *RetryConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelaySecs) * time.Second
}

// MaxDelay returns the retry delay ceiling as a duration.
func (c *RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelaySecs) * time.Second
}

// TextConfig overrides the locale heuristics used by the postprocessors.
// Empty lists fall back to the built-in Korean/English defaults.
type TextConfig struct {
	KeywordPlaceholderPatterns []string `mapstructure:"keyword_placeholder_patterns"`
	SummaryPlaceholderPatterns []string `mapstructure:"summary_placeholder_patterns"`
	SummaryPrefixPatterns      []string `mapstructure:"summary_prefix_patterns"`
	SentenceEndings            []string `mapstructure:"sentence_endings"`
}
