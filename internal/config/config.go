// File: internal/config/config.go
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Automation() AutomationConfig
	Lock() LockConfig
	Metrics() MetricsConfig

	SetAutomationLanguage(lang string)
	SetAutomationMessageHash(enabled bool)
	SetLockInterprocess(enabled bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	AutomationCfg AutomationConfig `mapstructure:"automation" yaml:"automation"`
	LockCfg       LockConfig       `mapstructure:"lock" yaml:"lock"`
	MetricsCfg    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Automation() AutomationConfig { return c.AutomationCfg }
func (c *Config) Lock() LockConfig             { return c.LockCfg }
func (c *Config) Metrics() MetricsConfig       { return c.MetricsCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetAutomationLanguage(lang string)     { c.AutomationCfg.Language = lang }
func (c *Config) SetAutomationMessageHash(enabled bool) { c.AutomationCfg.MessageHash = enabled }
func (c *Config) SetLockInterprocess(enabled bool)      { c.LockCfg.Interprocess = enabled }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AutomationConfig tunes how UI flows locate and drive the application.
type AutomationConfig struct {
	// Language selects the keyword table used to read and click localized captions.
	Language string `mapstructure:"language" yaml:"language"`
	// MessageHash enables content-hash identity for records without an external id.
	MessageHash bool `mapstructure:"message_hash" yaml:"message_hash"`
	// PollInterval is the sleep between two resolver polls.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// MenuTimeout bounds the wait for an action or context menu to appear.
	MenuTimeout time.Duration `mapstructure:"menu_timeout" yaml:"menu_timeout"`
	// MenuWait is the pause between a right-click and the menu lookup.
	MenuWait time.Duration `mapstructure:"menu_wait" yaml:"menu_wait"`
	// DialogTimeout bounds the wait for the comment editor.
	DialogTimeout time.Duration `mapstructure:"dialog_timeout" yaml:"dialog_timeout"`
	// SearchChatTimeout bounds session search when switching chats.
	SearchChatTimeout time.Duration `mapstructure:"search_chat_timeout" yaml:"search_chat_timeout"`
	ActionWindowClass string        `mapstructure:"action_window_class" yaml:"action_window_class"`
	MenuWindowClass   string        `mapstructure:"menu_window_class" yaml:"menu_window_class"`
	// TypingRate is the key-injection rate in keys per second used when the
	// clipboard is unavailable.
	TypingRate float64 `mapstructure:"typing_rate" yaml:"typing_rate"`
	// MessageYBias is the vertical offset used when clicking inside a message bubble.
	MessageYBias int `mapstructure:"message_y_bias" yaml:"message_y_bias"`
}

// LockConfig configures the actor lock that serializes UI access.
type LockConfig struct {
	Interprocess bool   `mapstructure:"interprocess" yaml:"interprocess"`
	File         string `mapstructure:"file" yaml:"file"`
}

// MetricsConfig toggles prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// SupportedLanguages lists the keyword tables shipped with the binary.
var SupportedLanguages = []string{"cn", "cn_t", "en"}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// DefaultDir is the per-user state directory, ~/.wxauto.
func DefaultDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return ".wxauto"
	}
	return filepath.Join(home, ".wxauto")
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "wxauto")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Automation --
	v.SetDefault("automation.language", "cn")
	v.SetDefault("automation.message_hash", false)
	v.SetDefault("automation.poll_interval", "50ms")
	v.SetDefault("automation.menu_timeout", "1s")
	v.SetDefault("automation.menu_wait", "300ms")
	v.SetDefault("automation.dialog_timeout", "500ms")
	v.SetDefault("automation.search_chat_timeout", "5s")
	v.SetDefault("automation.action_window_class", "Qt51514QWindowToolSaveBits")
	v.SetDefault("automation.menu_window_class", "Qt51514QWindowToolSaveBits")
	v.SetDefault("automation.typing_rate", 30.0)
	v.SetDefault("automation.message_y_bias", 10)

	// -- Lock --
	v.SetDefault("lock.interprocess", true)
	v.SetDefault("lock.file", filepath.Join(DefaultDir(), "ui.lock"))

	// -- Metrics --
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "wxauto")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	v.BindEnv("automation.language", "WXAUTO_LANGUAGE")
	v.BindEnv("lock.file", "WXAUTO_LOCK_FILE")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.LockCfg.File != "" {
		expanded, err := homedir.Expand(cfg.LockCfg.File)
		if err != nil {
			return nil, fmt.Errorf("error expanding lock.file: %w", err)
		}
		cfg.LockCfg.File = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.AutomationCfg.Validate(); err != nil {
		return fmt.Errorf("automation configuration invalid: %w", err)
	}
	if err := c.LockCfg.Validate(); err != nil {
		return fmt.Errorf("lock configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the Automation configuration.
func (a *AutomationConfig) Validate() error {
	known := false
	for _, lang := range SupportedLanguages {
		if a.Language == lang {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("language %q is not supported (want one of %v)", a.Language, SupportedLanguages)
	}
	if a.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if a.MenuTimeout <= 0 || a.DialogTimeout <= 0 || a.SearchChatTimeout <= 0 {
		return fmt.Errorf("menu_timeout, dialog_timeout and search_chat_timeout must be positive durations")
	}
	if a.MenuWait < 0 {
		return fmt.Errorf("menu_wait must not be negative")
	}
	if a.TypingRate <= 0 {
		return fmt.Errorf("typing_rate must be greater than 0")
	}
	return nil
}

// Validate checks the Lock configuration.
func (l *LockConfig) Validate() error {
	if l.Interprocess && l.File == "" {
		return fmt.Errorf("lock.file is required when lock.interprocess is enabled")
	}
	return nil
}
