// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Wait() WaitConfig
	Screenshot() ScreenshotConfig

	SetBrowserHeadless(bool)
	SetBrowserName(string)
	SetElementTimeout(time.Duration)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	BrowserCfg    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	WaitCfg       WaitConfig       `mapstructure:"wait" yaml:"wait"`
	ScreenshotCfg ScreenshotConfig `mapstructure:"screenshot" yaml:"screenshot"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig       { return c.BrowserCfg }
func (c *Config) Wait() WaitConfig             { return c.WaitCfg }
func (c *Config) Screenshot() ScreenshotConfig { return c.ScreenshotCfg }

// --- Setters ---

func (c *Config) SetBrowserHeadless(b bool)         { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserName(name string)        { c.BrowserCfg.Name = name }
func (c *Config) SetElementTimeout(d time.Duration) { c.WaitCfg.ElementTimeout = d }

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

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls how browser sessions are launched.
type BrowserConfig struct {
	// Name is the browser OpenBrowser uses when none is given.
	Name     string   `mapstructure:"name" yaml:"name"`
	Headless bool     `mapstructure:"headless" yaml:"headless"`
	Args     []string `mapstructure:"args" yaml:"args"`
	ExecPath string   `mapstructure:"exec_path" yaml:"exec_path"`
	// RemoteURL attaches to an already running browser's DevTools endpoint
	// instead of launching one.
	RemoteURL     string        `mapstructure:"remote_url" yaml:"remote_url"`
	WindowWidth   int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight  int           `mapstructure:"window_height" yaml:"window_height"`
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	Debug         bool          `mapstructure:"debug" yaml:"debug"`
}

// WaitConfig holds the polling defaults for state-dependent keywords.
type WaitConfig struct {
	ElementTimeout  time.Duration `mapstructure:"element_timeout" yaml:"element_timeout"`
	PostActionDelay time.Duration `mapstructure:"post_action_delay" yaml:"post_action_delay"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// ScreenshotConfig sets where GetPageScreenshot writes files.
type ScreenshotConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "webdriver-keywords")
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

	// -- Browser --
	v.SetDefault("browser.name", "chrome")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 1024)
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.debug", false)

	// -- Wait --
	v.SetDefault("wait.element_timeout", "30s")
	v.SetDefault("wait.post_action_delay", "0s")
	v.SetDefault("wait.poll_interval", "500ms")

	// -- Screenshot --
	v.SetDefault("screenshot.dir", "./scrshots")
}

// EnvPrefix is the prefix for environment overrides, e.g. WDK_WAIT_ELEMENT_TIMEOUT.
const EnvPrefix = "WDK"

// BindEnv makes every configuration key overridable from the environment.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	dir, err := homedir.Expand(cfg.ScreenshotCfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("invalid screenshot.dir: %w", err)
	}
	cfg.ScreenshotCfg.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.BrowserCfg.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.WaitCfg.Validate(); err != nil {
		return fmt.Errorf("wait configuration invalid: %w", err)
	}
	if c.ScreenshotCfg.Dir == "" {
		return errors.New("screenshot.dir is required")
	}
	return nil
}

// Validate checks the browser settings.
func (b *BrowserConfig) Validate() error {
	switch strings.ToLower(b.Name) {
	case "chrome", "chromium", "firefox", "ie":
	default:
		return fmt.Errorf("name must be one of chrome, chromium, firefox, ie; got %q", b.Name)
	}
	if b.WindowWidth <= 0 || b.WindowHeight <= 0 {
		return errors.New("window_width and window_height must be positive")
	}
	if b.LaunchTimeout <= 0 {
		return errors.New("launch_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the wait settings.
func (w *WaitConfig) Validate() error {
	if w.ElementTimeout < 0 {
		return errors.New("element_timeout must not be negative")
	}
	if w.PostActionDelay < 0 {
		return errors.New("post_action_delay must not be negative")
	}
	if w.PollInterval <= 0 {
		return errors.New("poll_interval must be a positive duration")
	}
	return nil
}
