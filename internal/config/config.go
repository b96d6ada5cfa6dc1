// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the bridge configuration
type Config struct {
	// Engine configuration
	Engine EngineConfig `mapstructure:"engine"`

	// IPC transport configuration
	IPC IPCConfig `mapstructure:"ipc"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig contains browser-engine settings applied at host creation
type EngineConfig struct {
	// BrowserArguments is passed verbatim to the engine runtime
	// (e.g. "--enable-gpu-rasterization --ignore-gpu-blocklist").
	BrowserArguments string `mapstructure:"browser_arguments"`

	// UserDataDir overrides the engine's profile directory. Empty means
	// the engine default.
	UserDataDir string `mapstructure:"user_data_dir"`

	// OffscreenOnly suppresses the on-screen debug window for every
	// session created by this process.
	OffscreenOnly bool `mapstructure:"offscreen_only"`

	// UserAgent, when non-empty, is applied to every new session. Ignored
	// on engine builds without the extended settings capability.
	UserAgent string `mapstructure:"user_agent"`
}

// IPCConfig contains transport settings for the bridge socket
type IPCConfig struct {
	SocketPath string `mapstructure:"socket_path"`

	// MaxClients limits concurrent transport connections; 0 means no limit.
	MaxClients int `mapstructure:"max_clients"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Engine: EngineConfig{
			BrowserArguments: "",
			UserDataDir:      "",
			OffscreenOnly:    true,
			UserAgent:        "",
		},
		IPC: IPCConfig{
			SocketPath: defaultSocketPath(),
			MaxClients: 0,
		},
		Logging: LoggingConfig{
			LogLevel: "",
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("webview-bridge")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "webview-bridge"))
		}
		viper.AddConfigPath(".")
	}

	// Set defaults - individual fields so file values merge properly
	viper.SetDefault("engine.browser_arguments", DefaultConfig.Engine.BrowserArguments)
	viper.SetDefault("engine.user_data_dir", DefaultConfig.Engine.UserDataDir)
	viper.SetDefault("engine.offscreen_only", DefaultConfig.Engine.OffscreenOnly)
	viper.SetDefault("engine.user_agent", DefaultConfig.Engine.UserAgent)

	viper.SetDefault("ipc.socket_path", DefaultConfig.IPC.SocketPath)
	viper.SetDefault("ipc.max_clients", DefaultConfig.IPC.MaxClients)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "webview-bridge.toml"
	}

	return filepath.Join(home, ".config", "webview-bridge", "webview-bridge.toml")
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "webview-bridge.sock")
	}
	return filepath.Join(os.TempDir(), "webview-bridge.sock")
}
