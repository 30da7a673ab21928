package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Endpoint string        `mapstructure:"endpoint"` // websocket chat endpoint
	Username string        `mapstructure:"username"`
	API      APIConfig     `mapstructure:"api"`
	Chat     ChatConfig    `mapstructure:"chat"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds the REST collaborator configuration
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// ChatConfig holds chat protocol configuration
type ChatConfig struct {
	HistoryWindow int  `mapstructure:"history_window"` // turns resent per message
	StrictDecode  bool `mapstructure:"strict_decode"`  // fail on malformed stream frames
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

var global *Config

// SetDefaults registers every configuration default with viper
func SetDefaults() {
	viper.SetDefault("endpoint", "wss://localhost:8443/chat")
	viper.SetDefault("username", "")

	viper.SetDefault("api.base_url", "https://localhost:8443/api")

	viper.SetDefault("chat.history_window", 10)
	viper.SetDefault("chat.strict_decode", false)

	viper.SetDefault("logging.log_file", "./.scribe/system.log")
	viper.SetDefault("logging.preserve", true)
	viper.SetDefault("logging.level", "info")
}

// Init loads configuration from the given file (optional), SCRIBE_*
// environment variables, and defaults, then caches the result for Get.
func Init(cfgFile string) error {
	SetDefaults()

	viper.SetEnvPrefix("SCRIBE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
					return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
				}
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	global = &cfg
	return nil
}

// Get returns the loaded configuration, initializing from defaults if Init
// was never called (useful in tests).
func Get() *Config {
	if global == nil {
		if err := Init(""); err != nil {
			panic(err)
		}
	}
	return global
}

// BuildSettingsPath resolves a filename relative to the settings directory
func BuildSettingsPath(filename string) string {
	return filepath.Join(".scribe", filename)
}
