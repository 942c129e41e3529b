package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// AppConfig holds all application configuration. It is built by Load and
// passed to the components that need it.
type AppConfig struct {
	LLM   LLMConfig   `mapstructure:"llm"`
	Agent AgentConfig `mapstructure:"agent"`
	Log   LogConfig   `mapstructure:"log"`
}

// LLMConfig configures the chat completion collaborator.
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

// AgentConfig configures the turn protocol.
type AgentConfig struct {
	Visual      bool `mapstructure:"visual"`
	MultiAction bool `mapstructure:"multi_action"`
	MaxRetries  int  `mapstructure:"max_retries"`
	MaxTurns    int  `mapstructure:"max_turns"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the optional config file and DESKPILOT_*
// environment variables, applying defaults for everything unset.
func Load(configFile string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("agent.visual", false)
	v.SetDefault("agent.multi_action", false)
	v.SetDefault("agent.max_retries", 3)
	v.SetDefault("agent.max_turns", 50)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetEnvPrefix("DESKPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", configFile)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return cfg, nil
}
