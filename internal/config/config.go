package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderAuto      = "auto"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

type Config struct {
	Port        int
	LogLevel    string
	DatabaseURL string
	NatsURL     string
	NatsToken   string

	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnalysisModel   string
	ChatModel       string
	AnthropicAPIKey string
	AnthropicModel  string

	SlackBotToken     string
	SlackAlertChannel string
	AlertTrustBelow   int
	APIToken          string
	MaxHTMLChars      int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; variables already set win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        envInt("SECONDTHOUGHT_PORT", 8760),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		DatabaseURL: envStr("DATABASE_URL", ""),
		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),

		LLMProvider:     strings.ToLower(envStr("LLM_PROVIDER", ProviderAuto)),
		OpenAIAPIKey:    envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   envStr("OPENAI_BASE_URL", ""),
		AnalysisModel:   envStr("SECONDTHOUGHT_ANALYSIS_MODEL", "gpt-4o-mini"),
		ChatModel:       envStr("SECONDTHOUGHT_CHAT_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		SlackBotToken:     envStr("SLACK_BOT_TOKEN", ""),
		SlackAlertChannel: envStr("SLACK_ALERT_CHANNEL", ""),
		AlertTrustBelow:   envInt("SECONDTHOUGHT_ALERT_TRUST_BELOW", 40),
		APIToken:          envStr("SECONDTHOUGHT_API_TOKEN", ""),
		MaxHTMLChars:      envInt("SECONDTHOUGHT_MAX_HTML_CHARS", 50000),
	}
}

// Provider resolves which language model backend to build. "auto" picks the
// first provider with a key; an explicit choice without its key yields none.
func (c Config) Provider() string {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey != "" {
			return ProviderOpenAI
		}
		return ProviderNone
	case ProviderAnthropic:
		if c.AnthropicAPIKey != "" {
			return ProviderAnthropic
		}
		return ProviderNone
	case ProviderNone:
		return ProviderNone
	}
	switch {
	case c.OpenAIAPIKey != "":
		return ProviderOpenAI
	case c.AnthropicAPIKey != "":
		return ProviderAnthropic
	default:
		return ProviderNone
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
