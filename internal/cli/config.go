package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"codeberg.org/snonux/marghivasal/internal/audio"
	"codeberg.org/snonux/marghivasal/internal/community"
	"codeberg.org/snonux/marghivasal/internal/llm"
	"codeberg.org/snonux/marghivasal/internal/logging"
	"codeberg.org/snonux/marghivasal/internal/mt"
	"codeberg.org/snonux/marghivasal/internal/translation"
)

// Config is the resolved application configuration
type Config struct {
	Translate    mt.Config
	MaxChars     int
	LLM          llm.Config
	CommunityURL string
	StorePath    string
	Ephemeral    bool
	Audio        audio.Config
	ServerAddr   string
	Log          logging.Config
	Locale       string
}

// stateDir is where the local database lives by default
func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "state", "marghivasal")
}

// SetDefaults registers the default value of every configuration key
func SetDefaults() {
	mtDefaults := mt.DefaultConfig()
	llmDefaults := llm.DefaultConfig()
	audioDefaults := audio.DefaultProviderConfig()

	viper.SetDefault("translate.url", mtDefaults.URL)
	viper.SetDefault("translate.timeout", mtDefaults.Timeout)
	viper.SetDefault("translate.max_chars", translation.DefaultMaxChars)
	viper.SetDefault("translate.breaker_failures", mtDefaults.BreakerFailures)
	viper.SetDefault("translate.breaker_cooldown", mtDefaults.BreakerCooldown)

	viper.SetDefault("llm.provider", llmDefaults.Provider)
	viper.SetDefault("llm.proxy_url", llmDefaults.ProxyURL)
	viper.SetDefault("llm.timeout", llmDefaults.Timeout)

	viper.SetDefault("community.base_url", community.DefaultBaseURL)
	viper.SetDefault("store.path", filepath.Join(stateDir(), "marghivasal.db"))

	viper.SetDefault("audio.provider", audioDefaults.Provider)
	viper.SetDefault("audio.format", audioDefaults.OutputFormat)
	viper.SetDefault("audio.openai_model", audioDefaults.OpenAIModel)
	viper.SetDefault("audio.openai_voice", audioDefaults.OpenAIVoice)
	viper.SetDefault("audio.openai_speed", audioDefaults.OpenAISpeed)
	viper.SetDefault("audio.openai_instruction", audioDefaults.OpenAIInstruction)
	viper.SetDefault("audio.cache", true)
	viper.SetDefault("audio.cache_dir", filepath.Join(stateDir(), "audio-cache"))

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("locale", "en")
}

// InitConfig loads the .env file, then initializes viper configuration
func InitConfig(cfgFile, envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", envFile, err)
		}
	}

	SetDefaults()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".marghivasal")
	}

	// Environment variables, e.g. MARGHIVASAL_LLM_PROVIDER
	viper.SetEnvPrefix("MARGHIVASAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("audio.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("llm.key")
}

// GetTranslatePlusKey retrieves the machine translation API key
func GetTranslatePlusKey() string {
	if key := os.Getenv("TRANSLATEPLUS_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("translate.key")
}

// llmKey picks the key matching the configured generative provider
func llmKey(provider string) string {
	if key := viper.GetString("llm.key"); key != "" {
		return key
	}
	switch strings.ToLower(provider) {
	case llm.ProviderGemini:
		return GetGeminiKey()
	case llm.ProviderOpenAI:
		return GetOpenAIKey()
	default:
		return ""
	}
}

// LoadConfig builds the configuration from viper and flags
func LoadConfig(flags *Flags) *Config {
	provider := viper.GetString("llm.provider")

	cfg := &Config{
		Translate: mt.Config{
			URL:             viper.GetString("translate.url"),
			APIKey:          GetTranslatePlusKey(),
			Timeout:         durationOr(viper.GetDuration("translate.timeout"), 20*time.Second),
			BreakerFailures: viper.GetUint32("translate.breaker_failures"),
			BreakerCooldown: viper.GetDuration("translate.breaker_cooldown"),
		},
		MaxChars: viper.GetInt("translate.max_chars"),
		LLM: llm.Config{
			Provider: provider,
			Model:    viper.GetString("llm.model"),
			APIKey:   llmKey(provider),
			ProxyURL: viper.GetString("llm.proxy_url"),
			BaseURL:  viper.GetString("llm.base_url"),
			Timeout:  durationOr(viper.GetDuration("llm.timeout"), 30*time.Second),
		},
		CommunityURL: viper.GetString("community.base_url"),
		StorePath:    viper.GetString("store.path"),
		Ephemeral:    flags.Ephemeral,
		Audio: audio.Config{
			Provider:          viper.GetString("audio.provider"),
			OutputFormat:      viper.GetString("audio.format"),
			OpenAIKey:         GetOpenAIKey(),
			OpenAIBaseURL:     viper.GetString("audio.openai_base_url"),
			OpenAIModel:       viper.GetString("audio.openai_model"),
			OpenAIVoice:       viper.GetString("audio.openai_voice"),
			OpenAISpeed:       viper.GetFloat64("audio.openai_speed"),
			OpenAIInstruction: viper.GetString("audio.openai_instruction"),
			CacheDir:          viper.GetString("audio.cache_dir"),
			EnableCache:       viper.GetBool("audio.cache"),
			ESpeakVoice:       viper.GetString("audio.espeak_voice"),
		},
		ServerAddr: viper.GetString("server.addr"),
		Log: logging.Config{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
		Locale: viper.GetString("locale"),
	}
	return cfg
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
