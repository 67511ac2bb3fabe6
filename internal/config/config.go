package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultSystemPrompt = "You are a creative AI that helps continue a sci-fi adventure story for a 10-year-old girl."

// Config содержит конфигурацию сервера историй
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING"`
	LogOutput   string `envconfig:"LOG_OUTPUT" default:"stdout"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"3000"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Статика браузерного клиента и сгенерированные картинки/озвучка
	StaticDir      string `envconfig:"STATIC_DIR" default:"public"`
	GeneratedDir   string `envconfig:"GENERATED_DIR" default:"generated"`
	UploadMaxBytes int64  `envconfig:"UPLOAD_MAX_BYTES" default:"26214400"`

	// Лимит запросов к платным AI эндпоинтам на один IP в минуту, 0 - без лимита
	RateLimitPerMinute uint `envconfig:"RATE_LIMIT_PER_MINUTE" default:"20"`

	// Настройки AI для текста истории
	AIClientType string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL    string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIModel      string        `envconfig:"AI_MODEL" default:"gpt-3.5-turbo"`
	AITimeout    time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	// Секретное поле: файл /run/secrets/openai_api_key или OPENAI_API_KEY
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Параметры истории
	StoryMaxTokens    int     `envconfig:"STORY_MAX_TOKENS" default:"300"`
	ChoicesMaxTokens  int     `envconfig:"CHOICES_MAX_TOKENS" default:"100"`
	ChoiceMaxTokens   int     `envconfig:"CHOICE_MAX_TOKENS" default:"20"`
	ChoiceCount       int     `envconfig:"CHOICE_COUNT" default:"3"`
	StoryTurnLimit    int     `envconfig:"STORY_TURN_LIMIT" default:"2"`
	StoryTemperature  float64 `envconfig:"STORY_TEMPERATURE" default:"0.7"`
	StorySystemPrompt string  `envconfig:"STORY_SYSTEM_PROMPT"`

	// Распознавание речи, иллюстрации, озвучка (всегда через OpenAI)
	MediaBaseURL       string `envconfig:"MEDIA_BASE_URL" default:"https://api.openai.com/v1"`
	TranscriptionModel string `envconfig:"TRANSCRIPTION_MODEL" default:"whisper-1"`
	ImageEnabled       bool   `envconfig:"IMAGE_ENABLED" default:"false"`
	ImageModel         string `envconfig:"IMAGE_MODEL" default:"dall-e-3"`
	ImageSize          string `envconfig:"IMAGE_SIZE" default:"1024x1024"`
	VoiceEnabled       bool   `envconfig:"VOICE_ENABLED" default:"false"`
	VoiceModel         string `envconfig:"VOICE_MODEL" default:"tts-1"`
	VoiceName          string `envconfig:"VOICE_NAME" default:"nova"`

	// Хранилище сессий: memory или redis
	SessionStore string        `envconfig:"SESSION_STORE" default:"memory"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	RedisAddr    string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB      int           `envconfig:"REDIS_DB" default:"0"`
	// Подключение к Redis на старте: число попыток и пауза между ними
	RedisConnectRetries int           `envconfig:"REDIS_CONNECT_RETRIES" default:"50"`
	RedisRetryDelay     time.Duration `envconfig:"REDIS_RETRY_DELAY" default:"3s"`
	// Секретное поле БЕЗ envconfig тега
	RedisPassword string `ignored:"true"`
}

// GetAllowedOrigins разбивает CORSAllowedOrigins на список.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("openai api key is not set (secret openai_api_key or OPENAI_API_KEY)")
	}
	switch strings.ToLower(c.AIClientType) {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unknown AI_CLIENT_TYPE %q", c.AIClientType)
	}
	switch strings.ToLower(c.SessionStore) {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	if c.ChoiceCount <= 0 {
		return fmt.Errorf("CHOICE_COUNT must be positive, got %d", c.ChoiceCount)
	}
	if c.ChoiceMaxTokens <= 0 {
		return fmt.Errorf("CHOICE_MAX_TOKENS must be positive, got %d", c.ChoiceMaxTokens)
	}
	return nil
}

// LoadConfig загружает конфигурацию из .env, переменных окружения и секретов.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}
	if cfg.StorySystemPrompt == "" {
		cfg.StorySystemPrompt = defaultSystemPrompt
	}
	// Дальше по коду значения сравниваются точно
	cfg.AIClientType = strings.ToLower(strings.TrimSpace(cfg.AIClientType))
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))

	// Секрет из файла имеет приоритет над переменной окружения
	if key, err := ReadSecret("openai_api_key"); err == nil {
		cfg.OpenAIAPIKey = key
	} else if !errors.Is(err, ErrSecretNotFound) {
		return nil, fmt.Errorf("openai api key secret: %w", err)
	}

	// НЕОБЯЗАТЕЛЬНЫЙ секрет, для Redis без пароля его просто нет
	if redisPass, err := ReadSecret("redis_password"); err == nil {
		cfg.RedisPassword = redisPass
		log.Println("Redis password loaded from secret.")
	} else if cfg.SessionStore == "redis" && !errors.Is(err, ErrSecretNotFound) {
		return nil, fmt.Errorf("redis password secret: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
