package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type BotConfig struct {
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN" validate:"required"`
	OwnerChatID   int64  `env:"OWNER_CHAT_ID" validate:"required"`

	// sqlite или fallback
	StorageEngine string `env:"STORAGE_ENGINE" envDefault:"sqlite" validate:"oneof=sqlite fallback"`

	Slot struct {
		Backend    string `env:"BACKEND" envDefault:"file" validate:"oneof=file redis"`
		Dir        string `env:"DIR" envDefault:"./data"`
		QuotaBytes int64  `env:"QUOTA_BYTES" envDefault:"5242880" validate:"gte=0"` // 5 МБ
	} `envPrefix:"SLOT_"`

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD"`
		DB       int    `env:"DB" envDefault:"0"`
		Prefix   string `env:"PREFIX" envDefault:"workdays:"`
	} `envPrefix:"REDIS_"`

	GoalPercent  int    `env:"GOAL_PERCENT" envDefault:"60" validate:"oneof=50 60 70 80 90 100"`
	HolidaysFile string `env:"HOLIDAYS_FILE"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

var instance *BotConfig
var once sync.Once

// GetBotConfig загружает конфиг один раз; ошибка конфигурации завершает процесс
func GetBotConfig() *BotConfig {
	once.Do(func() {
		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("error loading config: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load читает переменные из envFiles (по умолчанию .env) и окружения процесса.
// Окружение процесса имеет приоритет, отсутствующий файл не считается ошибкой.
func Load(envFiles ...string) (*BotConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	environment := map[string]string{}
	for _, file := range envFiles {
		values, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		for k, v := range values {
			environment[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environment[k] = v
		}
	}

	cfg := &BotConfig{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) {
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Level разбирает LOG_LEVEL, по умолчанию info
func (c *BotConfig) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
