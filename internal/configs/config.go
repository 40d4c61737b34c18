package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"autoria-parser-service/internal/constants"

	"github.com/joho/godotenv"
)

// DBconfig хранит конфигурацию для БД
type DBconfig struct {
	URL string
}

// ScraperConfig хранит параметры одного прохода скрапера
type ScraperConfig struct {
	StartURL              string
	StartPage             int
	MaxPages              int
	MaxConcurrentRequests int
	RetryAttempts         int
	RequestTimeout        time.Duration
	SaveToJSON            bool
	SaveToDB              bool
	DumpsDir              string
}

type StdoutLogConfig struct {
	Level string // По умолчанию DEBUG
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string // По умолчанию INFO
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Database     DBconfig
	Scraper      ScraperConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Отсутствие .env файла не фатально - значения читаются из окружения процесса.
func LoadConfig(envPath ...string) (*AppConfig, error) {

	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Printf("Info: Could not load .env file (path: %v): %v.\n", envPath, err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "autoria-parser-service")

	// Читаем DATABASE URL
	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.Scraper.StartURL = getEnvAsString("START_URL", constants.DefaultStartURL)
	cfg.Scraper.StartPage = getEnvAsInt("START_PAGE", 1)
	cfg.Scraper.MaxPages = getEnvAsInt("MAX_PAGES", 7)
	cfg.Scraper.MaxConcurrentRequests = getEnvAsInt("MAX_CONCURRENT_REQUESTS", 20)
	cfg.Scraper.RetryAttempts = getEnvAsInt("RETRY_ATTEMPTS", 2)
	cfg.Scraper.RequestTimeout = time.Duration(getEnvAsInt("REQUEST_TIMEOUT", 10)) * time.Second
	cfg.Scraper.SaveToJSON = getEnvAsBool("SAVE_TO_JSON", true)
	cfg.Scraper.SaveToDB = getEnvAsBool("SAVE_TO_DB", true)
	cfg.Scraper.DumpsDir = getEnvAsString("DUMPS_DIR", "dumps")

	if cfg.Scraper.MaxPages < 1 {
		return nil, fmt.Errorf("MAX_PAGES must be at least 1, got %d", cfg.Scraper.MaxPages)
	}
	if cfg.Scraper.MaxConcurrentRequests < 1 {
		return nil, fmt.Errorf("MAX_CONCURRENT_REQUESTS must be at least 1, got %d", cfg.Scraper.MaxConcurrentRequests)
	}
	if cfg.Scraper.RetryAttempts < 1 {
		return nil, fmt.Errorf("RETRY_ATTEMPTS must be at least 1, got %d", cfg.Scraper.RetryAttempts)
	}

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "debug")

	return cfg, nil
}

// getEnvAsString читает переменную окружения как строку или возвращает значение по умолчанию
func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию
// Логирует ошибку, если переменная есть, но не может быть преобразована в int
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}
