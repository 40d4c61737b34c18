package autoriafetcher

import (
	"fmt"
	"time"

	"autoria-parser-service/internal/constants"

	"github.com/gocolly/colly/v2"
)

// AutoRiaFetcherAdapter отвечает за все взаимодействия с сайтом AutoRia
type AutoRiaFetcherAdapter struct {
	// родительский коллектор, который разделяет лимиты между всеми клонами
	collector *colly.Collector

	startURL         string
	retryAttempts    int
	rateLimitBackoff time.Duration
}

// Config хранит параметры адаптера.
type Config struct {
	StartURL       string
	MaxParallelism int
	RetryAttempts  int
	RequestTimeout time.Duration

	// RandomDelay и RateLimitBackoff переопределяются только в тестах;
	// нулевое значение подставляет боевые константы.
	RandomDelay      time.Duration
	RateLimitBackoff time.Duration
}

// NewAutoRiaFetcherAdapter - конструктор
func NewAutoRiaFetcherAdapter(cfg Config) (*AutoRiaFetcherAdapter, error) {
	if cfg.StartURL == "" {
		return nil, fmt.Errorf("AutoRiaFetcherAdapter: start URL is required")
	}
	if cfg.MaxParallelism < 1 {
		cfg.MaxParallelism = 1
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.RandomDelay == 0 {
		cfg.RandomDelay = constants.FetchRandomDelay
	}
	if cfg.RateLimitBackoff == 0 {
		cfg.RateLimitBackoff = constants.RateLimitBackoffStep
	}

	// родительский коллектор; повторные визиты разрешены, потому что
	// ретраи ходят на тот же URL
	c := colly.NewCollector(colly.AllowURLRevisit())

	if cfg.RequestTimeout > 0 {
		c.SetRequestTimeout(cfg.RequestTimeout)
	}

	// Эти правила будут наследоваться всеми клонами коллектора
	err := c.Limit(&colly.LimitRule{
		DomainGlob: "*",

		// Параллелизм на уровне HTTP-запросов - это и есть пул,
		// ограничивающий число одновременно открытых соединений
		Parallelism: cfg.MaxParallelism,

		// случайная задержка перед каждым запросом
		RandomDelay: cfg.RandomDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("AutoRiaFetcherAdapter: failed to set limit rule: %w", err)
	}

	return &AutoRiaFetcherAdapter{
		collector:        c,
		startURL:         cfg.StartURL,
		retryAttempts:    cfg.RetryAttempts,
		rateLimitBackoff: cfg.RateLimitBackoff,
	}, nil
}
