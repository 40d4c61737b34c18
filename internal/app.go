package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"autoria-parser-service/internal/adapters/autoriafetcher"
	"autoria-parser-service/internal/adapters/filestorage"
	logger_adapter "autoria-parser-service/internal/adapters/logger"
	postgres_adapter "autoria-parser-service/internal/adapters/postgres"
	"autoria-parser-service/internal/configs"
	"autoria-parser-service/internal/contextkeys"
	"autoria-parser-service/internal/core/port"
	usecases_port "autoria-parser-service/internal/core/port/usecases"
	"autoria-parser-service/internal/core/usecase"
	"autoria-parser-service/pkg/postgres"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App – структура приложения
type App struct {
	config       *configs.AppConfig
	dbPool       *pgxpool.Pool
	fluentClient *fluent.Fluent
	logger       port.LoggerPort

	scrapeUseCase usecases_port.ScrapeCarsPort
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false, // текстовый формат
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	// Добавляем Fluent Bit логгер, если он включен в конфигурации
	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = logger_adapter.NewFluentClient(logger_adapter.FluentConfig{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	// Создаем наш композитный логгер
	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	// --- 2. СОЗДАЕМ БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ С КОНТЕКСТОМ ---
	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 3. ИНИЦИАЛИЗАЦИЯ НИЗКОУРОВНЕВЫХ ЗАВИСИМОСТЕЙ ---
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{DatabaseURL: appConfig.Database.URL})
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", err, nil)
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	// --- 4. ИНИЦИАЛИЗАЦИЯ ИСХОДЯЩИХ АДАПТЕРОВ ---
	fetcherAdapter, err := autoriafetcher.NewAutoRiaFetcherAdapter(autoriafetcher.Config{
		StartURL:       appConfig.Scraper.StartURL,
		MaxParallelism: appConfig.Scraper.MaxConcurrentRequests,
		RetryAttempts:  appConfig.Scraper.RetryAttempts,
		RequestTimeout: appConfig.Scraper.RequestTimeout,
	})
	if err != nil {
		appLogger.Error("Failed to create AutoRia Fetcher Adapter", err, nil)
		dbPool.Close()
		return nil, fmt.Errorf("failed to initialize autoria fetcher: %w", err)
	}
	appLogger.Info("AutoRia Fetcher Adapter initialized.", nil)

	carStorageAdapter, err := postgres_adapter.NewCarStorageAdapter(dbPool)
	if err != nil {
		appLogger.Error("Failed to create Car Storage Adapter", err, nil)
		dbPool.Close()
		return nil, fmt.Errorf("failed to initialize car storage: %w", err)
	}

	dumpAdapter, err := filestorage.NewJSONDumpAdapter(appConfig.Scraper.DumpsDir)
	if err != nil {
		appLogger.Error("Failed to create JSON Dump Adapter", err, nil)
		dbPool.Close()
		return nil, fmt.Errorf("failed to initialize json dump writer: %w", err)
	}

	appLogger.Info("All outgoing adapters initialized.", nil)

	// --- 5. ИНИЦИАЛИЗАЦИЯ USE CASES (ядра бизнес-логики) ---
	processLinkUseCase := usecase.NewProcessLinkUseCase(fetcherAdapter, carStorageAdapter)
	scrapeUseCase := usecase.NewOrchestrateScrapingUseCase(
		fetcherAdapter,
		carStorageAdapter,
		dumpAdapter,
		processLinkUseCase,
		usecase.ScrapeSettings{
			StartPage:     appConfig.Scraper.StartPage,
			MaxPages:      appConfig.Scraper.MaxPages,
			MaxConcurrent: appConfig.Scraper.MaxConcurrentRequests,
			SaveToJSON:    appConfig.Scraper.SaveToJSON,
			SaveToDB:      appConfig.Scraper.SaveToDB,
		},
	)
	appLogger.Info("All use cases initialized.", nil)

	// 6. Собираем приложение
	application := &App{
		config:        appConfig,
		dbPool:        dbPool,
		fluentClient:  fluentClient,
		logger:        appLogger,
		scrapeUseCase: scrapeUseCase,
	}

	return application, nil
}

// Run выполняет один проход скрапера и управляет жизненным циклом ресурсов.
// Запуск по расписанию - забота внешнего планировщика (cron и т.п.).
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		if a.dbPool != nil {
			a.dbPool.Close()
			a.logger.Info("PostgreSQL pool closed.", nil)
		}

		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			a.logger.Info("Closing Fluent Bit connection...", nil)
			if err := a.fluentClient.Close(); err != nil {
				log.Printf("App: Error closing fluent client: %v\n", err)
			}
		}
	}()

	// Сигнал прерывает проход между страницами; уже начатые загрузки дорабатывают
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		receivedSignal := <-quit
		a.logger.Warn("Received signal, stopping current run", port.Fields{"signal": receivedSignal.String()})
		cancelApp()
	}()

	runID := uuid.New()
	runLogger := a.logger.WithFields(port.Fields{"run_id": runID.String()})
	runCtx := contextkeys.ContextWithLogger(appCtx, runLogger)

	a.logger.Info("Starting the AutoRia scraper...", port.Fields{"run_id": runID.String()})

	stats, err := a.scrapeUseCase.Execute(runCtx, runID)
	if err != nil {
		a.logger.Error("Scraping run failed", err, nil)
		return fmt.Errorf("scraping run failed: %w", err)
	}

	a.logger.Info("Scraping completed", port.Fields{
		"duration":          stats.Duration.String(),
		"pages_visited":     stats.PagesVisited,
		"links_discovered":  stats.LinksDiscovered,
		"already_stored":    stats.LinksAlreadyStored,
		"records_collected": stats.RecordsCollected,
	})

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Возвращаем безопасное значение по умолчанию и логируем предупреждение
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
