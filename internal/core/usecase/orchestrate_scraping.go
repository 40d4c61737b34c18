package usecase

import (
	"context"
	"sync"
	"time"

	"autoria-parser-service/internal/contextkeys"
	"autoria-parser-service/internal/core/domain"
	"autoria-parser-service/internal/core/port"
	usecases_port "autoria-parser-service/internal/core/port/usecases"

	"github.com/google/uuid"
)

// ScrapeSettings - неизменяемые параметры одного прохода,
// передаются явно при создании use case, без глобального состояния.
type ScrapeSettings struct {
	StartPage     int
	MaxPages      int
	MaxConcurrent int
	SaveToJSON    bool
	SaveToDB      bool
}

// OrchestrateScrapingUseCase координирует полный проход:
// Discover -> Filter -> FetchExtract -> Aggregate -> Persist.
type OrchestrateScrapingUseCase struct {
	fetcher     port.AutoRiaFetcherPort
	storage     port.CarStoragePort
	dumpWriter  port.DumpWriterPort
	processLink usecases_port.ProcessLinkPort
	settings    ScrapeSettings
}

// NewOrchestrateScrapingUseCase создает новый экземпляр use case
func NewOrchestrateScrapingUseCase(
	fetcher port.AutoRiaFetcherPort,
	storage port.CarStoragePort,
	dumpWriter port.DumpWriterPort,
	processLink usecases_port.ProcessLinkPort,
	settings ScrapeSettings,
) *OrchestrateScrapingUseCase {
	return &OrchestrateScrapingUseCase{
		fetcher:     fetcher,
		storage:     storage,
		dumpWriter:  dumpWriter,
		processLink: processLink,
		settings:    settings,
	}
}

// Execute выполняет один полный проход скрапера.
func (uc *OrchestrateScrapingUseCase) Execute(ctx context.Context, runID uuid.UUID) (*domain.ScrapeStats, error) {
	started := time.Now()

	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case": "OrchestrateScraping",
		"run_id":   runID.String(),
	})

	ucLogger.Info("Starting scraping run", port.Fields{
		"start_page": uc.settings.StartPage,
		"max_pages":  uc.settings.MaxPages,
	})

	stats := &domain.ScrapeStats{}

	// --- 1. Discover + Filter: собираем новые ссылки со всех страниц ---
	var pending []domain.CarLink

	for page := uc.settings.StartPage; page < uc.settings.StartPage+uc.settings.MaxPages; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pageLogger := ucLogger.WithFields(port.Fields{"page": page})

		links, err := uc.fetcher.FetchLinks(ctx, page)
		if err != nil {
			pageLogger.Error("Failed to discover links, skipping page", err, nil)
			continue
		}
		stats.PagesVisited++
		stats.LinksDiscovered += len(links)

		if len(links) == 0 {
			pageLogger.Debug("No links found on page", nil)
			continue
		}

		urls := make([]string, len(links))
		for i, link := range links {
			urls[i] = link.URL
		}

		fresh, err := uc.storage.FilterExisting(ctx, urls)
		if err != nil {
			// Документированный fallback: при недоступной проверке считаем
			// все ссылки новыми; от двойной вставки защищает уникальный
			// индекс по url в хранилище
			pageLogger.Warn("Bulk existence check failed, treating all links as new", port.Fields{
				"error":       err.Error(),
				"links_count": len(urls),
			})
			fresh = urls
		}
		stats.LinksAlreadyStored += len(urls) - len(fresh)

		for _, u := range fresh {
			pending = append(pending, domain.CarLink{URL: u})
		}

		pageLogger.Debug("Page filtered", port.Fields{
			"discovered": len(urls),
			"new":        len(fresh),
		})
	}

	ucLogger.Info("Link discovery finished", port.Fields{
		"pages_visited":  stats.PagesVisited,
		"new_links":      len(pending),
		"already_stored": stats.LinksAlreadyStored,
	})

	// --- 2. FetchExtract: обрабатываем ссылки с глобальным потолком параллелизма ---
	results := make(chan domain.ExtractResult, len(pending))
	semaphore := make(chan struct{}, uc.settings.MaxConcurrent)
	var wg sync.WaitGroup

	for _, link := range pending {
		select {
		case <-ctx.Done():
			ucLogger.Warn("Context cancelled, not starting remaining workers", nil)
		default:
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(l domain.CarLink) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			workerCtx := contextkeys.ContextWithLogger(ctx, ucLogger)
			results <- uc.processLink.Execute(workerCtx, l, runID)
		}(link)
	}

	wg.Wait()
	close(results)

	// --- 3. Aggregate: собираем пачку из успешных результатов ---
	// Порядок записей в пачке не гарантируется.
	var batch []domain.CarRecord
	for result := range results {
		switch result.Status {
		case domain.ExtractOK:
			if result.Record != nil {
				batch = append(batch, *result.Record)
			}
		case domain.ExtractSkipped:
			stats.LinksSkipped++
		case domain.ExtractFailed:
			stats.LinksFailed++
		}
	}
	stats.RecordsCollected = len(batch)

	ucLogger.Info("Fetch and extract finished", port.Fields{
		"records_collected": stats.RecordsCollected,
		"skipped":           stats.LinksSkipped,
		"failed":            stats.LinksFailed,
	})

	// --- 4. Persist: сначала дамп, потом база ---
	// Дамп пишется первым, чтобы сбой хранилища не терял результаты прохода.
	if uc.settings.SaveToJSON && len(batch) > 0 {
		dumpFile, err := uc.dumpWriter.Write(ctx, batch)
		if err != nil {
			ucLogger.Error("Failed to write JSON dump", err, nil)
		} else {
			ucLogger.Info("JSON dump created", port.Fields{"file": dumpFile})
		}
	}

	if uc.settings.SaveToDB && len(batch) > 0 {
		inserted, err := uc.storage.BatchSave(ctx, batch)
		if err != nil {
			// Вся пачка теряется целиком - частичных повторов нет.
			// Это документированное ограничение; дамп к этому моменту уже на диске.
			ucLogger.Error("Failed to save batch to storage, batch dropped", err, port.Fields{
				"batch_size": len(batch),
			})
		} else {
			ucLogger.Info("Saved batch to storage", port.Fields{"inserted": inserted})
		}
	}

	stats.Duration = time.Since(started)

	ucLogger.Info("Scraping run completed", port.Fields{
		"duration":          stats.Duration.String(),
		"records_collected": stats.RecordsCollected,
	})

	return stats, nil
}
