package usecase

import (
	"context"
	"strings"

	"autoria-parser-service/internal/constants"
	"autoria-parser-service/internal/contextkeys"
	"autoria-parser-service/internal/core/domain"
	"autoria-parser-service/internal/core/port"

	"github.com/google/uuid"
)

// ProcessLinkUseCase инкапсулирует логику обработки одной ссылки:
// правила пропуска, загрузка страницы объявления и извлечение записи.
// Результат всегда выражен явным ExtractResult - ошибки парсинга и
// недоступность страницы не распространяются наверх как сбои.
type ProcessLinkUseCase struct {
	detailsFetcher port.AutoRiaFetcherPort
	storage        port.CarStoragePort
}

// NewProcessLinkUseCase создает новый экземпляр use case
func NewProcessLinkUseCase(
	fetcher port.AutoRiaFetcherPort,
	storage port.CarStoragePort,
) *ProcessLinkUseCase {
	return &ProcessLinkUseCase{
		detailsFetcher: fetcher,
		storage:        storage,
	}
}

// Execute выполняет основную логику use case
func (uc *ProcessLinkUseCase) Execute(ctx context.Context, link domain.CarLink, runID uuid.UUID) domain.ExtractResult {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case": "ProcessLink",
		"url":      link.URL,
	})

	// Правило 1: ссылки на новые авто не обрабатываем
	if strings.Contains(link.URL, constants.NewCarURLMarker) {
		ucLogger.Debug("Skipping new car page", nil)
		return domain.Skipped("new car listing")
	}

	// Правило 2: повторная точечная проверка на случай гонки между
	// пакетным фильтром и этим вызовом
	exists, err := uc.storage.Exists(ctx, link.URL)
	if err != nil {
		// При недоступной проверке продолжаем: уникальный индекс по url
		// в хранилище отсечет дубликат на вставке
		ucLogger.Warn("Existence re-check failed, continuing anyway", port.Fields{"error": err.Error()})
	}
	if exists {
		ucLogger.Debug("Skipping already processed car", nil)
		return domain.Skipped("already stored")
	}

	record, fetchErr := uc.detailsFetcher.FetchAdDetails(ctx, link.URL)
	if fetchErr != nil {
		ucLogger.Error("Failed to parse ad details", fetchErr, nil)
		return domain.Failed(fetchErr.Error())
	}
	if record == nil {
		// Страница недоступна после всех попыток - пропуск, не сбой
		return domain.Skipped("page unavailable")
	}

	ucLogger.Debug("Successfully parsed ad details.", nil)
	return domain.Extracted(record)
}
