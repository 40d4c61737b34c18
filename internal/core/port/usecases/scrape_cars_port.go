package usecases_port

import (
	"context"

	"autoria-parser-service/internal/core/domain"

	"github.com/google/uuid"
)

// ScrapeCarsPort - входящий порт для выполнения одного полного прохода скрапера.
type ScrapeCarsPort interface {
	Execute(ctx context.Context, runID uuid.UUID) (*domain.ScrapeStats, error)
}
