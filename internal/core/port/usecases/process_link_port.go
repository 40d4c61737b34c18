package usecases_port

import (
	"context"

	"autoria-parser-service/internal/core/domain"

	"github.com/google/uuid"
)

// ProcessLinkPort - входящий порт для обработки одной ссылки на объявление.
type ProcessLinkPort interface {
	Execute(ctx context.Context, link domain.CarLink, runID uuid.UUID) domain.ExtractResult
}
