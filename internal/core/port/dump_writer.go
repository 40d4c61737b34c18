package port

import (
	"context"

	"autoria-parser-service/internal/core/domain"
)

// DumpWriterPort определяет контракт для выгрузки итоговой пачки записей в файл.
type DumpWriterPort interface {
	// Write сериализует пачку и возвращает путь к созданному файлу.
	// Пустая пачка - no-op: возвращается пустой путь без ошибки.
	Write(ctx context.Context, records []domain.CarRecord) (string, error)
}
