package port

import (
	"context"

	"autoria-parser-service/internal/core/domain"
)

// CarStoragePort определяет контракт хранилища для ядра:
// пакетная проверка существования, точечная проверка и пакетная вставка.
// Хранилище обязано иметь уникальный индекс по url - ядро опирается на него
// как на последний рубеж защиты от двойной вставки.
type CarStoragePort interface {
	// FilterExisting за один запрос к базе возвращает подмножество urls,
	// которого в хранилище еще нет, сохраняя исходный порядок.
	FilterExisting(ctx context.Context, urls []string) ([]string, error)

	// Exists проверяет наличие одного объявления по URL.
	Exists(ctx context.Context, url string) (bool, error)

	// BatchSave вставляет пачку записей в одной транзакции и возвращает
	// количество реально вставленных строк (дубликаты по url молча отбрасываются).
	BatchSave(ctx context.Context, records []domain.CarRecord) (int, error)
}
