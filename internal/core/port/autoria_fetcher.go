package port

import (
	"context"

	"autoria-parser-service/internal/core/domain"
)

// AutoRiaFetcherPort объединяет все операции, которые можно выполнить
// с источником данных AutoRia.
type AutoRiaFetcherPort interface {
	// FetchLinks извлекает ссылки на объявления со страницы выдачи.
	// Недоступная страница - это не ошибка: возвращается пустой срез.
	FetchLinks(ctx context.Context, page int) ([]domain.CarLink, error)

	// FetchAdDetails извлекает полную информацию об автомобиле по URL объявления.
	// (nil, nil) означает "страница недоступна после всех попыток" -
	// вызывающий код обязан трактовать это как пропуск, а не как фатальный сбой.
	// Ошибка возвращается только при сбое разбора разметки.
	FetchAdDetails(ctx context.Context, adURL string) (*domain.CarRecord, error)
}
