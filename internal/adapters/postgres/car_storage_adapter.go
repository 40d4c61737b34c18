package postgres

import (
	"context"
	"fmt"
	"strings"

	"autoria-parser-service/internal/contextkeys"
	"autoria-parser-service/internal/core/domain"
	"autoria-parser-service/internal/core/port"

	"github.com/jackc/pgx/v5/pgxpool"
)

const carColumnsCount = 11

// CarStorageAdapter реализует CarStoragePort поверх PostgreSQL.
// Уникальный индекс по url в таблице cars - последний рубеж защиты
// от двойной вставки при деградации пакетной проверки существования.
type CarStorageAdapter struct {
	pool *pgxpool.Pool
}

// NewCarStorageAdapter создает новый экземпляр CarStorageAdapter
func NewCarStorageAdapter(pool *pgxpool.Pool) (*CarStorageAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("car storage adapter: pool cannot be nil")
	}
	return &CarStorageAdapter{pool: pool}, nil
}

// FilterExisting за один запрос возвращает те из urls, которых еще нет в базе,
// сохраняя исходный порядок.
func (a *CarStorageAdapter) FilterExisting(ctx context.Context, urls []string) ([]string, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "CarStorageAdapter",
		"method":    "FilterExisting",
	})

	if len(urls) == 0 {
		return nil, nil
	}

	query := `SELECT url FROM cars WHERE url = ANY($1)`

	rows, err := a.pool.Query(ctx, query, urls)
	if err != nil {
		repoLogger.Error("Error querying existing urls", err, port.Fields{"urls_count": len(urls)})
		return nil, fmt.Errorf("car storage: error querying existing urls: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			repoLogger.Error("Error scanning existing url", err, nil)
			return nil, fmt.Errorf("car storage: error scanning existing url: %w", err)
		}
		existing[u] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("car storage: error reading existing urls: %w", err)
	}

	fresh := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := existing[u]; !ok {
			fresh = append(fresh, u)
		}
	}

	repoLogger.Debug("Filtered existing urls", port.Fields{
		"checked": len(urls),
		"new":     len(fresh),
	})

	return fresh, nil
}

// Exists проверяет наличие одного объявления по URL.
func (a *CarStorageAdapter) Exists(ctx context.Context, url string) (bool, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "CarStorageAdapter",
		"method":    "Exists",
	})

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM cars WHERE url = $1)`

	if err := a.pool.QueryRow(ctx, query, url).Scan(&exists); err != nil {
		repoLogger.Error("Error checking car existence", err, port.Fields{"url": url})
		return false, fmt.Errorf("car storage: error checking existence of '%s': %w", url, err)
	}

	return exists, nil
}

// BatchSave вставляет пачку записей в одной транзакции.
// Дубликаты по url молча отбрасываются (ON CONFLICT DO NOTHING).
// При любой ошибке транзакция откатывается целиком - частичных вставок нет.
func (a *CarStorageAdapter) BatchSave(ctx context.Context, records []domain.CarRecord) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":    "CarStorageAdapter",
		"method":       "BatchSave",
		"record_count": len(records),
	})

	if len(records) == 0 {
		repoLogger.Info("No records to save.", nil)
		return 0, nil
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		repoLogger.Error("Failed to begin transaction", err, nil)
		return 0, fmt.Errorf("car storage: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	values := make([][]interface{}, len(records))
	for i, rec := range records {
		values[i] = []interface{}{
			rec.URL,
			rec.Title,
			rec.PriceUSD,
			rec.OdometerKm,
			rec.SellerName,
			rec.PhoneNumber,
			rec.ImageURL,
			rec.ImagesCount,
			rec.CarVIN,
			rec.CarNumber,
			rec.FoundAt,
		}
	}

	sql := fmt.Sprintf(`
		INSERT INTO cars
			(url, title, price_usd, odometer_km, username, phone_number,
			 image_url, images_count, car_vin, car_number, datetime_found)
		VALUES %s
		ON CONFLICT (url) DO NOTHING
	`, buildValuesPlaceholders(carColumnsCount, len(values)))

	tag, err := tx.Exec(ctx, sql, flatten(values)...)
	if err != nil {
		repoLogger.Error("Failed to batch insert cars", err, nil)
		return 0, fmt.Errorf("car storage: failed to batch insert cars: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		repoLogger.Error("Failed to commit transaction", err, nil)
		return 0, fmt.Errorf("car storage: failed to commit transaction: %w", err)
	}

	inserted := int(tag.RowsAffected())
	repoLogger.Info("Batch save completed", port.Fields{
		"inserted":   inserted,
		"duplicates": len(records) - inserted,
	})

	return inserted, nil
}

// buildValuesPlaceholders генерирует "($1,$2,...),($12,$13,...)" для multi-VALUES вставки
func buildValuesPlaceholders(columns, rowCount int) string {
	var sb strings.Builder
	arg := 1
	for row := 0; row < rowCount; row++ {
		if row > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(")
		for col := 0; col < columns; col++ {
			if col > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "$%d", arg)
			arg++
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// flatten разворачивает строки значений в один плоский срез аргументов
func flatten(rows [][]interface{}) []interface{} {
	var flat []interface{}
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return flat
}

// CREATE TABLE IF NOT EXISTS cars (
//     id BIGSERIAL PRIMARY KEY,
//     url TEXT NOT NULL UNIQUE,
//     title TEXT NOT NULL,
//     price_usd INTEGER NOT NULL,
//     odometer_km INTEGER NOT NULL,
//     username TEXT NOT NULL,
//     phone_number TEXT,
//     image_url TEXT,
//     images_count INTEGER NOT NULL DEFAULT 0,
//     car_vin TEXT NOT NULL DEFAULT '',
//     car_number TEXT NOT NULL DEFAULT '',
//     datetime_found TIMESTAMPTZ NOT NULL
// );
//
// CREATE INDEX IF NOT EXISTS idx_cars_url ON cars(url);
