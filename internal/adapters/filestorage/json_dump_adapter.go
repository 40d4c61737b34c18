package filestorage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"autoria-parser-service/internal/contextkeys"
	"autoria-parser-service/internal/core/domain"
	"autoria-parser-service/internal/core/port"
)

// carDumpDTO - представление записи в JSON-дампе с фиксированным набором ключей.
type carDumpDTO struct {
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	PriceUSD      int       `json:"price_usd"`
	OdometerKm    int       `json:"odometer_km"`
	Username      string    `json:"username"`
	PhoneNumber   string    `json:"phone_number"`
	ImageURL      string    `json:"image_url"`
	ImagesCount   int       `json:"images_count"`
	CarVIN        string    `json:"car_vin"`
	CarNumber     string    `json:"car_number"`
	DatetimeFound time.Time `json:"datetime_found"`
}

// JSONDumpAdapter пишет итоговую пачку записей в файл с таймстампом в имени.
type JSONDumpAdapter struct {
	dumpsDir string
}

// NewJSONDumpAdapter создает новый экземпляр JSONDumpAdapter
func NewJSONDumpAdapter(dumpsDir string) (*JSONDumpAdapter, error) {
	if dumpsDir == "" {
		return nil, fmt.Errorf("json dump adapter: dumps directory is required")
	}
	return &JSONDumpAdapter{dumpsDir: dumpsDir}, nil
}

// Write сериализует пачку в dumps/cars_dump_YYYYMMDD_HHMMSS.json.
// Пустая пачка - no-op.
func (a *JSONDumpAdapter) Write(ctx context.Context, records []domain.CarRecord) (string, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	dumpLogger := logger.WithFields(port.Fields{"component": "JSONDumpAdapter"})

	if len(records) == 0 {
		dumpLogger.Info("No records to dump.", nil)
		return "", nil
	}

	if err := os.MkdirAll(a.dumpsDir, 0o755); err != nil {
		return "", fmt.Errorf("json dump adapter: failed to create dumps directory: %w", err)
	}

	dtos := make([]carDumpDTO, len(records))
	for i, rec := range records {
		dtos[i] = carDumpDTO{
			URL:           rec.URL,
			Title:         rec.Title,
			PriceUSD:      rec.PriceUSD,
			OdometerKm:    rec.OdometerKm,
			Username:      rec.SellerName,
			PhoneNumber:   rec.PhoneNumber,
			ImageURL:      rec.ImageURL,
			ImagesCount:   rec.ImagesCount,
			CarVIN:        rec.CarVIN,
			CarNumber:     rec.CarNumber,
			DatetimeFound: rec.FoundAt,
		}
	}

	data, err := json.MarshalIndent(dtos, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json dump adapter: failed to marshal records: %w", err)
	}

	filename := filepath.Join(a.dumpsDir, fmt.Sprintf("cars_dump_%s.json", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("json dump adapter: failed to write dump file: %w", err)
	}

	dumpLogger.Info("Saved records to dump file", port.Fields{
		"file":          filename,
		"records_count": len(records),
	})

	return filename, nil
}
