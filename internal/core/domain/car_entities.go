package domain

import (
	"time"
)

// CarLink представляет ссылку на страницу объявления, найденную на странице выдачи.
// URL является уникальным идентификатором объявления во всей системе.
type CarLink struct {
	URL string
}

// CarRecord - итоговая запись об автомобиле, извлеченная со страницы объявления.
type CarRecord struct {
	URL         string
	Title       string
	PriceUSD    int
	OdometerKm  int
	SellerName  string
	PhoneNumber string
	ImageURL    string
	ImagesCount int
	CarVIN      string
	CarNumber   string

	// FoundAt выставляется один раз в момент успешного извлечения
	// и дальше не меняется.
	FoundAt time.Time
}

// Статусы обработки одной ссылки.
const (
	ExtractOK      = "ok"
	ExtractSkipped = "skipped"
	ExtractFailed  = "failed"
)

// ExtractResult - явный результат обработки одной ссылки вместо
// проброса ошибок наверх. Вызывающий код ветвится по Status.
type ExtractResult struct {
	Status string
	Record *CarRecord
	Reason string
}

// Extracted оборачивает успешно извлеченную запись.
func Extracted(record *CarRecord) ExtractResult {
	return ExtractResult{Status: ExtractOK, Record: record}
}

// Skipped помечает ссылку как пропущенную (не авто с пробегом, уже в базе,
// страница недоступна). Это не ошибка.
func Skipped(reason string) ExtractResult {
	return ExtractResult{Status: ExtractSkipped, Reason: reason}
}

// Failed помечает ссылку как не разобранную из-за ошибки парсинга.
func Failed(reason string) ExtractResult {
	return ExtractResult{Status: ExtractFailed, Reason: reason}
}

// ScrapeStats - сводка по одному запуску скрапера.
type ScrapeStats struct {
	// PagesVisited считает страницы выдачи, опрос которых завершился без
	// сбоя, включая недоступные и пустые - на них просто не нашлось ссылок.
	PagesVisited       int
	LinksDiscovered    int
	LinksAlreadyStored int
	LinksSkipped       int
	LinksFailed        int
	RecordsCollected   int
	Duration           time.Duration
}
