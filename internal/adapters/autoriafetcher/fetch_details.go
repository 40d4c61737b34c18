package autoriafetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"autoria-parser-service/internal/contextkeys"
	"autoria-parser-service/internal/core/domain"
	"autoria-parser-service/internal/core/port"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// FetchAdDetails извлекает и преобразует детальную информацию об объявлении.
// (nil, nil) означает, что страница недоступна после всех попыток.
func (a *AutoRiaFetcherAdapter) FetchAdDetails(ctx context.Context, adURL string) (*domain.CarRecord, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	fetchDetailsLogger := logger.WithFields(port.Fields{"component": "AutoRiaFetcherAdapter(FetchDetails)"})

	body, ok := a.fetchPage(ctx, adURL, fetchDetailsLogger)
	if !ok {
		fetchDetailsLogger.Warn("Ad page unavailable after all attempts", port.Fields{"url": adURL})
		return nil, nil
	}

	record, err := toDomainRecord(body, adURL, fetchDetailsLogger)
	if err != nil {
		fetchDetailsLogger.Error("Failed to map ad page to domain record", err, port.Fields{"url": adURL})
		return nil, fmt.Errorf("autoria adapter: failed to map ad page %s: %w", adURL, err)
	}

	return record, nil
}

// fetchPage выполняет GET с повторными попытками.
// Пауза-джиттер задается лимитами родительского коллектора, ротация
// User-Agent - расширением на клоне. Ответ 429 вызывает линейно растущую паузу.
// Исчерпание попыток - это не ошибка, а явное "недоступно" (nil, false).
func (a *AutoRiaFetcherAdapter) fetchPage(ctx context.Context, pageURL string, logger port.LoggerPort) ([]byte, bool) {
	for attempt := 1; attempt <= a.retryAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, false
		default:
		}

		// Одноразовый клон: наследует лимиты, но не колбэки родителя,
		// поэтому ротация User-Agent и Referer вешаются на каждый клон
		collector := a.collector.Clone()
		extensions.RandomUserAgent(collector)
		extensions.Referer(collector)

		var body []byte
		var statusCode int

		collector.OnResponse(func(r *colly.Response) {
			body = r.Body
		})

		collector.OnError(func(r *colly.Response, err error) {
			statusCode = r.StatusCode
			logger.Warn("Fetch attempt failed", port.Fields{
				"url":     pageURL,
				"attempt": attempt,
				"status":  r.StatusCode,
				"error":   err.Error(),
			})
		})

		if err := collector.Visit(pageURL); err != nil {
			// Транспортная ошибка (таймаут, DNS и т.д.) - обычная неудачная попытка
			logger.Warn("Fetch attempt failed to complete", port.Fields{
				"url":     pageURL,
				"attempt": attempt,
				"error":   err.Error(),
			})
		}
		collector.Wait()

		if body != nil {
			return body, true
		}

		if statusCode == http.StatusTooManyRequests {
			backoff := a.rateLimitBackoff * time.Duration(attempt)
			logger.Warn("Rate limited, backing off", port.Fields{
				"url":     pageURL,
				"attempt": attempt,
				"backoff": backoff.String(),
			})
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, false
			}
		}
	}

	return nil, false
}
