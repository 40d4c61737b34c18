package autoriafetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"autoria-parser-service/internal/constants"
	"autoria-parser-service/internal/contextkeys"
	"autoria-parser-service/internal/core/domain"
	"autoria-parser-service/internal/core/port"

	"github.com/PuerkitoBio/goquery"
)

// FetchLinks извлекает ссылки на объявления со страницы выдачи.
// Порядок ссылок соответствует порядку карточек в документе;
// анкоры без href отбрасываются. Недоступная страница дает пустой
// результат без ошибки - страница просто пропускается.
func (a *AutoRiaFetcherAdapter) FetchLinks(ctx context.Context, page int) ([]domain.CarLink, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	fetchLinksLogger := logger.WithFields(port.Fields{"component": "AutoRiaFetcherAdapter(FetchLinks)"})

	listingURL, err := a.buildListingURL(page)
	if err != nil {
		return nil, fmt.Errorf("autoria adapter: failed to build listing URL for page %d: %w", page, err)
	}

	fetchLinksLogger.Debug("Fetching listing page", port.Fields{"url": listingURL, "page": page})

	body, ok := a.fetchPage(ctx, listingURL, fetchLinksLogger)
	if !ok {
		fetchLinksLogger.Warn("Listing page unavailable after all attempts, skipping", port.Fields{
			"url":  listingURL,
			"page": page,
		})
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("autoria adapter: failed to parse listing page %d: %w", page, err)
	}

	var fetchedLinks []domain.CarLink
	doc.Find(constants.SelectorListingCards).Each(func(_ int, card *goquery.Selection) {
		href, exists := card.Attr("href")
		if !exists || href == "" {
			return
		}
		fetchedLinks = append(fetchedLinks, domain.CarLink{URL: href})
	})

	fetchLinksLogger.Info("Finished fetching links for page", port.Fields{
		"page":          page,
		"links_fetched": len(fetchedLinks),
	})

	return fetchedLinks, nil
}

func (a *AutoRiaFetcherAdapter) buildListingURL(page int) (string, error) {
	u, err := url.Parse(a.startURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}
