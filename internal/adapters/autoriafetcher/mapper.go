package autoriafetcher

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"autoria-parser-service/internal/constants"
	"autoria-parser-service/internal/core/domain"
	"autoria-parser-service/internal/core/port"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// fieldRule описывает извлечение одного простого текстового поля:
// селектор элемента плюс функция, кладущая нормализованное значение в запись.
type fieldRule struct {
	name     string
	selector string
	assign   func(rec *domain.CarRecord, raw string)
}

// Статичная таблица правил для простых полей. Отсутствующий элемент
// деградирует до значения по умолчанию, а не валит разбор целиком.
var detailFieldRules = []fieldRule{
	{
		name:     "price",
		selector: constants.SelectorPrice,
		assign: func(rec *domain.CarRecord, raw string) {
			rec.PriceUSD = ParsePrice(raw)
		},
	},
	{
		name:     "odometer",
		selector: constants.SelectorOdometer,
		assign: func(rec *domain.CarRecord, raw string) {
			rec.OdometerKm = ParseOdometer(raw)
		},
	},
	{
		name:     "username",
		selector: constants.SelectorSellerName,
		assign: func(rec *domain.CarRecord, raw string) {
			// Имя продавца сохраняется как есть, без нормализации регистра
			if raw == "" {
				rec.SellerName = constants.UnknownSellerName
				return
			}
			rec.SellerName = raw
		},
	},
	{
		name:     "vin",
		selector: constants.SelectorVIN,
		assign: func(rec *domain.CarRecord, raw string) {
			rec.CarVIN = raw
		},
	},
}

// toDomainRecord разбирает разметку страницы объявления в доменную запись.
// Единственный обязательный структурный якорь - заголовок: без него
// разбор прерывается с ошибкой. Все остальное деградирует до умолчаний.
func toDomainRecord(body []byte, adURL string, logger port.LoggerPort) (*domain.CarRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("mapper: failed to parse ad page markup: %w", err)
	}

	titleSel := doc.Find(constants.SelectorTitle).First()
	if titleSel.Length() == 0 {
		return nil, fmt.Errorf("mapper: required title element %q not found", constants.SelectorTitle)
	}

	record := &domain.CarRecord{
		URL:   adURL,
		Title: strings.TrimSpace(titleSel.Text()),
	}

	for _, rule := range detailFieldRules {
		raw := strings.TrimSpace(doc.Find(rule.selector).First().Text())
		rule.assign(record, raw)
	}

	// Телефоны: оставляем первый канонизированный непустой номер
	doc.Find(constants.SelectorPhones).EachWithBreak(func(_ int, phoneSel *goquery.Selection) bool {
		phone := ParsePhone(strings.TrimSpace(phoneSel.Text()))
		if phone == "" {
			return true
		}
		record.PhoneNumber = phone
		return false
	})

	// Госномер: только первый текстовый узел, без вложенных подсказок
	plateSel := doc.Find(constants.SelectorPlate).First()
	if plateSel.Length() > 0 {
		record.CarNumber = firstTextNode(plateSel)
	}

	// Фотографии: ссылка на первую плюс общее количество
	imageSels := doc.Find(constants.SelectorImages)
	record.ImagesCount = imageSels.Length()
	if record.ImagesCount > 0 {
		first := imageSels.First()
		for _, attr := range []string{"srcset", "src", "data-src"} {
			if val, exists := first.Attr(attr); exists && val != "" {
				record.ImageURL = val
				break
			}
		}
	}

	record.FoundAt = time.Now().UTC()

	logger.Debug("Mapped ad page to domain record", port.Fields{
		"url":          adURL,
		"price_usd":    record.PriceUSD,
		"images_count": record.ImagesCount,
	})

	return record, nil
}

// firstTextNode возвращает первый текстовый узел элемента.
// На странице номерного знака за текстом идет вложенный span с подсказкой,
// который не должен попадать в значение.
func firstTextNode(sel *goquery.Selection) string {
	for node := sel.Nodes[0].FirstChild; node != nil; node = node.NextSibling {
		if node.Type == html.TextNode {
			if text := strings.TrimSpace(node.Data); text != "" {
				return text
			}
		}
	}
	return ""
}
