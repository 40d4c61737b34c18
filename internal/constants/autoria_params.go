package constants

import "time"

// Базовые параметры источника AutoRia.
const (
	// DefaultStartURL - выдача б/у автомобилей. Номер страницы добавляется
	// query-параметром page.
	DefaultStartURL = "https://auto.ria.com/uk/car/used/"

	// NewCarURLMarker - признак того, что ссылка ведет на новое авто,
	// а не на авто с пробегом. Такие ссылки пропускаются.
	NewCarURLMarker = "newauto"
)

// Фиксированные курсы для приведения цены к USD.
const (
	EuroToUSDRate    = 1.1
	HryvniaToUSDRate = 41.22
)

// Параметры повторных запросов.
const (
	// RateLimitBackoffStep - базовый шаг паузы после ответа 429.
	// Пауза растет линейно с номером попытки.
	RateLimitBackoffStep = 5 * time.Second

	// FetchRandomDelay - верхняя граница случайной паузы перед каждым
	// запросом, чтобы не провоцировать анти-бот защиту.
	FetchRandomDelay = 1500 * time.Millisecond
)

// Селектор карточек объявлений на странице выдачи.
const SelectorListingCards = "section.ticket-item a.address"

// Селекторы полей на странице объявления.
const (
	SelectorTitle      = "h1.head"
	SelectorPrice      = "div.price_value strong"
	SelectorOdometer   = "div.base-information.bold"
	SelectorSellerName = "div.seller_info_name.bold"
	SelectorVIN        = "span.label-vin"
	SelectorPlate      = "span.state-num.ua"
	SelectorPhones     = "div.phones_item span.phone.bold"
	SelectorImages     = "div.photo-620x465 picture source"
)

// UnknownSellerName подставляется, когда имя продавца на странице отсутствует.
const UnknownSellerName = "Unknown"
