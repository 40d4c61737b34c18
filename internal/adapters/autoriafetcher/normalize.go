package autoriafetcher

import (
	"regexp"
	"strconv"
	"strings"

	"autoria-parser-service/internal/constants"
)

// Чистые функции нормализации сырого текста со страницы объявления.
// Все они тотальны: любой вход дает определенный результат,
// отсутствие данных - это ноль или пустая строка, а не ошибка.

var (
	// \s в regexp не покрывает неразрывный пробел, которым сайт
	// группирует разряды чисел, поэтому он добавлен явно
	odometerRe = regexp.MustCompile(`(\d+(?:[\s\x{00A0}]*\d+)*)[\s\x{00A0}]*(тис\.?|тыс\.?|км)?`)
	numberRe   = regexp.MustCompile(`\d+`)
	nonDigitRe = regexp.MustCompile(`\D`)
	spacesRe   = regexp.MustCompile(`[\s\x{00A0}]`)
)

// ParseOdometer превращает строку пробега в километры.
// Маркер тысяч ("тис."/"тыс.") умножает число на 1000, голое "км" - нет.
func ParseOdometer(odometerStr string) int {
	if odometerStr == "" {
		return 0
	}

	match := odometerRe.FindStringSubmatch(strings.ToLower(odometerStr))
	if match == nil {
		return 0
	}

	value, err := strconv.Atoi(spacesRe.ReplaceAllString(match[1], ""))
	if err != nil {
		return 0
	}

	multiplier := match[2]
	if strings.Contains(multiplier, "тис") || strings.Contains(multiplier, "тыс") {
		value *= 1000
	}

	return value
}

// ParsePrice превращает строку цены в целое число USD.
// Поддерживаемые форматы:
//   - "6 999 $"      -> 6999
//   - "24 200 €"     -> 26620 (конвертация EUR, усечение)
//   - "300 000 грн"  -> 7277  (конвертация UAH, усечение)
func ParsePrice(priceText string) int {
	if priceText == "" || priceText == "0" {
		return 0
	}

	// Убираем пробелы, включая неразрывные, между группами цифр
	cleanPrice := spacesRe.ReplaceAllString(strings.TrimSpace(priceText), "")

	numberMatch := numberRe.FindString(cleanPrice)
	if numberMatch == "" {
		return 0
	}

	amount, err := strconv.Atoi(numberMatch)
	if err != nil {
		return 0
	}

	// Конвертация по фиксированному курсу, всегда с усечением
	switch {
	case strings.Contains(cleanPrice, "€"):
		return int(float64(amount) * constants.EuroToUSDRate)
	case strings.Contains(cleanPrice, "грн"):
		return int(float64(amount) / constants.HryvniaToUSDRate)
	default:
		return amount // Считаем, что сумма уже в USD
	}
}

// ParsePhone приводит номер телефона к каноническому виду +380XXXXXXXXX.
// Пустой вход дает пустую строку; любой другой - строку канонической формы.
func ParsePhone(phoneStr string) string {
	if phoneStr == "" {
		return ""
	}

	digits := nonDigitRe.ReplaceAllString(phoneStr, "")

	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "380"):
		return "+" + digits
	case len(digits) == 10 && strings.HasPrefix(digits, "80"):
		return "+3" + digits
	case len(digits) == 9 && strings.HasPrefix(digits, "0"):
		return "+38" + digits
	case digits == "":
		return ""
	default:
		// Берем последние девять цифр и подставляем код страны
		tail := digits
		if len(tail) > 9 {
			tail = tail[len(tail)-9:]
		}
		return "+380" + tail
	}
}
