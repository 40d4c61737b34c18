package autoriafetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOdometer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"ukrainian thousands marker", "95 тис. км", 95000},
		{"russian thousands marker", "10 тыс.", 10000},
		{"marker without dot", "7 тис км", 7000},
		{"plain kilometers", "7500 км", 7500},
		{"grouped digits without marker", "123 456 км", 123456},
		{"non-breaking space before marker", "95 тис. км", 95000},
		{"non-breaking space between groups", "123 456 км", 123456},
		{"bare number", "250", 250},
		{"no digits", "пробіг невідомий", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOdometer(tt.input))
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"usd with symbol", "6 999 $", 6999},
		// 24200 * 1.1 = 26620, усечение
		{"eur converted", "24 200 €", 26620},
		// 300000 / 41.22 = 7278.02..., усечение вниз, не округление
		{"uah converted truncated", "300 000 грн", 7278},
		{"bare amount is usd", "15500", 15500},
		{"non-breaking spaces", "6 999 $", 6999},
		{"no digits", "Ціну уточнюйте", 0},
		{"zero literal", "0", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePrice(tt.input))
		})
	}
}

func TestParsePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"11 digits starting 380", "38067123456", "+38067123456"},
		{"10 digits starting 80", "8050123456", "+38050123456"},
		{"9 digits starting 0", "067123456", "+38067123456"},
		{"formatted mobile number", "(067) 123 45 67", "+380671234567"},
		{"full international form", "+380 50 123 45 67", "+380501234567"},
		{"fallback takes last nine digits", "380501234567", "+380501234567"},
		{"nine digits without leading zero", "501234567", "+380501234567"},
		{"short digit run keeps what it has", "12345", "+38012345"},
		{"no digits", "номер прихований", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePhone(tt.input))
		})
	}
}
