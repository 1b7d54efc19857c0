package utils

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "¥0.00"},
		{1, "¥1.00"},
		{999.5, "¥999.50"},
		{1000, "¥1,000.00"},
		{12345.6, "¥12,345.60"},
		{1234567.89, "¥1,234,567.89"},
		{-1500, "-¥1,500.00"},
	}

	for _, tt := range tests {
		if got := FormatCurrency(tt.amount); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "+0.00%"},
		{3.2, "+3.20%"},
		{-5.15, "-5.15%"},
	}

	for _, tt := range tests {
		if got := FormatPercent(tt.value); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

// Property: stripping the symbol and separators from the formatted amount
// parses back to the original value within rounding tolerance.
func TestProperty_FormatCurrencyRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("formatted amount parses back", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatCurrency(amount)

			cleaned := strings.NewReplacer("¥", "", ",", "").Replace(formatted)
			parsed, err := strconv.ParseFloat(cleaned, 64)
			if err != nil {
				return false
			}

			diff := parsed - amount
			if diff < 0 {
				diff = -diff
			}
			return diff < 0.005+1e-9
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("grouping never splits oddly", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatCurrency(amount)
			intPart := formatted[:strings.Index(formatted, ".")]
			intPart = strings.TrimPrefix(intPart, "-")
			intPart = strings.TrimPrefix(intPart, "¥")

			groups := strings.Split(intPart, ",")
			if len(groups[0]) < 1 || len(groups[0]) > 3 {
				return false
			}
			for _, g := range groups[1:] {
				if len(g) != 3 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(0, 1e12),
	))

	properties.TestingRun(t)
}
