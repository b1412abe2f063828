package cli

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// For any amount, FormatCurrency should:
// 1. Have exactly 2 decimal places
// 2. Group the integer part in threes from the right
// 3. Preserve the numeric value when parsed back
func TestProperty_CurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	groupPattern := regexp.MustCompile(`^\d{1,3}(,\d{3})*$`)

	properties.Property("FormatCurrency produces grouped output", prop.ForAll(
		func(amount float64) bool {
			if math.IsNaN(amount) || math.IsInf(amount, 0) {
				return true
			}
			if math.Abs(amount) > 1e15 {
				return true
			}

			formatted := FormatCurrency(amount)

			if amount < 0 && !strings.HasPrefix(formatted, "-") {
				t.Logf("Expected - prefix for %f, got %s", amount, formatted)
				return false
			}

			parts := strings.Split(formatted, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				t.Logf("Expected 2 decimal places for %f, got %s", amount, formatted)
				return false
			}

			intPart := strings.TrimPrefix(parts[0], "-")
			if !groupPattern.MatchString(intPart) {
				t.Logf("Bad grouping for %f: %s", amount, formatted)
				return false
			}

			return true
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatCurrency preserves value", prop.ForAll(
		func(amount float64) bool {
			if math.IsNaN(amount) || math.IsInf(amount, 0) {
				return true
			}

			formatted := FormatCurrency(amount)
			plain := strings.ReplaceAll(formatted, ",", "")
			parsed, err := strconv.ParseFloat(plain, 64)
			if err != nil {
				t.Logf("Unparseable output for %f: %s", amount, formatted)
				return false
			}

			rounded := math.Round(amount*100) / 100
			if math.Abs(parsed-rounded) > 0.01 {
				t.Logf("Value not preserved: original=%f, formatted=%s, parsed=%f", amount, formatted, parsed)
				return false
			}
			return true
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}

func TestFormatCurrencyExamples(t *testing.T) {
	testCases := []struct {
		amount   float64
		expected string
	}{
		{0, "0.00"},
		{1, "1.00"},
		{999.99, "999.99"},
		{1000, "1,000.00"},
		{100000, "100,000.00"},
		{1234567.89, "1,234,567.89"},
		{-1234.56, "-1,234.56"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			result := FormatCurrency(tc.amount)
			if result != tc.expected {
				t.Errorf("FormatCurrency(%f) = %s, want %s", tc.amount, result, tc.expected)
			}
		})
	}
}

func TestFormatQuantitySigned(t *testing.T) {
	if got := FormatQuantitySigned(5); got != "+5" {
		t.Errorf("FormatQuantitySigned(5) = %s, want +5", got)
	}
	if got := FormatQuantitySigned(-3); got != "-3" {
		t.Errorf("FormatQuantitySigned(-3) = %s, want -3", got)
	}
	if got := FormatQuantitySigned(0); got != "0" {
		t.Errorf("FormatQuantitySigned(0) = %s, want 0", got)
	}
}
