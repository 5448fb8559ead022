// Package currency converts source-store prices into the display currency
// and applies destination-store markups.
package currency

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultJPYToUSDRate is the fixed rate used when none is configured.
const DefaultJPYToUSDRate = "0.0067"

var errNonPositiveRate = errors.New("currency: rate must be positive")

var (
	defaultConverter = MustConverter(DefaultJPYToUSDRate)
	usdPrinter       = message.NewPrinter(language.AmericanEnglish)
)

// Converter multiplies amounts by a fixed rate and rounds to cents.
type Converter struct {
	rate decimal.Decimal
}

// NewConverter parses rate as a decimal. A non-positive rate is rejected.
func NewConverter(rate string) (Converter, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(rate))
	if err != nil {
		return Converter{}, err
	}
	if !d.IsPositive() {
		return Converter{}, errNonPositiveRate
	}
	return Converter{rate: d}, nil
}

func MustConverter(rate string) Converter {
	c, err := NewConverter(rate)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the converter for the fixed JPY to USD rate.
func Default() Converter {
	return defaultConverter
}

// Rate reports the conversion rate as a string.
func (c Converter) Rate() string {
	return c.rate.String()
}

// Convert returns amount*rate rounded half-up to two decimals, or 0 when
// amount is not a finite positive number.
func (c Converter) Convert(amount float64) float64 {
	d, ok := fromFloat(amount)
	if !ok {
		return 0
	}
	return c.convert(d).InexactFloat64()
}

// ConvertString parses a numeric string before converting. Unparseable
// input yields 0.
func (c Converter) ConvertString(amount string) float64 {
	d, ok := ParseAmount(amount)
	if !ok {
		return 0
	}
	return c.convert(d).InexactFloat64()
}

func (c Converter) convert(d decimal.Decimal) decimal.Decimal {
	if !d.IsPositive() {
		return decimal.Zero
	}
	return d.Mul(c.rate).Round(2)
}

// ConvertJPYtoUSD converts with the fixed default rate.
func ConvertJPYtoUSD(amount float64) float64 {
	return defaultConverter.Convert(amount)
}

// ParseAmount reads a price string such as "1200" or "10.50".
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ApplyMultiplier returns price*multiplier formatted with two decimals.
// An unparseable price is treated as zero.
func ApplyMultiplier(price string, multiplier float64) string {
	d, ok := ParseAmount(price)
	if !ok {
		d = decimal.Zero
	}
	return Multiply(d, multiplier)
}

// Multiply formats amount*multiplier with two decimals.
func Multiply(amount decimal.Decimal, multiplier float64) string {
	m, ok := fromFloat(multiplier)
	if !ok {
		m = decimal.Zero
	}
	return amount.Mul(m).StringFixed(2)
}

// FormatUSD renders amount as US dollars, e.g. "$1,234.56".
func FormatUSD(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "$0.00"
	}
	if amount < 0 {
		return "-" + usdPrinter.Sprintf("$%.2f", -amount)
	}
	return usdPrinter.Sprintf("$%.2f", amount)
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}
