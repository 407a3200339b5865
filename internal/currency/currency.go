// Package currency holds the display conversion table. Rates are relative
// to the base currency, which always has rate 1.
package currency

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTable is the rate list used when none is configured.
const DefaultTable = "SEK=1,EUR=0.088,ZAR=1.8"

var (
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrInvalidTable    = errors.New("invalid currency table")
)

type Rate struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

// Table maps currency codes to their rate against the base currency.
type Table struct {
	base  string
	rates map[string]decimal.Decimal
	order []string
}

// Parse reads a "CODE=rate,CODE=rate" list. The base currency must be
// present with rate 1.
func Parse(rates, base string) (*Table, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	t := &Table{base: base, rates: make(map[string]decimal.Decimal)}

	for _, pair := range strings.Split(rates, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not CODE=rate", ErrInvalidTable, pair)
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			return nil, fmt.Errorf("%w: empty code in %q", ErrInvalidTable, pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: rate for %s: %v", ErrInvalidTable, code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("%w: rate for %s must be positive", ErrInvalidTable, code)
		}
		if _, dup := t.rates[code]; dup {
			return nil, fmt.Errorf("%w: duplicate code %s", ErrInvalidTable, code)
		}
		t.rates[code] = rate
		t.order = append(t.order, code)
	}

	baseRate, ok := t.rates[base]
	if !ok {
		return nil, fmt.Errorf("%w: base currency %s missing", ErrInvalidTable, base)
	}
	if !baseRate.Equal(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: base currency %s must have rate 1", ErrInvalidTable, base)
	}
	return t, nil
}

func (t *Table) Base() string { return t.base }

// Rate returns the multiplier for code; an empty code means the base.
func (t *Table) Rate(code string) (float64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = t.base
	}
	r, ok := t.rates[code]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}
	return r.InexactFloat64(), nil
}

// Rates lists the table in configuration order.
func (t *Table) Rates() []Rate {
	out := make([]Rate, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, Rate{Code: code, Rate: t.rates[code]})
	}
	return out
}

// Codes returns the known codes sorted alphabetically.
func (t *Table) Codes() []string {
	codes := append([]string(nil), t.order...)
	sort.Strings(codes)
	return codes
}

// Format renders an amount with two decimals, rounding half away from zero.
func Format(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}
