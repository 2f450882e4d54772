package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// moneyScale is the number of fractional digits every amount carries.
	moneyScale = 2
	// maxIntegerDigits matches the NUMERIC(19,2) price columns.
	maxIntegerDigits = 17
	maxAmountLength  = 64
)

var maxAmount = decimal.New(1, maxIntegerDigits)

// Money is an immutable (amount, currency) pair. Amounts are fixed-point with
// two fractional digits and never negative.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney parses amount (e.g. "10.01") and tags it with a three-letter
// currency code. Lower-case codes are accepted and normalised.
func NewMoney(amount, currency string) (Money, error) {
	trimmed := strings.TrimSpace(amount)
	if err := checkAmountSyntax(trimmed); err != nil {
		return Money{}, err
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, amount)
	}
	return NewMoneyFromDecimal(d, currency)
}

// NewMoneyFromDecimal builds Money from an already parsed decimal.
func NewMoneyFromDecimal(d decimal.Decimal, currency string) (Money, error) {
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidAmount)
	}
	if d.Exponent() < -maxAmountLength {
		return Money{}, fmt.Errorf("%w: at most %d fractional digits allowed", ErrInvalidAmount, moneyScale)
	}
	if d.Exponent() > maxIntegerDigits || d.GreaterThanOrEqual(maxAmount) {
		return Money{}, fmt.Errorf("%w: at most %d integer digits allowed", ErrInvalidAmount, maxIntegerDigits)
	}
	if !d.Equal(d.Round(moneyScale)) {
		return Money{}, fmt.Errorf("%w: at most %d fractional digits allowed", ErrInvalidAmount, moneyScale)
	}
	code, err := normaliseCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: d.Round(moneyScale), currency: code}, nil
}

// MustMoney is NewMoney for literals known to be valid. It panics otherwise.
func MustMoney(amount, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// checkAmountSyntax accepts plain notation only: an optional minus sign, digits
// and at most one decimal point. Exponents are refused before parsing so a
// short input cannot expand into a huge number.
func checkAmountSyntax(s string) error {
	if s == "" || len(s) > maxAmountLength {
		return fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	body := strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(body, ".")
	if intPart == "" && frac == "" {
		return fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	if !allDigits(intPart) || !allDigits(frac) {
		return fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	if len(strings.TrimLeft(intPart, "0")) > maxIntegerDigits {
		return fmt.Errorf("%w: at most %d integer digits allowed", ErrInvalidAmount, maxIntegerDigits)
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func normaliseCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
	}
	return code, nil
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the ISO-4217 style currency code.
func (m Money) Currency() string { return m.currency }

// Add returns m + other. Both operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Compare returns -1, 0 or 1 when m is less than, equal to or greater than
// other. Comparing different currencies is undefined and fails.
func (m Money) Compare(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return m.amount.Cmp(other.amount), nil
}

// GreaterThan reports whether m is strictly greater than other.
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) IsPositive() bool { return m.amount.IsPositive() }

func (m Money) IsZero() bool { return m.amount.IsZero() }

// String renders "10.01 GBP".
func (m Money) String() string {
	return m.amount.StringFixed(moneyScale) + " " + m.currency
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(moneyScale), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := NewMoney(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
