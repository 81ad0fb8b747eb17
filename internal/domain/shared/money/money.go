package money

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrAmountOverflow   = errors.New("money: amount overflows")
)

// Money keeps amounts as an integer count of minor currency units.
type Money struct {
	Amount   int64  `json:"amount" bson:"amount"`
	Currency string `json:"currency" bson:"currency"`
}

// New constructs a Money value. Currency codes are three upper-case ASCII letters
// and are compared as given.
func New(amount int64, currency string) (Money, error) {
	if !validCode(currency) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Multiply multiplies the amount by a non-negative factor. Callers validate the factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// MultiplyChecked is Multiply for untrusted factors. Negative factors and products
// outside the int64 range return ErrAmountOverflow.
func (m Money) MultiplyChecked(times int64) (Money, error) {
	if times < 0 {
		return Money{}, fmt.Errorf("%w: negative factor %d", ErrAmountOverflow, times)
	}
	if times != 0 && abs(m.Amount) > math.MaxInt64/times {
		return Money{}, fmt.Errorf("%w: %s x %d", ErrAmountOverflow, m, times)
	}
	return m.Multiply(times), nil
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsSupported reports whether the value is denominated in the marketplace currency.
func (m Money) IsSupported(configuredCurrency string) bool {
	return m.Currency == configuredCurrency
}

// Equal compares amount and currency.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}

// Formatter renders Money for a locale. Implementations must be deterministic.
type Formatter interface {
	Format(m Money, locale string) string
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

func abs(v int64) int64 {
	if v == math.MinInt64 {
		return math.MaxInt64
	}
	if v < 0 {
		return -v
	}
	return v
}

func validCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
