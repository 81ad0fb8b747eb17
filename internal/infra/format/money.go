// Package format renders money values for display using CLDR data from golang.org/x/text.
package format

import (
	"math"
	"strings"
	"sync"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"programhub/internal/domain/shared/money"
)

// SupportedLocales are the display locales offered next to the marketplace default.
var SupportedLocales = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
	language.Italian,
	language.Dutch,
	language.Portuguese,
	language.Polish,
	language.Russian,
	language.Ukrainian,
	language.Japanese,
	language.Chinese,
}

// MoneyFormatter formats subunit amounts with the currency symbol and the locale's
// digit grouping. Requested locales are matched against DefaultLocale and
// SupportedLocales; anything unmatched formats with DefaultLocale.
type MoneyFormatter struct {
	DefaultLocale string

	once     sync.Once
	matcher  language.Matcher
	printers []*message.Printer // one per matcher tag, same order
}

func NewMoneyFormatter(defaultLocale string) *MoneyFormatter {
	return &MoneyFormatter{DefaultLocale: defaultLocale}
}

func (f *MoneyFormatter) Format(m money.Money, locale string) string {
	p := f.printer(locale)
	unit, err := currency.ParseISO(m.Currency)
	if err != nil {
		return p.Sprintf("%v %s", number.Decimal(float64(m.Amount)/100, number.Scale(2)), m.Currency)
	}
	scale, _ := currency.Standard.Rounding(unit)
	value := float64(m.Amount) / math.Pow10(scale)
	return p.Sprintf("%v %v", currency.Symbol(unit), number.Decimal(value, number.Scale(scale)))
}

func (f *MoneyFormatter) printer(locale string) *message.Printer {
	f.once.Do(f.init)
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return f.printers[0]
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return f.printers[0]
	}
	_, index, confidence := f.matcher.Match(tag)
	if confidence == language.No || index < 0 || index >= len(f.printers) {
		return f.printers[0]
	}
	return f.printers[index]
}

func (f *MoneyFormatter) init() {
	fallback := language.English
	if tag, err := language.Parse(strings.TrimSpace(f.DefaultLocale)); err == nil {
		fallback = tag
	}
	tags := []language.Tag{fallback}
	for _, tag := range SupportedLocales {
		if tag.String() != fallback.String() {
			tags = append(tags, tag)
		}
	}
	f.matcher = language.NewMatcher(tags)
	f.printers = make([]*message.Printer, len(tags))
	for i, tag := range tags {
		f.printers[i] = message.NewPrinter(tag)
	}
}

var _ money.Formatter = (*MoneyFormatter)(nil)
