package format

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FmtUSD formats cents as dollars with locale grouping. Whole-dollar amounts drop
// the fraction, e.g. FmtUSD(4900, "en") => "$49".
func FmtUSD(cents int64, lang string) string {
	p := message.NewPrinter(tag(lang))
	neg := cents < 0
	if neg {
		cents = -cents
	}
	var s string
	if cents%100 == 0 {
		s = p.Sprint(number.Decimal(cents / 100))
	} else {
		s = p.Sprint(number.Decimal(float64(cents)/100, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	}
	if neg {
		return "-$" + s
	}
	return "$" + s
}

// FmtDate formats t in a locale-friendly long form.
func FmtDate(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	switch strings.ToLower(lang) {
	case "es":
		return t.Format("2") + " de " + spanishMonths[t.Month()-1] + " de " + t.Format("2006")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// ISODate is used for <time datetime> attributes.
func ISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func tag(lang string) language.Tag {
	t, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	return t
}
