package ofxparser

import (
	"strings"
	"time"
)

const (
	DefaultDateLayout     = "2006-01-02"
	DefaultDateTimeLayout = "2006-01-02 15:04:05"

	accountDateLayout = "20060102"
)

// transactionLayouts are tried in order against <DTPOSTED> values.
var transactionLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{"20060102150405.000", false},
	{"20060102150405", false},
	{"20060102", true},
}

// StripTimezone drops an OFX timezone annotation such as "[-3:GMT]".
func StripTimezone(raw string) string {
	before, _, _ := strings.Cut(raw, "[")
	return strings.TrimSpace(before)
}

// FormatTransactionDate reformats a <DTPOSTED> value. Values carrying a
// time use dateTimeLayout, date-only values use dateLayout.
// When no input layout matches, the timezone-stripped raw value is returned
// with ok set to false.
func FormatTransactionDate(raw, dateLayout, dateTimeLayout string) (string, bool) {
	value := StripTimezone(raw)

	for _, candidate := range transactionLayouts {
		t, err := time.Parse(candidate.layout, value)
		if err != nil {
			continue
		}
		if candidate.dateOnly {
			return t.Format(dateLayout), true
		}
		return t.Format(dateTimeLayout), true
	}

	return value, false
}

// FormatAccountDate reformats <DTSTART>, <DTEND> and <DTASOF> values.
// Only the leading yyyyMMdd part is read; any time of day is ignored.
func FormatAccountDate(raw, dateLayout string) (string, bool) {
	value := StripTimezone(raw)
	if len(value) < len(accountDateLayout) {
		return value, false
	}

	t, err := time.Parse(accountDateLayout, value[:len(accountDateLayout)])
	if err != nil {
		return value, false
	}
	return t.Format(dateLayout), true
}
