package ofxparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTransactionDate(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"date only", "20230101", "2023-01-01", true},
		{"date and time", "20230615120000", "2023-06-15 12:00:00", true},
		{"timezone suffix", "20230615120000[-3:GMT]", "2023-06-15 12:00:00", true},
		{"milliseconds", "20230615120000.123[-5:EST]", "2023-06-15 12:00:00", true},
		{"garbage", "abcdefgh", "abcdefgh", false},
		{"garbage with suffix", "abc[0:GMT]", "abc", false},
		{"invalid month", "20231301", "20231301", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatTransactionDate(tt.raw, DefaultDateLayout, DefaultDateTimeLayout)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestFormatAccountDate(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"20230601", "01/06/2023", true},
		{"20230601000000[-3:BRT]", "01/06/2023", true},
		{"2023", "2023", false},
		{"abcdefgh", "abcdefgh", false},
	}

	for _, tt := range tests {
		got, ok := FormatAccountDate(tt.raw, "02/01/2006")
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.wantOK, ok, tt.raw)
	}
}

func TestStripTimezone(t *testing.T) {
	assert.Equal(t, "20230615120000", StripTimezone("20230615120000[-3:GMT]"))
	assert.Equal(t, "20230615", StripTimezone(" 20230615 "))
	assert.Equal(t, "", StripTimezone("[0:GMT]"))
}
