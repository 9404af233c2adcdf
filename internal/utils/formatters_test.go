package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	cases := map[float64]string{
		0:         "0",
		15:        "15",
		1500:      "1 500",
		100000:    "100 000",
		1234567.5: "1 234 567,5",
		8500.25:   "8 500,25",
		-2400:     "-2 400",
		0.125:     "0,13",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMoney(in), "FormatMoney(%v)", in)
	}
}

func TestFormatDateForDisplay(t *testing.T) {
	assert.Equal(t, "14 октября 2026", FormatDateForDisplay(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1 января 2025", FormatDateForDisplay(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestGetRussianMonthName(t *testing.T) {
	assert.Equal(t, "Октябрь", GetRussianMonthName(time.October))
	assert.Equal(t, "Май", GetRussianMonthName(time.May))
}
