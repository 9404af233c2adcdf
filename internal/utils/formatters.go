package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"drivercommission/internal/constants"
)

// FormatMoney форматирует сумму для отображения: разделитель тысяч -
// пробел, не больше двух знаков после запятой ("15 000", "1 234,5").
func FormatMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	intPart := d.Truncate(0)
	fracPart := d.Sub(intPart).String() // "0.5" или "0"

	digits := intPart.String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	if fracPart != "0" {
		b.WriteString(",")
		b.WriteString(strings.TrimPrefix(fracPart, "0."))
	}
	return sign + b.String()
}

// FormatDateForDisplay форматирует дату для отображения (например, "14 октября 2026").
func FormatDateForDisplay(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), constants.MonthMap[t.Month()], t.Year())
}

// GetRussianMonthName возвращает название месяца в именительном падеже
// с заглавной буквы ("Октябрь").
func GetRussianMonthName(m time.Month) string {
	if name, ok := constants.MonthNominativeMap[m]; ok {
		return name
	}
	return m.String()
}
