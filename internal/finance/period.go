package finance

import (
	"fmt"
	"time"

	"drivercommission/internal/constants"
)

// window - закрытый интервал [from, to].
type window struct {
	from time.Time
	to   time.Time
}

func (w window) contains(t time.Time) bool {
	return !t.Before(w.from) && !t.After(w.to)
}

// periodWindows возвращает текущее окно периода, заканчивающееся в now,
// и предыдущее окно того же типа, заканчивающееся перед его началом.
//
//	daily   - с начала сегодняшнего дня; предыдущее - вчера
//	weekly  - скользящие 7x24 часа; предыдущее - 7 суток до них
//	monthly - с 1-го числа месяца; предыдущее - прошлый месяц целиком
//	yearly  - с 1 января; предыдущее - прошлый год целиком
func periodWindows(period string, now time.Time) (current, previous window, err error) {
	var from, prevFrom time.Time
	switch period {
	case constants.PERIOD_DAILY:
		from = startOfDay(now)
		prevFrom = from.AddDate(0, 0, -1)
	case constants.PERIOD_WEEKLY:
		from = now.Add(-7 * 24 * time.Hour)
		prevFrom = from.Add(-7 * 24 * time.Hour)
	case constants.PERIOD_MONTHLY:
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		prevFrom = from.AddDate(0, -1, 0)
	case constants.PERIOD_YEARLY:
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		prevFrom = from.AddDate(-1, 0, 0)
	default:
		return window{}, window{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	current = window{from: from, to: now}
	previous = window{from: prevFrom, to: from.Add(-time.Nanosecond)}
	return current, previous, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
