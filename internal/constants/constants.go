package constants

import "time"

// Идентификаторы правил по умолчанию.
const (
	RULE_ID_STANDARD = "rule_standard"
	RULE_ID_PREMIUM  = "rule_premium"
	RULE_ID_VIP      = "rule_vip"
)

// Плоские ставки по умолчанию, в процентах.
const (
	DEFAULT_STANDARD_RATE = 15.0
	DEFAULT_PREMIUM_RATE  = 12.0
	DEFAULT_VIP_RATE      = 8.0
)

// Лимиты журналов: храним только последние записи.
const (
	DEFAULT_HISTORY_LIMIT  = 1000
	DEFAULT_EXPENSES_LIMIT = 1000
)

// Оценка комиссионной выручки в финансовых отчётах, в процентах от суммы заказов.
const DEFAULT_COMMISSION_ESTIMATE = 15.0

// Периоды финансовых отчётов.
const (
	PERIOD_DAILY   = "daily"
	PERIOD_WEEKLY  = "weekly"
	PERIOD_MONTHLY = "monthly"
	PERIOD_YEARLY  = "yearly"
)

// Статусы заказов, которые учитывает модуль.
const (
	STATUS_COMPLETED = "completed"
	STATUS_CANCELED  = "cancelled"
)

// Имена файлов JSON-хранилища внутри DATA_DIR.
const (
	FILE_RATES    = "commission_rates.json"
	FILE_HISTORY  = "commission_history.json"
	FILE_EXPENSES = "expenses.json"
	FILE_DRIVERS  = "drivers.json"
	FILE_ORDERS   = "orders.json"
)

// Драйверы хранилища.
const (
	STORAGE_FILE     = "file"
	STORAGE_POSTGRES = "postgres"
)

// Форматы дат.
const (
	DATE_LAYOUT  = "2006-01-02"
	MONTH_LAYOUT = "2006-01"
)

// CategoryDisplayMap - названия категорий водителей.
var CategoryDisplayMap = map[string]string{
	"standard": "Стандарт",
	"premium":  "Премиум",
	"vip":      "VIP",
}

// MonthMap - названия месяцев в родительном падеже, для дат ("14 октября").
var MonthMap = map[time.Month]string{
	time.January:   "января",
	time.February:  "февраля",
	time.March:     "марта",
	time.April:     "апреля",
	time.May:       "мая",
	time.June:      "июня",
	time.July:      "июля",
	time.August:    "августа",
	time.September: "сентября",
	time.October:   "октября",
	time.November:  "ноября",
	time.December:  "декабря",
}

// MonthNominativeMap - названия месяцев для заголовков отчётов.
var MonthNominativeMap = map[time.Month]string{
	time.January:   "Январь",
	time.February:  "Февраль",
	time.March:     "Март",
	time.April:     "Апрель",
	time.May:       "Май",
	time.June:      "Июнь",
	time.July:      "Июль",
	time.August:    "Август",
	time.September: "Сентябрь",
	time.October:   "Октябрь",
	time.November:  "Ноябрь",
	time.December:  "Декабрь",
}
