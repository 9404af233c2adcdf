package models

import "time"

// RevenueSummary - выручка за период.
type RevenueSummary struct {
	Orders     float64 `json:"orders"`
	Commission float64 `json:"commission"`
	Total      float64 `json:"total"`
	OrderCount int     `json:"orderCount"`
}

// ExpenseSummary - расходы за период с группировкой по категориям.
type ExpenseSummary struct {
	Total      float64            `json:"total"`
	ByCategory map[string]float64 `json:"byCategory"`
	Count      int                `json:"count"`
}

// Growth - изменение показателей в процентах относительно прошлого периода.
type Growth struct {
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

// FinanceDashboard - сводка по выручке, расходам и прибыли.
type FinanceDashboard struct {
	Period   string         `json:"period"`
	From     time.Time      `json:"from"`
	To       time.Time      `json:"to"`
	Revenue  RevenueSummary `json:"revenue"`
	Expenses ExpenseSummary `json:"expenses"`
	Profit   float64        `json:"profit"`
	Growth   Growth         `json:"growth"`
}

// DailyReport - отчёт за календарный день.
type DailyReport struct {
	Date     string         `json:"date"`
	Revenue  RevenueSummary `json:"revenue"`
	Expenses ExpenseSummary `json:"expenses"`
	Profit   float64        `json:"profit"`
}

// MonthlyReport - отчёт за календарный месяц с разбивкой по дням.
type MonthlyReport struct {
	Year     int            `json:"year"`
	Month    int            `json:"month"`
	Revenue  RevenueSummary `json:"revenue"`
	Expenses ExpenseSummary `json:"expenses"`
	Profit   float64        `json:"profit"`
	Days     []DailyReport  `json:"days"`
}

// TrendPoint - точка помесячного ряда выручки.
type TrendPoint struct {
	Month    string  `json:"month"` // YYYY-MM
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}
