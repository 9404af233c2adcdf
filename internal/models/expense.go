package models

import "time"

// Expense - запись о расходе компании.
type Expense struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"createdAt"`
}

// ExpenseInput - тело запроса на добавление расхода.
type ExpenseInput struct {
	Amount      float64 `json:"amount" validate:"gt=0"`
	Category    string  `json:"category" validate:"required,max=50"`
	Description string  `json:"description" validate:"max=500"`
	Date        string  `json:"date,omitempty"`
}
