package models

import "time"

// RuleType определяет формулу расчёта комиссии по правилу.
type RuleType string

const (
	RuleTypePercentage RuleType = "percentage"
	RuleTypeFixed      RuleType = "fixed"
	RuleTypeDaily      RuleType = "daily"
	RuleTypeWeekly     RuleType = "weekly"
	RuleTypeMonthly    RuleType = "monthly"
)

// Valid сообщает, известен ли тип правила.
func (t RuleType) Valid() bool {
	switch t {
	case RuleTypePercentage, RuleTypeFixed, RuleTypeDaily, RuleTypeWeekly, RuleTypeMonthly:
		return true
	}
	return false
}

// DriverCategory - категория водителя, по которой фильтруются правила.
type DriverCategory string

const (
	CategoryStandard DriverCategory = "standard"
	CategoryPremium  DriverCategory = "premium"
	CategoryVIP      DriverCategory = "vip"
)

// Valid сообщает, известна ли категория.
func (c DriverCategory) Valid() bool {
	switch c {
	case CategoryStandard, CategoryPremium, CategoryVIP:
		return true
	}
	return false
}

// TimeRange - окно по часам суток в формате "HH:MM".
type TimeRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// RuleConditions - необязательные условия правила. Пустое поле означает
// отсутствие ограничения по этой оси; все заданные условия объединяются по И.
type RuleConditions struct {
	MinAmount      *float64       `json:"minAmount,omitempty" yaml:"minAmount,omitempty"`
	MaxAmount      *float64       `json:"maxAmount,omitempty" yaml:"maxAmount,omitempty"`
	DriverCategory DriverCategory `json:"driverCategory,omitempty" yaml:"driverCategory,omitempty"`
	OrderType      []string       `json:"orderType,omitempty" yaml:"orderType,omitempty"`
	Regions        []string       `json:"regions,omitempty" yaml:"regions,omitempty"`
	TimeRange      *TimeRange     `json:"timeRange,omitempty" yaml:"timeRange,omitempty"`
}

// CommissionRule - именованное условное правило расчёта комиссии.
type CommissionRule struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Type        RuleType       `json:"type" yaml:"type"`
	Value       float64        `json:"value" yaml:"value"`
	IsActive    bool           `json:"isActive" yaml:"isActive"`
	Conditions  RuleConditions `json:"conditions" yaml:"conditions"`
	CreatedAt   time.Time      `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time      `json:"updatedAt" yaml:"-"`
}

// CommissionRates - единственная запись конфигурации комиссий на всю систему.
type CommissionRates struct {
	Standard    float64          `json:"standard" yaml:"standard"`
	Premium     float64          `json:"premium" yaml:"premium"`
	Rules       []CommissionRule `json:"rules" yaml:"rules"`
	DefaultRule string           `json:"defaultRule" yaml:"defaultRule"`
	LastUpdated time.Time        `json:"lastUpdated" yaml:"-"`
}

// FindRule возвращает индекс правила с данным id или -1.
func (r *CommissionRates) FindRule(id string) int {
	for i := range r.Rules {
		if r.Rules[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone возвращает глубокую копию записи, чтобы вызывающий код
// не мог изменить закешированные данные.
func (r *CommissionRates) Clone() *CommissionRates {
	if r == nil {
		return nil
	}
	out := *r
	out.Rules = make([]CommissionRule, len(r.Rules))
	for i, rule := range r.Rules {
		out.Rules[i] = rule.Clone()
	}
	return &out
}

// Clone копирует правило вместе с указателями и слайсами условий.
func (r CommissionRule) Clone() CommissionRule {
	c := r.Conditions
	if c.MinAmount != nil {
		v := *c.MinAmount
		c.MinAmount = &v
	}
	if c.MaxAmount != nil {
		v := *c.MaxAmount
		c.MaxAmount = &v
	}
	if c.TimeRange != nil {
		tr := *c.TimeRange
		c.TimeRange = &tr
	}
	c.OrderType = append([]string(nil), c.OrderType...)
	c.Regions = append([]string(nil), c.Regions...)
	r.Conditions = c
	return r
}

// RuleInput - данные для создания или изменения правила.
type RuleInput struct {
	Name        string         `json:"name" validate:"required,max=100"`
	Description string         `json:"description" validate:"max=500"`
	Type        RuleType       `json:"type" validate:"required,oneof=percentage fixed daily weekly monthly"`
	Value       float64        `json:"value" validate:"gte=0"`
	IsActive    *bool          `json:"isActive,omitempty"`
	Conditions  RuleConditions `json:"conditions"`
}

// EvaluationContext - атрибуты заказа и водителя, проверяемые условиями правил.
type EvaluationContext struct {
	Amount         float64
	DriverCategory DriverCategory
	OrderType      string
	Region         string
	OrderTime      *time.Time
}

// OrderData - необязательный контекст заказа для гибкого расчёта.
type OrderData struct {
	OrderID   string     `json:"orderId,omitempty"`
	OrderType string     `json:"orderType,omitempty"`
	Region    string     `json:"region,omitempty"`
	OrderTime *time.Time `json:"orderTime,omitempty"`
}

// DriverPeriodStats - признаки первого заказа водителя в текущем периоде.
type DriverPeriodStats struct {
	FirstOrderThisWeek  bool
	FirstOrderThisMonth bool
}

// RuleApplication - вклад одного сработавшего правила.
type RuleApplication struct {
	RuleID      string   `json:"ruleId"`
	RuleName    string   `json:"ruleName"`
	Type        RuleType `json:"type"`
	Value       float64  `json:"value"`
	Commission  float64  `json:"commission"`
	Description string   `json:"description"`
}

// CommissionCalculation - полная разбивка гибкого расчёта.
type CommissionCalculation struct {
	OrderID         string            `json:"orderId,omitempty"`
	DriverID        string            `json:"driverId"`
	OriginalAmount  float64           `json:"originalAmount"`
	AppliedRules    []RuleApplication `json:"appliedRules"`
	TotalCommission float64           `json:"totalCommission"`
	NetAmount       float64           `json:"netAmount"`
	CalculatedAt    time.Time         `json:"calculatedAt"`
}

// FlatCommission - результат расчёта по плоской ставке (старый путь).
type FlatCommission struct {
	CommissionRate   float64 `json:"commissionRate"`
	CommissionAmount float64 `json:"commissionAmount"`
	NetAmount        float64 `json:"netAmount"`
	IsPremium        bool    `json:"isPremium"`
}

// CommissionHistoryEntry - неизменяемая запись журнала применённых комиссий.
type CommissionHistoryEntry struct {
	DriverID         string    `json:"driverId"`
	OrderID          string    `json:"orderId"`
	OriginalAmount   float64   `json:"originalAmount"`
	Rate             float64   `json:"rate"`
	CommissionAmount float64   `json:"commissionAmount"`
	NetAmount        float64   `json:"netAmount"`
	Timestamp        time.Time `json:"timestamp"`
}

// DriverCommission - производный снимок комиссий водителя, не хранится.
type DriverCommission struct {
	DriverID           string     `json:"driverId"`
	DriverName         string     `json:"driverName,omitempty"`
	TotalEarnings      float64    `json:"totalEarnings"`
	CommissionDeducted float64    `json:"commissionDeducted"`
	NetAmount          float64    `json:"netAmount"`
	CommissionRate     float64    `json:"commissionRate"`
	OrderCount         int        `json:"orderCount"`
	LastPayment        *time.Time `json:"lastPayment,omitempty"`
}
