package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"drivercommission/internal/models"
)

func TestFormatCommissionMessage(t *testing.T) {
	text := FormatCommissionMessage(models.CommissionHistoryEntry{
		DriverID: "d1", OrderID: "o7", OriginalAmount: 20000, Rate: 15, CommissionAmount: 3000, NetAmount: 17000,
		Timestamp: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, text, "d1")
	assert.Contains(t, text, "o7")
	assert.Contains(t, text, "15%")
	assert.Contains(t, text, "17 000 ₽")
	assert.Contains(t, text, "14 октября 2026")
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.CommissionApplied(context.Background(), models.CommissionHistoryEntry{}))
}

func TestNewTelegramRequiresConfig(t *testing.T) {
	_, err := NewTelegram("", 1, false)
	assert.Error(t, err)

	_, err = NewTelegram("token", 0, false)
	assert.Error(t, err)
}
