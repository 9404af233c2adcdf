// Package cache кэширует запись ставок комиссий в Redis.
package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"drivercommission/internal/logging"
	"drivercommission/internal/models"
	"drivercommission/internal/repository"
)

const ratesKey = "commission:rates"

// RatesCache - read-through кэш поверх RatesRepository. Хранилище остаётся
// источником истины: ошибки Redis только логируются. Сохранение пишет
// запись и в хранилище, и в Redis.
type RatesCache struct {
	next   repository.RatesRepository
	client *Client
	ttl    time.Duration
}

var _ repository.RatesRepository = (*RatesCache)(nil)

// NewRatesCache оборачивает next. При client == nil кэш прозрачен.
func NewRatesCache(next repository.RatesRepository, client *Client, ttl time.Duration) *RatesCache {
	return &RatesCache{next: next, client: client, ttl: ttl}
}

func (c *RatesCache) LoadRates(ctx context.Context) (*models.CommissionRates, error) {
	if c.client == nil {
		return c.next.LoadRates(ctx)
	}

	var cached models.CommissionRates
	err := c.client.Get(ctx, ratesKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrMiss) {
		logging.Logger.Warn("Ошибка чтения ставок из Redis", zap.Error(err))
	}

	rates, err := c.next.LoadRates(ctx)
	if err != nil {
		return nil, err
	}
	if errSet := c.client.Set(ctx, ratesKey, rates, c.ttl); errSet != nil {
		logging.Logger.Warn("Не удалось записать ставки в Redis", zap.Error(errSet))
	}
	return rates, nil
}

func (c *RatesCache) SaveRates(ctx context.Context, rates *models.CommissionRates) error {
	if err := c.next.SaveRates(ctx, rates); err != nil {
		return err
	}
	if c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, ratesKey, rates, c.ttl); err != nil {
		logging.Logger.Warn("Не удалось записать ставки в Redis, ключ сбрасывается", zap.Error(err))
		if errDel := c.client.Delete(ctx, ratesKey); errDel != nil {
			logging.Logger.Warn("Не удалось сбросить ставки в Redis", zap.Error(errDel))
		}
	}
	return nil
}
