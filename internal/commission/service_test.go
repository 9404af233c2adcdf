package commission

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivercommission/internal/constants"
	"drivercommission/internal/models"
	"drivercommission/internal/storage"
)

// 14 октября 2026 - среда.
var fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	dir   string
	store *storage.FileStore
	svc   *Service
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir(), now: fixedNow}
	f.store = storage.NewFileStore(f.dir, 1000, 1000)
	f.svc = NewService(Dependencies{
		Rates:   f.store.Rates,
		History: f.store.History,
		Drivers: f.store.Drivers,
		Orders:  f.store.Orders,
		Now:     func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) putDriver(t *testing.T, d models.Driver) {
	t.Helper()
	require.NoError(t, f.store.Drivers.PutDriver(d))
}

func (f *fixture) useRules(t *testing.T, list ...models.CommissionRule) {
	t.Helper()
	_, err := f.svc.SaveRates(context.Background(), &models.CommissionRates{
		Standard:    15,
		Premium:     12,
		Rules:       list,
		DefaultRule: list[0].ID,
	})
	require.NoError(t, err)
}

func stripTimestamps(r *models.CommissionRates) *models.CommissionRates {
	out := r.Clone()
	out.LastUpdated = time.Time{}
	for i := range out.Rules {
		out.Rules[i].CreatedAt = time.Time{}
		out.Rules[i].UpdatedAt = time.Time{}
	}
	return out
}

func TestGetRatesCreatesDefaultsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.svc.GetRates(ctx)
	_, err := os.Stat(filepath.Join(f.dir, constants.FILE_RATES))
	require.NoError(t, err, "запись по умолчанию должна быть сохранена")

	f.now = f.now.Add(time.Hour)
	second := f.svc.GetRates(ctx)

	assert.Equal(t, stripTimestamps(first), stripTimestamps(second))
	assert.Equal(t, constants.RULE_ID_STANDARD, first.DefaultRule)
	require.Len(t, first.Rules, 3)
	for _, rule := range first.Rules {
		assert.Equal(t, models.RuleTypePercentage, rule.Type)
		assert.NotEmpty(t, rule.Conditions.DriverCategory)
	}
}

func TestGetRatesCorruptFileDegrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path := filepath.Join(f.dir, constants.FILE_RATES)
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	rates := f.svc.GetRates(ctx)
	assert.Equal(t, constants.RULE_ID_STANDARD, rates.DefaultRule)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data), "при ошибке чтения значения по умолчанию не сохраняются")

	_, err = f.svc.UpdateFlatRates(ctx, 10, 9)
	assert.Error(t, err)
}

func TestUpdateFlatRates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.svc.GetRates(ctx)

	f.now = f.now.Add(time.Minute)
	updated, err := f.svc.UpdateFlatRates(ctx, 20, 10)
	require.NoError(t, err)
	assert.Equal(t, 20.0, updated.Standard)
	assert.Equal(t, 10.0, updated.Premium)
	assert.True(t, updated.LastUpdated.After(before.LastUpdated))
	assert.Equal(t, len(before.Rules), len(updated.Rules))

	_, err = f.svc.UpdateFlatRates(ctx, 120, 10)
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestDeleteDefaultRuleRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.svc.GetRules(ctx)

	err := f.svc.DeleteRule(ctx, constants.RULE_ID_STANDARD)
	require.ErrorIs(t, err, ErrDefaultRuleDelete)

	assert.Equal(t, before, f.svc.GetRules(ctx))
}

func TestRuleCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	min := 1000.0
	created, err := f.svc.AddRule(ctx, models.RuleInput{
		Name:       "Ночной сбор",
		Type:       models.RuleTypeFixed,
		Value:      200,
		Conditions: models.RuleConditions{MinAmount: &min, TimeRange: &models.TimeRange{Start: "00:00", End: "05:59"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Len(t, f.svc.GetRules(ctx), 4)

	f.now = f.now.Add(time.Minute)
	inactive := false
	updated, err := f.svc.UpdateRule(ctx, created.ID, models.RuleInput{Name: "Ночь", Type: models.RuleTypeFixed, Value: 300, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 300.0, updated.Value)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	toggled, err := f.svc.ToggleRule(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	rates, err := f.svc.SetDefaultRule(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, rates.DefaultRule)

	require.NoError(t, f.svc.DeleteRule(ctx, constants.RULE_ID_STANDARD))
	assert.ErrorIs(t, f.svc.DeleteRule(ctx, created.ID), ErrDefaultRuleDelete)

	got, err := f.svc.GetRule(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ночь", got.Name)
}

func TestRuleNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GetRule(ctx, "missing")
	assert.ErrorIs(t, err, ErrRuleNotFound)
	assert.ErrorIs(t, f.svc.DeleteRule(ctx, "missing"), ErrRuleNotFound)
	_, err = f.svc.ToggleRule(ctx, "missing")
	assert.ErrorIs(t, err, ErrRuleNotFound)
	_, err = f.svc.SetDefaultRule(ctx, "missing")
	assert.ErrorIs(t, err, ErrRuleNotFound)
	_, err = f.svc.UpdateRule(ctx, "missing", models.RuleInput{Name: "x", Type: models.RuleTypeFixed})
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestAddRuleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	min, max, negative := 500.0, 100.0, -1.0

	cases := []models.RuleInput{
		{Name: "bad type", Type: "bonus", Value: 1},
		{Name: "negative", Type: models.RuleTypeFixed, Value: -1},
		{Name: "over 100", Type: models.RuleTypePercentage, Value: 101},
		{Name: "bounds", Type: models.RuleTypeFixed, Value: 1, Conditions: models.RuleConditions{MinAmount: &min, MaxAmount: &max}},
		{Name: "negative max", Type: models.RuleTypeFixed, Value: 1, Conditions: models.RuleConditions{MaxAmount: &negative}},
		{Name: "category", Type: models.RuleTypeFixed, Value: 1, Conditions: models.RuleConditions{DriverCategory: "gold"}},
		{Name: "range", Type: models.RuleTypeFixed, Value: 1, Conditions: models.RuleConditions{TimeRange: &models.TimeRange{Start: "9", End: "18:00"}}},
	}
	for _, input := range cases {
		_, err := f.svc.AddRule(ctx, input)
		assert.ErrorIs(t, err, ErrInvalidRule, input.Name)
	}
	assert.Len(t, f.svc.GetRules(ctx), 3)
}

func TestConcurrentAddRuleKeepsAllUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.GetRates(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddRule(ctx, models.RuleInput{Name: "r", Type: models.RuleTypeFixed, Value: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, f.svc.GetRules(ctx), 23)
}

func TestSaveRatesRequiresExistingDefault(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SaveRates(context.Background(), &models.CommissionRates{
		Standard: 15, Premium: 12, DefaultRule: "ghost",
		Rules: []models.CommissionRule{{ID: "r1", Type: models.RuleTypeFixed, Value: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
standard: 18
premium: 14
defaultRule: base
rules:
  - id: base
    name: Базовая
    type: percentage
    value: 18
    isActive: true
  - id: night
    name: Ночная
    type: fixed
    value: 100
    isActive: true
    conditions:
      timeRange:
        start: "22:00"
        end: "23:59"
`), 0o644))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, 18.0, seed.Standard)
	require.Len(t, seed.Rules, 2)
	assert.Equal(t, "22:00", seed.Rules[1].Conditions.TimeRange.Start)

	dir := t.TempDir()
	store := storage.NewFileStore(dir, 10, 10)
	svc := NewService(Dependencies{Rates: store.Rates, History: store.History, Drivers: store.Drivers, Seed: seed,
		Now: func() time.Time { return fixedNow }})
	rates := svc.GetRates(context.Background())
	assert.Equal(t, "base", rates.DefaultRule)
	assert.True(t, rates.Rules[0].CreatedAt.Equal(fixedNow))
}

func TestLoadSeedInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("standard: 10\npremium: 10\ndefaultRule: none\nrules: []\n"), 0o644))

	_, err := LoadSeed(path)
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
