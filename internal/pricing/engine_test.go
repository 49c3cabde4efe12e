package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
)

type stubPromotionRepo struct {
	promos map[string]*models.Promotion
}

func (s *stubPromotionRepo) WithTx(tx *gorm.DB) PromotionRepository {
	return s
}

func (s *stubPromotionRepo) FindByCode(ctx context.Context, code string) (*models.Promotion, error) {
	promo, ok := s.promos[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return promo, nil
}

func (s *stubPromotionRepo) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	panic("not implemented")
}

func (s *stubPromotionRepo) List(ctx context.Context) ([]models.Promotion, error) {
	panic("not implemented")
}

func newTestEngine(t *testing.T, promos map[string]*models.Promotion) *Engine {
	t.Helper()
	engine, err := NewEngine(&stubPromotionRepo{promos: promos})
	require.NoError(t, err)
	return engine
}

func strPtr(s string) *string { return &s }

func TestPriceTwoItemCartWithPercentagePromotion(t *testing.T) {
	engine := newTestEngine(t, map[string]*models.Promotion{
		"LAUNCH10": {Code: "LAUNCH10", Kind: enums.PromotionKindPercentage, Value: 10, Active: true},
	})

	lines := []Line{
		{Quantity: 4, UnitPrice: 25000},
		{Quantity: 1, UnitPrice: 60000},
	}

	result, err := engine.Price(context.Background(), nil, lines, strPtr("LAUNCH10"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(160000), result.Subtotal)
	assert.Equal(t, int64(16000), result.DiscountTotal)
	assert.Equal(t, int64(144000), result.TotalQuoted)
}

func TestPriceIsIdempotent(t *testing.T) {
	engine := newTestEngine(t, map[string]*models.Promotion{
		"LAUNCH10": {Code: "LAUNCH10", Kind: enums.PromotionKindPercentage, Value: 10, Active: true},
	})

	lines := []Line{{Quantity: 3, UnitPrice: 33333}}

	first, err := engine.Price(context.Background(), nil, lines, strPtr("LAUNCH10"), time.Now())
	require.NoError(t, err)
	second, err := engine.Price(context.Background(), nil, lines, strPtr("LAUNCH10"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPricePercentageFloorsToWholeFranc(t *testing.T) {
	engine := newTestEngine(t, map[string]*models.Promotion{
		"SEVEN": {Code: "SEVEN", Kind: enums.PromotionKindPercentage, Value: 7, Active: true},
	})

	// 7% of 10001 is 700.07, floored to 700.
	result, err := engine.Price(context.Background(), nil, []Line{{Quantity: 1, UnitPrice: 10001}}, strPtr("SEVEN"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(700), result.DiscountTotal)
	assert.Equal(t, int64(9301), result.TotalQuoted)
}

func TestPriceFixedAmountCappedAtSubtotal(t *testing.T) {
	engine := newTestEngine(t, map[string]*models.Promotion{
		"BIGFIX": {Code: "BIGFIX", Kind: enums.PromotionKindFixedAmount, Value: 500000, Active: true},
	})

	result, err := engine.Price(context.Background(), nil, []Line{{Quantity: 2, UnitPrice: 40000}}, strPtr("BIGFIX"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(80000), result.Subtotal)
	assert.Equal(t, int64(80000), result.DiscountTotal)
	assert.Equal(t, int64(0), result.TotalQuoted)
}

func TestPriceMatchesCodeRegardlessOfCasing(t *testing.T) {
	engine := newTestEngine(t, map[string]*models.Promotion{
		"SUMMER10": {Code: "SUMMER10", Kind: enums.PromotionKindPercentage, Value: 10, Active: true},
	})

	lines := []Line{{Quantity: 1, UnitPrice: 100000}}
	result, err := engine.Price(context.Background(), nil, lines, strPtr("Summer10"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.DiscountTotal)

	result, err = engine.Price(context.Background(), nil, lines, strPtr("  summer10  "), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.DiscountTotal)
}

func TestPricePercentageClampedAtSubtotal(t *testing.T) {
	engine := newTestEngine(t, map[string]*models.Promotion{
		"OVER": {Code: "OVER", Kind: enums.PromotionKindPercentage, Value: 150, Active: true},
	})

	result, err := engine.Price(context.Background(), nil, []Line{{Quantity: 1, UnitPrice: 100000}}, strPtr("OVER"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(100000), result.Subtotal)
	assert.Equal(t, int64(100000), result.DiscountTotal)
	assert.Equal(t, int64(0), result.TotalQuoted)
}

func TestPriceNegativePromotionValueIgnored(t *testing.T) {
	engine := newTestEngine(t, map[string]*models.Promotion{
		"NEG": {Code: "NEG", Kind: enums.PromotionKindFixedAmount, Value: -5000, Active: true},
	})

	result, err := engine.Price(context.Background(), nil, []Line{{Quantity: 1, UnitPrice: 100000}}, strPtr("NEG"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.DiscountTotal)
	assert.Equal(t, int64(100000), result.TotalQuoted)
}

func TestPriceWithoutPromotion(t *testing.T) {
	engine := newTestEngine(t, nil)

	result, err := engine.Price(context.Background(), nil, []Line{{Quantity: 2, UnitPrice: 50000}}, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(100000), result.Subtotal)
	assert.Equal(t, int64(0), result.DiscountTotal)
	assert.Equal(t, int64(100000), result.TotalQuoted)
}

func TestPricePromotionSubReasons(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	engine := newTestEngine(t, map[string]*models.Promotion{
		"INACTIVE": {Code: "INACTIVE", Kind: enums.PromotionKindPercentage, Value: 10, Active: false},
		"EARLY":    {Code: "EARLY", Kind: enums.PromotionKindPercentage, Value: 10, Active: true, ActiveFrom: &future},
		"LATE":     {Code: "LATE", Kind: enums.PromotionKindPercentage, Value: 10, Active: true, ActiveUntil: &past},
	})

	cases := []struct {
		code   string
		reason string
	}{
		{"MISSING", ReasonUnknownCode},
		{"INACTIVE", ReasonUnknownCode},
		{"EARLY", ReasonNotYetActive},
		{"LATE", ReasonExpired},
	}

	lines := []Line{{Quantity: 1, UnitPrice: 10000}}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			_, err := engine.Price(context.Background(), nil, lines, strPtr(tc.code), now)
			require.Error(t, err)

			appErr := pkgerrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.CodePromotionInvalid, appErr.Code())

			details, ok := appErr.Details().(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tc.reason, details["reason"])
		})
	}
}

func TestPriceRejectsInvalidLines(t *testing.T) {
	engine := newTestEngine(t, nil)

	_, err := engine.Price(context.Background(), nil, nil, nil, time.Now())
	require.Error(t, err)

	_, err = engine.Price(context.Background(), nil, []Line{{Quantity: 0, UnitPrice: 1000}}, nil, time.Now())
	require.Error(t, err)

	_, err = engine.Price(context.Background(), nil, []Line{{Quantity: 1, UnitPrice: -1}}, nil, time.Now())
	require.Error(t, err)
}
