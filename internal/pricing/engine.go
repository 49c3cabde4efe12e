package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
)

// Line is one priced quote line used as pricing input.
type Line struct {
	Quantity  int
	UnitPrice int64
}

// Result carries the three derived totals. TotalQuoted is always
// Subtotal - DiscountTotal and DiscountTotal never exceeds Subtotal.
type Result struct {
	Subtotal      int64
	DiscountTotal int64
	TotalQuoted   int64
}

// Promotion sub-reasons surfaced to clients.
const (
	ReasonUnknownCode  = "unknown-code"
	ReasonNotYetActive = "not-yet-active"
	ReasonExpired      = "expired"
)

// Engine derives quote totals from admin-entered line prices and an optional
// promotion code. Pricing is a pure function of its inputs: running it twice
// on the same lines yields the same totals.
type Engine struct {
	promotions PromotionRepository
}

// NewEngine builds a pricing engine with the required dependencies.
func NewEngine(promotions PromotionRepository) (*Engine, error) {
	if promotions == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	return &Engine{promotions: promotions}, nil
}

// Price computes the subtotal, discount, and quoted total. The tx, when
// present, scopes the promotion lookup to the caller's transaction.
func (e *Engine) Price(ctx context.Context, tx *gorm.DB, lines []Line, promoCode *string, now time.Time) (Result, error) {
	if len(lines) == 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}

	var subtotal int64
	for _, line := range lines {
		if line.Quantity <= 0 {
			return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if line.UnitPrice < 0 {
			return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "line unit price must not be negative")
		}
		subtotal += int64(line.Quantity) * line.UnitPrice
	}

	result := Result{Subtotal: subtotal, TotalQuoted: subtotal}
	if promoCode == nil || strings.TrimSpace(*promoCode) == "" {
		return result, nil
	}

	// Codes are stored uppercased, so the lookup normalizes the same way.
	promo, err := e.lookupPromotion(ctx, tx, strings.ToUpper(strings.TrimSpace(*promoCode)), now)
	if err != nil {
		return Result{}, err
	}

	discount := computeDiscount(promo, subtotal)
	result.DiscountTotal = discount
	result.TotalQuoted = subtotal - discount
	return result, nil
}

func (e *Engine) lookupPromotion(ctx context.Context, tx *gorm.DB, code string, now time.Time) (*models.Promotion, error) {
	promo, err := e.promotions.WithTx(tx).FindByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, promotionInvalid(code, ReasonUnknownCode)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	if !promo.Active {
		return nil, promotionInvalid(code, ReasonUnknownCode)
	}
	if promo.ActiveFrom != nil && now.Before(*promo.ActiveFrom) {
		return nil, promotionInvalid(code, ReasonNotYetActive)
	}
	if promo.ActiveUntil != nil && now.After(*promo.ActiveUntil) {
		return nil, promotionInvalid(code, ReasonExpired)
	}
	return promo, nil
}

// computeDiscount floors percentage discounts to the smallest currency unit.
// The result is always within [0, subtotal] regardless of the stored value.
func computeDiscount(promo *models.Promotion, subtotal int64) int64 {
	var discount int64
	switch promo.Kind {
	case enums.PromotionKindPercentage:
		discount = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(promo.Value)).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
	case enums.PromotionKindFixedAmount:
		discount = promo.Value
	default:
		return 0
	}
	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

func promotionInvalid(code, reason string) error {
	return pkgerrors.New(pkgerrors.CodePromotionInvalid, "promotion code cannot be applied").WithDetails(map[string]any{
		"code":   code,
		"reason": reason,
	})
}
