package pricing

import (
	"context"

	"gorm.io/gorm"

	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
)

// PromotionRepository defines persistence operations for promotion codes.
type PromotionRepository interface {
	WithTx(tx *gorm.DB) PromotionRepository
	FindByCode(ctx context.Context, code string) (*models.Promotion, error)
	Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	List(ctx context.Context) ([]models.Promotion, error)
}

type promotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository builds a promotion repository bound to the provided DB.
func NewPromotionRepository(db *gorm.DB) PromotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) WithTx(tx *gorm.DB) PromotionRepository {
	if tx == nil {
		return r
	}
	return &promotionRepository{db: tx}
}

func (r *promotionRepository) FindByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var promo models.Promotion
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *promotionRepository) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

func (r *promotionRepository) List(ctx context.Context) ([]models.Promotion, error) {
	var promos []models.Promotion
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&promos).Error
	if err != nil {
		return nil, err
	}
	return promos, nil
}
