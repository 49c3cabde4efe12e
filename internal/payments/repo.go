package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payment invoice repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invoice *models.PaymentInvoice) (*models.PaymentInvoice, error) {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.PaymentInvoice, error) {
	var invoice models.PaymentInvoice
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) FindSettledByQuote(ctx context.Context, quoteID uuid.UUID) (*models.PaymentInvoice, error) {
	var invoice models.PaymentInvoice
	err := r.db.WithContext(ctx).
		Where("quote_request_id = ? AND status = ?", quoteID, enums.PaymentStatusPaid).
		Order("resolved_at DESC").
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentInvoice{}).
		Where("id = ?", id).
		Updates(updates).Error
}
