package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
)

// Repository defines persistence operations for payment invoices.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.PaymentInvoice) (*models.PaymentInvoice, error)
	FindByToken(ctx context.Context, token string) (*models.PaymentInvoice, error)
	FindSettledByQuote(ctx context.Context, quoteID uuid.UUID) (*models.PaymentInvoice, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}
