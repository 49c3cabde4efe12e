package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
)

// PaymentInvoice records a gateway-issued payment intent for a quote. The
// token is the idempotency anchor for callback reconciliation: the first
// authentic callback resolves the invoice exactly once and later deliveries
// replay the recorded outcome.
type PaymentInvoice struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteRequestID uuid.UUID           `gorm:"column:quote_request_id;type:uuid;not null"`
	Token          string              `gorm:"column:token;not null;uniqueIndex"`
	TotalAmount    int64               `gorm:"column:total_amount;not null"`
	Description    string              `gorm:"column:description;not null"`
	CallbackURL    string              `gorm:"column:callback_url;not null"`
	Status         enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	FailureReason  *string             `gorm:"column:failure_reason"`
	ManualReview   bool                `gorm:"column:manual_review;not null;default:false"`
	ResolvedAt     *time.Time          `gorm:"column:resolved_at"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
