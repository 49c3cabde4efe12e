package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
)

// QuoteRequest is the aggregate root for a customer cart moving through the
// quote lifecycle. Version backs the optimistic concurrency control on every
// write: a stale version fails the compare-and-swap update.
type QuoteRequest struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestNumber string            `gorm:"column:request_number;not null;uniqueIndex"`
	QuoteNumber   *string           `gorm:"column:quote_number;uniqueIndex"`
	UserID        uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	Status        enums.QuoteStatus `gorm:"column:status;type:text;not null;default:'EN_ATTENTE'"`
	Version       int64             `gorm:"column:version;not null;default:1"`

	SubtotalRequested int64  `gorm:"column:subtotal_requested;not null;default:0"`
	DiscountTotal     int64  `gorm:"column:discount_total;not null;default:0"`
	TotalQuoted       *int64 `gorm:"column:total_quoted"`
	PromotionCode     *string `gorm:"column:promotion_code"`

	ValidUntil *time.Time `gorm:"column:valid_until"`

	ValidatedAt         *time.Time `gorm:"column:validated_at"`
	ValidatedIP         *string    `gorm:"column:validated_ip"`
	ValidatedDeviceInfo *string    `gorm:"column:validated_device_info"`
	ValidatedPdfURL     *string    `gorm:"column:validated_pdf_url"`

	RequestedDeliveryDate      *time.Time `gorm:"column:requested_delivery_date"`
	ClientAbsentCount          int        `gorm:"column:client_absent_count;not null;default:0"`
	DeliveryDetails            *string    `gorm:"column:delivery_details"`
	AssignedLivreurID          *uuid.UUID `gorm:"column:assigned_livreur_id;type:uuid"`
	LivreurAssignmentEmailSent bool       `gorm:"column:livreur_assignment_email_sent;not null;default:false"`
	DeliveredAt                *time.Time `gorm:"column:delivered_at"`
	DeliveryGeoPosition        *string    `gorm:"column:delivery_geo_position"`
	DeliveryProofPhotoURL      *string    `gorm:"column:delivery_proof_photo_url"`
	DeliverySignatureURL       *string    `gorm:"column:delivery_signature_url"`
	DeliveryNotes              *string    `gorm:"column:delivery_notes"`

	ClientMessage *string `gorm:"column:client_message"`
	AdminNotes    *string `gorm:"column:admin_notes"`

	CanceledAt *time.Time `gorm:"column:canceled_at"`

	Items []QuoteRequestItem `gorm:"foreignKey:QuoteRequestID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsExpired reports whether the validity window has passed at the given instant.
func (q *QuoteRequest) IsExpired(now time.Time) bool {
	return q.ValidUntil != nil && now.After(*q.ValidUntil)
}
