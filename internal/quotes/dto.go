package quotes

import (
	"time"

	"github.com/google/uuid"

	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
)

// ItemView exposes one quote line entry. Pricing fields stay null until the
// admin prices the quote.
type ItemView struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	BrandName     string    `json:"brand_name"`
	WidthValue    int       `json:"width_value"`
	ProfileValue  int       `json:"profile_value"`
	DiameterValue int       `json:"diameter_value"`
	Quantity      int       `json:"quantity"`
	UnitPrice     *int64    `json:"unit_price,omitempty"`
	LineTotal     *int64    `json:"line_total,omitempty"`
}

// QuoteView is the client-facing projection of a quote request. Internal
// admin notes are never included here.
type QuoteView struct {
	ID                    uuid.UUID         `json:"id"`
	RequestNumber         string            `json:"request_number"`
	QuoteNumber           *string           `json:"quote_number,omitempty"`
	Status                enums.QuoteStatus `json:"status"`
	Version               int64             `json:"version"`
	SubtotalRequested     int64             `json:"subtotal_requested"`
	DiscountTotal         int64             `json:"discount_total"`
	TotalQuoted           *int64            `json:"total_quoted,omitempty"`
	PromotionCode         *string           `json:"promotion_code,omitempty"`
	ValidUntil            *time.Time        `json:"valid_until,omitempty"`
	Expired               bool              `json:"expired"`
	ValidatedAt           *time.Time        `json:"validated_at,omitempty"`
	RequestedDeliveryDate *time.Time        `json:"requested_delivery_date,omitempty"`
	DeliveryDetails       *string           `json:"delivery_details,omitempty"`
	DeliveredAt           *time.Time        `json:"delivered_at,omitempty"`
	ClientMessage         *string           `json:"client_message,omitempty"`
	Items                 []ItemView        `json:"items"`
	CreatedAt             time.Time         `json:"created_at"`
}

// AdminQuoteView extends the client projection with operational fields.
type AdminQuoteView struct {
	QuoteView
	UserID                     uuid.UUID  `json:"user_id"`
	AdminNotes                 *string    `json:"admin_notes,omitempty"`
	AssignedLivreurID          *uuid.UUID `json:"assigned_livreur_id,omitempty"`
	LivreurAssignmentEmailSent bool       `json:"livreur_assignment_email_sent"`
	ClientAbsentCount          int        `json:"client_absent_count"`
	ValidatedIP                *string    `json:"validated_ip,omitempty"`
	ValidatedDeviceInfo        *string    `json:"validated_device_info,omitempty"`
	ValidatedPdfURL            *string    `json:"validated_pdf_url,omitempty"`
	CanceledAt                 *time.Time `json:"canceled_at,omitempty"`
}

// QuoteListView is one page of client quote projections.
type QuoteListView struct {
	Quotes     []QuoteView `json:"quotes"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// AdminQuoteListView is one page of admin quote projections.
type AdminQuoteListView struct {
	Quotes     []AdminQuoteView `json:"quotes"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// SubmitItemInput is one requested line in a new quote request.
type SubmitItemInput struct {
	ProductID     uuid.UUID
	ProductName   string
	BrandName     string
	WidthValue    int
	ProfileValue  int
	DiameterValue int
	Quantity      int
}

// SubmitInput captures a new quote request from a client.
type SubmitInput struct {
	UserID                uuid.UUID
	Items                 []SubmitItemInput
	ClientMessage         *string
	RequestedDeliveryDate *time.Time
	DeliveryDetails       *string
}

// ItemPriceInput is the admin-entered unit price for one line.
type ItemPriceInput struct {
	ItemID    uuid.UUID
	UnitPrice int64
}

// IssueQuoteInput carries the admin pricing decision for a quote.
type IssueQuoteInput struct {
	QuoteID       uuid.UUID
	Version       int64
	ItemPrices    []ItemPriceInput
	PromotionCode *string
	AdminNotes    *string
	ActorUserID   uuid.UUID
}

// ValidateInput carries the client acceptance evidence.
type ValidateInput struct {
	QuoteID     uuid.UUID
	Version     int64
	ActorUserID uuid.UUID
	IP          string
	DeviceInfo  string
	PdfURL      *string
}

// CancelInput carries a cancellation request from an admin or the owning client.
type CancelInput struct {
	QuoteID     uuid.UUID
	Version     int64
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

func toItemView(item models.QuoteRequestItem) ItemView {
	return ItemView{
		ID:            item.ID,
		ProductID:     item.ProductID,
		ProductName:   item.ProductName,
		BrandName:     item.BrandName,
		WidthValue:    item.WidthValue,
		ProfileValue:  item.ProfileValue,
		DiameterValue: item.DiameterValue,
		Quantity:      item.Quantity,
		UnitPrice:     item.UnitPrice,
		LineTotal:     item.LineTotal,
	}
}

// ToQuoteView builds the client projection of a quote request.
func ToQuoteView(quote *models.QuoteRequest) QuoteView {
	items := make([]ItemView, 0, len(quote.Items))
	for _, item := range quote.Items {
		items = append(items, toItemView(item))
	}
	return QuoteView{
		ID:                    quote.ID,
		RequestNumber:         quote.RequestNumber,
		QuoteNumber:           quote.QuoteNumber,
		Status:                quote.Status,
		Version:               quote.Version,
		SubtotalRequested:     quote.SubtotalRequested,
		DiscountTotal:         quote.DiscountTotal,
		TotalQuoted:           quote.TotalQuoted,
		PromotionCode:         quote.PromotionCode,
		ValidUntil:            quote.ValidUntil,
		Expired:               quote.IsExpired(time.Now()),
		ValidatedAt:           quote.ValidatedAt,
		RequestedDeliveryDate: quote.RequestedDeliveryDate,
		DeliveryDetails:       quote.DeliveryDetails,
		DeliveredAt:           quote.DeliveredAt,
		ClientMessage:         quote.ClientMessage,
		Items:                 items,
		CreatedAt:             quote.CreatedAt,
	}
}

// ToAdminQuoteView builds the admin projection of a quote request.
func ToAdminQuoteView(quote *models.QuoteRequest) AdminQuoteView {
	return AdminQuoteView{
		QuoteView:                  ToQuoteView(quote),
		UserID:                     quote.UserID,
		AdminNotes:                 quote.AdminNotes,
		AssignedLivreurID:          quote.AssignedLivreurID,
		LivreurAssignmentEmailSent: quote.LivreurAssignmentEmailSent,
		ClientAbsentCount:          quote.ClientAbsentCount,
		ValidatedIP:                quote.ValidatedIP,
		ValidatedDeviceInfo:        quote.ValidatedDeviceInfo,
		ValidatedPdfURL:            quote.ValidatedPdfURL,
		CanceledAt:                 quote.CanceledAt,
	}
}
