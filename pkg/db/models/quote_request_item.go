package models

import (
	"time"

	"github.com/google/uuid"
)

// QuoteRequestItem is a line entry inside a quote request. The product fields
// are a snapshot captured at request time; catalog edits never alter them.
// UnitPrice and LineTotal stay nil until the admin prices the quote and are
// immutable once the quote is issued.
type QuoteRequestItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteRequestID uuid.UUID `gorm:"column:quote_request_id;type:uuid;not null"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`

	ProductName   string `gorm:"column:product_name;not null"`
	BrandName     string `gorm:"column:brand_name;not null"`
	WidthValue    int    `gorm:"column:width_value;not null"`
	ProfileValue  int    `gorm:"column:profile_value;not null"`
	DiameterValue int    `gorm:"column:diameter_value;not null"`

	Quantity  int    `gorm:"column:quantity;not null"`
	UnitPrice *int64 `gorm:"column:unit_price"`
	LineTotal *int64 `gorm:"column:line_total"`

	Position int `gorm:"column:position;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
