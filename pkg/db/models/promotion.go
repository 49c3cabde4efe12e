package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
)

// Promotion is an admin-managed discount code applied during pricing.
// Value is a whole percentage for percentage promotions and an amount in
// francs for fixed-amount ones.
type Promotion struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string              `gorm:"column:code;not null;uniqueIndex"`
	Kind        enums.PromotionKind `gorm:"column:kind;type:text;not null"`
	Value       int64               `gorm:"column:value;not null"`
	Active      bool                `gorm:"column:active;not null;default:true"`
	ActiveFrom  *time.Time          `gorm:"column:active_from"`
	ActiveUntil *time.Time          `gorm:"column:active_until"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
