package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	"github.com/AmadouLah/pneumback-sub001/pkg/types"
)

// Notification is a per-user notification row rendered from a template kind.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Kind      enums.NotificationKind `gorm:"column:kind;type:text;not null"`
	Payload   types.JSONMap          `gorm:"column:payload;type:jsonb;serializer:json"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
