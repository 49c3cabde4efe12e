package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
)

// User is the authenticated identity behind every quote actor.
type User struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string          `gorm:"column:email;not null;uniqueIndex"`
	FullName  string          `gorm:"column:full_name;not null"`
	Phone     *string         `gorm:"column:phone"`
	Address   *string         `gorm:"column:address"`
	Role      enums.ActorRole `gorm:"column:role;type:text;not null;default:'client'"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
