package quotes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	"github.com/AmadouLah/pneumback-sub001/pkg/pagination"
)

// QuoteFilters narrows admin quote listings.
type QuoteFilters struct {
	Status            *enums.QuoteStatus
	UserID            *uuid.UUID
	AssignedLivreurID *uuid.UUID
}

// QuoteList is one page of quote requests plus the cursor for the next page.
type QuoteList struct {
	Quotes     []models.QuoteRequest
	NextCursor string
}

// Repository defines persistence operations for quote requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quote *models.QuoteRequest) (*models.QuoteRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*QuoteList, error)
	List(ctx context.Context, params pagination.Params, filters QuoteFilters) (*QuoteList, error)
	UpdateWithVersion(ctx context.Context, id uuid.UUID, version int64, updates map[string]any) (int64, error)
	UpdateItemPricing(ctx context.Context, itemID uuid.UUID, unitPrice, lineTotal int64) error
	NextNumber(ctx context.Context, scope string, year int) (int64, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
