package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	"github.com/AmadouLah/pneumback-sub001/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a quote repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, quote *models.QuoteRequest) (*models.QuoteRequest, error) {
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	var quote models.QuoteRequest
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*QuoteList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.QuoteRequest{}).
		Where("user_id = ?", userID)
	return r.listPage(ctx, query, params)
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters QuoteFilters) (*QuoteList, error) {
	query := r.db.WithContext(ctx).Model(&models.QuoteRequest{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.AssignedLivreurID != nil {
		query = query.Where("assigned_livreur_id = ?", *filters.AssignedLivreurID)
	}
	return r.listPage(ctx, query, params)
}

// ExpireOverdue cancels quotes whose validation window lapsed. The bulk
// update bumps the version so concurrent validations lose the CAS race.
func (r *repository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.QuoteRequest{}).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", enums.QuoteStatusEnAttenteValidation, now).
		Updates(map[string]any{
			"status":      enums.QuoteStatusAnnule,
			"canceled_at": now,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) listPage(ctx context.Context, query *gorm.DB, params pagination.Params) (*QuoteList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var quotes []models.QuoteRequest
	err = query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}

	list := &QuoteList{Quotes: quotes}
	if len(quotes) > limit {
		list.Quotes = quotes[:limit]
		last := list.Quotes[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

// UpdateWithVersion applies the updates only when the stored version still
// matches. The version is bumped in the same statement; a zero row count
// means another writer won the race.
func (r *repository) UpdateWithVersion(ctx context.Context, id uuid.UUID, version int64, updates map[string]any) (int64, error) {
	updates["version"] = version + 1
	res := r.db.WithContext(ctx).
		Model(&models.QuoteRequest{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) UpdateItemPricing(ctx context.Context, itemID uuid.UUID, unitPrice, lineTotal int64) error {
	return r.db.WithContext(ctx).
		Model(&models.QuoteRequestItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"unit_price": unitPrice, "line_total": lineTotal}).Error
}

// NextNumber bumps the per-scope yearly counter and returns the new value.
// The upsert runs inside the caller's transaction so numbers are never reused.
func (r *repository) NextNumber(ctx context.Context, scope string, year int) (int64, error) {
	var counter int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO number_sequences (scope, year, counter)
		VALUES (?, ?, 1)
		ON CONFLICT (scope, year)
		DO UPDATE SET counter = number_sequences.counter + 1
		RETURNING counter
	`, scope, year).Scan(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("next %s number: %w", scope, err)
	}
	return counter, nil
}
