package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmadouLah/pneumback-sub001/internal/pricing"
	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/outbox"
	"github.com/AmadouLah/pneumback-sub001/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type pricer interface {
	Price(ctx context.Context, tx *gorm.DB, lines []pricing.Line, promoCode *string, now time.Time) (pricing.Result, error)
}

// Notifier records a notification for a user inside the owning transaction.
type Notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind enums.NotificationKind, data map[string]any) error
}

// Service defines quote lifecycle operations.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*QuoteView, error)
	GetForClient(ctx context.Context, quoteID, userID uuid.UUID) (*QuoteView, error)
	ListForClient(ctx context.Context, userID uuid.UUID, params pagination.Params) (*QuoteListView, error)
	GetForAdmin(ctx context.Context, quoteID uuid.UUID) (*AdminQuoteView, error)
	ListForAdmin(ctx context.Context, params pagination.Params, filters QuoteFilters) (*AdminQuoteListView, error)
	BeginPricing(ctx context.Context, quoteID uuid.UUID, version int64, actorUserID uuid.UUID) error
	IssueQuote(ctx context.Context, input IssueQuoteInput) error
	RequestValidation(ctx context.Context, quoteID uuid.UUID, version int64) error
	Validate(ctx context.Context, input ValidateInput) error
	Cancel(ctx context.Context, input CancelInput) error
}

type service struct {
	repo         Repository
	tx           txRunner
	outbox       outboxPublisher
	pricer       pricer
	notifier     Notifier
	validityDays int
}

// Event payloads emitted on lifecycle transitions.
type QuoteSubmittedEvent struct {
	QuoteID       uuid.UUID `json:"quote_id"`
	RequestNumber string    `json:"request_number"`
	UserID        uuid.UUID `json:"user_id"`
	ItemCount     int       `json:"item_count"`
}

type QuoteIssuedEvent struct {
	QuoteID       uuid.UUID `json:"quote_id"`
	QuoteNumber   string    `json:"quote_number"`
	UserID        uuid.UUID `json:"user_id"`
	Subtotal      int64     `json:"subtotal"`
	DiscountTotal int64     `json:"discount_total"`
	TotalQuoted   int64     `json:"total_quoted"`
}

type QuoteValidatedEvent struct {
	QuoteID     uuid.UUID `json:"quote_id"`
	UserID      uuid.UUID `json:"user_id"`
	ValidatedAt time.Time `json:"validated_at"`
}

type QuoteCanceledEvent struct {
	QuoteID    uuid.UUID       `json:"quote_id"`
	UserID     uuid.UUID       `json:"user_id"`
	ActorRole  enums.ActorRole `json:"actor_role"`
	FromStatus string          `json:"from_status"`
}

// Human-readable numbering scopes.
const (
	numberScopeRequest = "request"
	numberScopeQuote   = "quote"
)

// NewService builds a quote service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, priceEngine pricer, notifier Notifier, validityDays int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if priceEngine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if validityDays <= 0 {
		return nil, fmt.Errorf("validity days must be positive")
	}
	return &service{
		repo:         repo,
		tx:           tx,
		outbox:       outboxSvc,
		pricer:       priceEngine,
		notifier:     notifier,
		validityDays: validityDays,
	}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*QuoteView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	var created *models.QuoteRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		year := time.Now().Year()
		seq, err := repo.NextNumber(ctx, numberScopeRequest, year)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign request number")
		}

		items := make([]models.QuoteRequestItem, 0, len(input.Items))
		for i, item := range input.Items {
			items = append(items, models.QuoteRequestItem{
				ProductID:     item.ProductID,
				ProductName:   item.ProductName,
				BrandName:     item.BrandName,
				WidthValue:    item.WidthValue,
				ProfileValue:  item.ProfileValue,
				DiameterValue: item.DiameterValue,
				Quantity:      item.Quantity,
				Position:      i,
			})
		}

		quote := &models.QuoteRequest{
			RequestNumber:         fmt.Sprintf("DEM-%d-%06d", year, seq),
			UserID:                input.UserID,
			Status:                enums.QuoteStatusEnAttente,
			Version:               1,
			ClientMessage:         input.ClientMessage,
			RequestedDeliveryDate: input.RequestedDeliveryDate,
			DeliveryDetails:       input.DeliveryDetails,
			Items:                 items,
		}
		created, err = repo.Create(ctx, quote)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quote request")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteSubmitted,
			AggregateType: enums.AggregateQuoteRequest,
			AggregateID:   created.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Role: enums.ActorRoleClient.String()},
			Data: QuoteSubmittedEvent{
				QuoteID:       created.ID,
				RequestNumber: created.RequestNumber,
				UserID:        created.UserID,
				ItemCount:     len(created.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	view := ToQuoteView(created)
	return &view, nil
}

func (s *service) GetForClient(ctx context.Context, quoteID, userID uuid.UUID) (*QuoteView, error) {
	quote, err := s.loadQuote(ctx, s.repo, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "quote does not belong to user")
	}
	view := ToQuoteView(quote)
	return &view, nil
}

func (s *service) ListForClient(ctx context.Context, userID uuid.UUID, params pagination.Params) (*QuoteListView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotes")
	}
	view := &QuoteListView{Quotes: make([]QuoteView, 0, len(list.Quotes)), NextCursor: list.NextCursor}
	for i := range list.Quotes {
		view.Quotes = append(view.Quotes, ToQuoteView(&list.Quotes[i]))
	}
	return view, nil
}

func (s *service) GetForAdmin(ctx context.Context, quoteID uuid.UUID) (*AdminQuoteView, error) {
	quote, err := s.loadQuote(ctx, s.repo, quoteID)
	if err != nil {
		return nil, err
	}
	view := ToAdminQuoteView(quote)
	return &view, nil
}

func (s *service) ListForAdmin(ctx context.Context, params pagination.Params, filters QuoteFilters) (*AdminQuoteListView, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotes")
	}
	view := &AdminQuoteListView{Quotes: make([]AdminQuoteView, 0, len(list.Quotes)), NextCursor: list.NextCursor}
	for i := range list.Quotes {
		view.Quotes = append(view.Quotes, ToAdminQuoteView(&list.Quotes[i]))
	}
	return view, nil
}

func (s *service) BeginPricing(ctx context.Context, quoteID uuid.UUID, version int64, actorUserID uuid.UUID) error {
	if quoteID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := s.loadQuote(ctx, repo, quoteID)
		if err != nil {
			return err
		}
		if err := EnsureTransition(ActionBeginPricing, quote.Status, enums.ActorRoleAdmin); err != nil {
			return err
		}

		return s.applyVersioned(ctx, repo, quote, version, map[string]any{
			"status": enums.QuoteStatusDevisEnPreparation,
		})
	})
}

func (s *service) IssueQuote(ctx context.Context, input IssueQuoteInput) error {
	if input.QuoteID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}
	if len(input.ItemPrices) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "item prices required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := s.loadQuote(ctx, repo, input.QuoteID)
		if err != nil {
			return err
		}
		if err := EnsureTransition(ActionIssueQuote, quote.Status, enums.ActorRoleAdmin); err != nil {
			return err
		}

		priceByItem := make(map[uuid.UUID]int64, len(input.ItemPrices))
		for _, price := range input.ItemPrices {
			if price.UnitPrice < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
			}
			priceByItem[price.ItemID] = price.UnitPrice
		}

		lines := make([]pricing.Line, 0, len(quote.Items))
		for _, item := range quote.Items {
			unitPrice, ok := priceByItem[item.ID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "every item must be priced").WithDetails(map[string]any{
					"item_id": item.ID.String(),
				})
			}
			lines = append(lines, pricing.Line{Quantity: item.Quantity, UnitPrice: unitPrice})
		}

		result, err := s.pricer.Price(ctx, tx, lines, input.PromotionCode, time.Now())
		if err != nil {
			return err
		}

		for _, item := range quote.Items {
			unitPrice := priceByItem[item.ID]
			lineTotal := int64(item.Quantity) * unitPrice
			if err := repo.UpdateItemPricing(ctx, item.ID, unitPrice, lineTotal); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price quote item")
			}
		}

		year := time.Now().Year()
		seq, err := repo.NextNumber(ctx, numberScopeQuote, year)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign quote number")
		}
		quoteNumber := fmt.Sprintf("DEV-%d-%06d", year, seq)

		updates := map[string]any{
			"status":             enums.QuoteStatusDevisEnvoye,
			"quote_number":       quoteNumber,
			"subtotal_requested": result.Subtotal,
			"discount_total":     result.DiscountTotal,
			"total_quoted":       result.TotalQuoted,
		}
		if input.PromotionCode != nil {
			updates["promotion_code"] = *input.PromotionCode
		}
		if input.AdminNotes != nil {
			updates["admin_notes"] = *input.AdminNotes
		}
		if err := s.applyVersioned(ctx, repo, quote, input.Version, updates); err != nil {
			return err
		}

		if err := s.notifier.Notify(ctx, tx, quote.UserID, enums.NotificationQuoteIssued, map[string]any{
			"quote_number": quoteNumber,
			"total_quoted": result.TotalQuoted,
		}); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteIssued,
			AggregateType: enums.AggregateQuoteRequest,
			AggregateID:   quote.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: enums.ActorRoleAdmin.String()},
			Data: QuoteIssuedEvent{
				QuoteID:       quote.ID,
				QuoteNumber:   quoteNumber,
				UserID:        quote.UserID,
				Subtotal:      result.Subtotal,
				DiscountTotal: result.DiscountTotal,
				TotalQuoted:   result.TotalQuoted,
			},
		})
	})
}

func (s *service) RequestValidation(ctx context.Context, quoteID uuid.UUID, version int64) error {
	if quoteID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := s.loadQuote(ctx, repo, quoteID)
		if err != nil {
			return err
		}
		if err := EnsureTransition(ActionRequestValidation, quote.Status, enums.ActorRoleSystem); err != nil {
			return err
		}

		validUntil := time.Now().AddDate(0, 0, s.validityDays)
		if err := s.applyVersioned(ctx, repo, quote, version, map[string]any{
			"status":      enums.QuoteStatusEnAttenteValidation,
			"valid_until": validUntil,
		}); err != nil {
			return err
		}

		return s.notifier.Notify(ctx, tx, quote.UserID, enums.NotificationValidationReminder, map[string]any{
			"quote_number": deref(quote.QuoteNumber),
			"valid_until":  validUntil,
		})
	})
}

func (s *service) Validate(ctx context.Context, input ValidateInput) error {
	if input.QuoteID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := s.loadQuote(ctx, repo, input.QuoteID)
		if err != nil {
			return err
		}
		if quote.UserID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "quote does not belong to user")
		}
		if err := EnsureTransition(ActionValidate, quote.Status, enums.ActorRoleClient); err != nil {
			return err
		}

		now := time.Now()
		if quote.IsExpired(now) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quote validity window has passed").WithDetails(map[string]any{
				"current_status": quote.Status.String(),
				"target_status":  enums.QuoteStatusValideParClient.String(),
				"reason":         "expired",
			})
		}

		updates := map[string]any{
			"status":                enums.QuoteStatusValideParClient,
			"validated_at":          now,
			"validated_ip":          input.IP,
			"validated_device_info": input.DeviceInfo,
		}
		if input.PdfURL != nil {
			updates["validated_pdf_url"] = *input.PdfURL
		}
		if err := s.applyVersioned(ctx, repo, quote, input.Version, updates); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteValidated,
			AggregateType: enums.AggregateQuoteRequest,
			AggregateID:   quote.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: enums.ActorRoleClient.String()},
			Data: QuoteValidatedEvent{
				QuoteID:     quote.ID,
				UserID:      quote.UserID,
				ValidatedAt: now,
			},
		})
	})
}

func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if input.QuoteID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := s.loadQuote(ctx, repo, input.QuoteID)
		if err != nil {
			return err
		}
		if input.ActorRole == enums.ActorRoleClient && quote.UserID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "quote does not belong to user")
		}
		if err := EnsureTransition(ActionCancel, quote.Status, input.ActorRole); err != nil {
			return err
		}

		fromStatus := quote.Status
		if err := s.applyVersioned(ctx, repo, quote, input.Version, map[string]any{
			"status":      enums.QuoteStatusAnnule,
			"canceled_at": time.Now(),
		}); err != nil {
			return err
		}

		if err := s.notifier.Notify(ctx, tx, quote.UserID, enums.NotificationQuoteCanceled, map[string]any{
			"request_number": quote.RequestNumber,
			"from_status":    fromStatus.String(),
		}); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteCanceled,
			AggregateType: enums.AggregateQuoteRequest,
			AggregateID:   quote.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole.String()},
			Data: QuoteCanceledEvent{
				QuoteID:    quote.ID,
				UserID:     quote.UserID,
				ActorRole:  input.ActorRole,
				FromStatus: fromStatus.String(),
			},
		})
	})
}

func (s *service) loadQuote(ctx context.Context, repo Repository, quoteID uuid.UUID) (*models.QuoteRequest, error) {
	quote, err := repo.FindByID(ctx, quoteID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	return quote, nil
}

// applyVersioned performs the compare-and-swap write. A zero row count means
// the caller's version is stale and the write must be retried after a re-read.
func (s *service) applyVersioned(ctx context.Context, repo Repository, quote *models.QuoteRequest, version int64, updates map[string]any) error {
	if version <= 0 {
		version = quote.Version
	}
	affected, err := repo.UpdateWithVersion(ctx, quote.ID, version, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quote")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "quote was modified concurrently").WithDetails(map[string]any{
			"quote_id": quote.ID.String(),
			"version":  version,
		})
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
