package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AmadouLah/pneumback-sub001/internal/quotes"
	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type paymentChecker interface {
	HasSettledInvoice(ctx context.Context, tx *gorm.DB, quoteID uuid.UUID) (bool, error)
}

// AssignInput sets the delivery agent on a validated, paid quote.
type AssignInput struct {
	QuoteID     uuid.UUID
	Version     int64
	LivreurID   uuid.UUID
	Details     *string
	ActorUserID uuid.UUID
}

// DeliverInput records proof-of-delivery from the assigned livreur.
type DeliverInput struct {
	QuoteID       uuid.UUID
	Version       int64
	ActorUserID   uuid.UUID
	GeoPosition   string
	ProofPhotoURL *string
	SignatureURL  *string
	Notes         *string
}

// AbsentInput records a failed delivery attempt.
type AbsentInput struct {
	QuoteID     uuid.UUID
	Version     int64
	ActorUserID uuid.UUID
}

// LivreurAssignedEvent is emitted when a delivery agent takes over a quote.
type LivreurAssignedEvent struct {
	QuoteID   uuid.UUID `json:"quote_id"`
	LivreurID uuid.UUID `json:"livreur_id"`
	UserID    uuid.UUID `json:"user_id"`
}

// DeliveryConfirmedEvent is emitted when delivery proof lands.
type DeliveryConfirmedEvent struct {
	QuoteID     uuid.UUID `json:"quote_id"`
	UserID      uuid.UUID `json:"user_id"`
	LivreurID   uuid.UUID `json:"livreur_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// Service defines delivery-phase operations on quotes.
type Service interface {
	Assign(ctx context.Context, input AssignInput) error
	MarkDelivered(ctx context.Context, input DeliverInput) error
	MarkAbsent(ctx context.Context, input AbsentInput) error
}

type service struct {
	repo          quotes.Repository
	tx            txRunner
	outbox        outboxPublisher
	notifier      quotes.Notifier
	payments      paymentChecker
	absentCeiling int
}

// NewService builds a delivery service with the required dependencies.
func NewService(repo quotes.Repository, tx txRunner, outboxSvc outboxPublisher, notifier quotes.Notifier, payments paymentChecker, absentCeiling int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment checker required")
	}
	if absentCeiling <= 0 {
		return nil, fmt.Errorf("absent ceiling must be positive")
	}
	return &service{
		repo:          repo,
		tx:            tx,
		outbox:        outboxSvc,
		notifier:      notifier,
		payments:      payments,
		absentCeiling: absentCeiling,
	}, nil
}

func (s *service) Assign(ctx context.Context, input AssignInput) error {
	if input.QuoteID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}
	if input.LivreurID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "livreur id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := s.loadQuote(ctx, repo, input.QuoteID)
		if err != nil {
			return err
		}
		if err := quotes.EnsureTransition(quotes.ActionAssignDelivery, quote.Status, enums.ActorRoleAdmin); err != nil {
			return err
		}

		settled, err := s.payments.HasSettledInvoice(ctx, tx, quote.ID)
		if err != nil {
			return err
		}
		if !settled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery requires a settled payment").WithDetails(map[string]any{
				"current_status": quote.Status.String(),
				"target_status":  enums.QuoteStatusEnCoursLivraison.String(),
				"reason":         "payment-not-settled",
			})
		}

		updates := map[string]any{
			"status":                        enums.QuoteStatusEnCoursLivraison,
			"assigned_livreur_id":           input.LivreurID,
			"livreur_assignment_email_sent": true,
		}
		if input.Details != nil {
			updates["delivery_details"] = *input.Details
		}
		if err := s.applyVersioned(ctx, repo, quote, input.Version, updates); err != nil {
			return err
		}

		if err := s.notifier.Notify(ctx, tx, input.LivreurID, enums.NotificationLivreurAssigned, map[string]any{
			"request_number": quote.RequestNumber,
			"quote_number":   deref(quote.QuoteNumber),
		}); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLivreurAssigned,
			AggregateType: enums.AggregateQuoteRequest,
			AggregateID:   quote.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: enums.ActorRoleAdmin.String()},
			Data: LivreurAssignedEvent{
				QuoteID:   quote.ID,
				LivreurID: input.LivreurID,
				UserID:    quote.UserID,
			},
		})
	})
}

func (s *service) MarkDelivered(ctx context.Context, input DeliverInput) error {
	if input.QuoteID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}
	if !hasProof(input) {
		return pkgerrors.New(pkgerrors.CodeProofRequired, "a proof photo or a signature is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := s.loadQuote(ctx, repo, input.QuoteID)
		if err != nil {
			return err
		}
		if err := s.ensureAssignedLivreur(quote, input.ActorUserID); err != nil {
			return err
		}
		if err := quotes.EnsureTransition(quotes.ActionConfirmDelivery, quote.Status, enums.ActorRoleLivreur); err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]any{
			"status":                enums.QuoteStatusTermine,
			"delivered_at":          now,
			"delivery_geo_position": input.GeoPosition,
		}
		if input.ProofPhotoURL != nil {
			updates["delivery_proof_photo_url"] = *input.ProofPhotoURL
		}
		if input.SignatureURL != nil {
			updates["delivery_signature_url"] = *input.SignatureURL
		}
		if input.Notes != nil {
			updates["delivery_notes"] = *input.Notes
		}
		if err := s.applyVersioned(ctx, repo, quote, input.Version, updates); err != nil {
			return err
		}

		if err := s.notifier.Notify(ctx, tx, quote.UserID, enums.NotificationDeliveryConfirmed, map[string]any{
			"request_number": quote.RequestNumber,
			"delivered_at":   now,
		}); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDeliveryConfirmed,
			AggregateType: enums.AggregateQuoteRequest,
			AggregateID:   quote.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: enums.ActorRoleLivreur.String()},
			Data: DeliveryConfirmedEvent{
				QuoteID:     quote.ID,
				UserID:      quote.UserID,
				LivreurID:   input.ActorUserID,
				DeliveredAt: now,
			},
		})
	})
}

// MarkAbsent increments the absence counter. Once the next attempt would
// reach the configured ceiling, the quote is canceled instead of counting up
// indefinitely.
func (s *service) MarkAbsent(ctx context.Context, input AbsentInput) error {
	if input.QuoteID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		quote, err := s.loadQuote(ctx, repo, input.QuoteID)
		if err != nil {
			return err
		}
		if err := s.ensureAssignedLivreur(quote, input.ActorUserID); err != nil {
			return err
		}
		if quote.Status != enums.QuoteStatusEnCoursLivraison {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "absence can only be recorded during delivery").WithDetails(map[string]any{
				"current_status": quote.Status.String(),
			})
		}

		next := quote.ClientAbsentCount + 1
		if next >= s.absentCeiling {
			if err := s.applyVersioned(ctx, repo, quote, input.Version, map[string]any{
				"status":              enums.QuoteStatusAnnule,
				"client_absent_count": next,
				"canceled_at":         time.Now(),
			}); err != nil {
				return err
			}

			if err := s.notifier.Notify(ctx, tx, quote.UserID, enums.NotificationQuoteCanceled, map[string]any{
				"request_number": quote.RequestNumber,
				"reason":         "client-absent",
			}); err != nil {
				return err
			}

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventQuoteCanceled,
				AggregateType: enums.AggregateQuoteRequest,
				AggregateID:   quote.ID,
				Version:       1,
				Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: enums.ActorRoleLivreur.String()},
				Data: quotes.QuoteCanceledEvent{
					QuoteID:    quote.ID,
					UserID:     quote.UserID,
					ActorRole:  enums.ActorRoleLivreur,
					FromStatus: enums.QuoteStatusEnCoursLivraison.String(),
				},
			})
		}

		return s.applyVersioned(ctx, repo, quote, input.Version, map[string]any{
			"client_absent_count": next,
		})
	})
}

func (s *service) ensureAssignedLivreur(quote *models.QuoteRequest, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if quote.AssignedLivreurID == nil || *quote.AssignedLivreurID != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "quote is not assigned to this livreur")
	}
	return nil
}

func (s *service) loadQuote(ctx context.Context, repo quotes.Repository, quoteID uuid.UUID) (*models.QuoteRequest, error) {
	quote, err := repo.FindByID(ctx, quoteID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	return quote, nil
}

func (s *service) applyVersioned(ctx context.Context, repo quotes.Repository, quote *models.QuoteRequest, version int64, updates map[string]any) error {
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

func hasProof(input DeliverInput) bool {
	if input.ProofPhotoURL != nil && *input.ProofPhotoURL != "" {
		return true
	}
	return input.SignatureURL != nil && *input.SignatureURL != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
