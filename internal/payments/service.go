package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AmadouLah/pneumback-sub001/internal/quotes"
	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
	"github.com/AmadouLah/pneumback-sub001/pkg/metrics"
	"github.com/AmadouLah/pneumback-sub001/pkg/outbox"
	"github.com/AmadouLah/pneumback-sub001/pkg/paydunya"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Gateway is the payment provider surface the service depends on.
type Gateway interface {
	CreateInvoice(ctx context.Context, amount int64, description, callbackURL string) (string, error)
	BuildCheckoutURL(token string) string
	MasterKey() string
}

// InitiateInput starts a payment on a validated quote.
type InitiateInput struct {
	QuoteID     uuid.UUID
	ActorUserID uuid.UUID
}

// InitiateResult carries the gateway token and hosted checkout URL.
type InitiateResult struct {
	Token       string `json:"token"`
	CheckoutURL string `json:"checkout_url"`
}

// ReconcileResult classifies the outcome of one callback reconciliation.
type ReconcileResult string

const (
	ResultRejected  ReconcileResult = "rejected"
	ResultSucceeded ReconcileResult = "succeeded"
	ResultFailed    ReconcileResult = "failed"
	ResultPending   ReconcileResult = "pending"
	ResultReplayed  ReconcileResult = "replayed"
)

// Rejection and failure reasons recorded on outcomes.
const (
	ReasonMalformedPayload = "malformed-payload"
	ReasonMissingToken     = "missing-token"
	ReasonAuthenticity     = "authenticity"
	ReasonUnknownToken     = "unknown-token"
	ReasonAmountMismatch   = "amount-mismatch"
	ReasonProviderDeclined = "provider-declined"
)

// Outcome is the authoritative result of a reconciliation pass. Rejections
// are outcomes, not errors: the webhook endpoint acknowledges them so the
// provider does not retry.
type Outcome struct {
	Result       ReconcileResult     `json:"result"`
	Status       enums.PaymentStatus `json:"status,omitempty"`
	Reason       string              `json:"reason,omitempty"`
	ManualReview bool                `json:"manual_review,omitempty"`
	InvoiceToken string              `json:"invoice_token,omitempty"`
}

// Service defines payment initiation and callback reconciliation.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
	Reconcile(ctx context.Context, rawBody []byte) (Outcome, error)
	HasSettledInvoice(ctx context.Context, tx *gorm.DB, quoteID uuid.UUID) (bool, error)
}

type service struct {
	repo        Repository
	quoteRepo   quotes.Repository
	tx          txRunner
	gateway     Gateway
	outbox      outboxPublisher
	logg        *logger.Logger
	metrics     *metrics.PaymentMetrics
	callbackURL string
}

// PaymentSettledEvent is emitted when an invoice resolves as paid.
type PaymentSettledEvent struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	QuoteID   uuid.UUID `json:"quote_id"`
	Token     string    `json:"token"`
	Amount    int64     `json:"amount"`
}

// PaymentFailedEvent is emitted when an invoice resolves as failed.
type PaymentFailedEvent struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	QuoteID   uuid.UUID `json:"quote_id"`
	Token     string    `json:"token"`
	Reason    string    `json:"reason"`
}

// statusByCallback is the fixed mapping from provider status strings to the
// local payment status. Anything not listed maps to pending and is flagged
// for manual review; an unknown code is never treated as a success.
var statusByCallback = map[string]enums.PaymentStatus{
	"completed":  enums.PaymentStatusPaid,
	"success":    enums.PaymentStatusPaid,
	"paid":       enums.PaymentStatusPaid,
	"failed":     enums.PaymentStatusFailed,
	"declined":   enums.PaymentStatusFailed,
	"cancelled":  enums.PaymentStatusFailed,
	"canceled":   enums.PaymentStatusFailed,
	"pending":    enums.PaymentStatusPending,
	"processing": enums.PaymentStatusPending,
}

// NewService builds a payment service with the required dependencies.
func NewService(repo Repository, quoteRepo quotes.Repository, tx txRunner, gateway Gateway, outboxSvc outboxPublisher, logg *logger.Logger, paymentMetrics *metrics.PaymentMetrics, callbackURL string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if quoteRepo == nil {
		return nil, fmt.Errorf("quotes repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if callbackURL == "" {
		return nil, fmt.Errorf("callback url required")
	}
	return &service{
		repo:        repo,
		quoteRepo:   quoteRepo,
		tx:          tx,
		gateway:     gateway,
		outbox:      outboxSvc,
		logg:        logg,
		metrics:     paymentMetrics,
		callbackURL: callbackURL,
	}, nil
}

// Initiate registers an invoice with the gateway for a validated quote. The
// gateway call happens before the transaction opens so a slow provider never
// holds a database lock; on timeout the caller gets GatewayUnavailable and
// decides whether to retry.
func (s *service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	if input.QuoteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	quote, err := s.quoteRepo.FindByID(ctx, input.QuoteID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	if quote.UserID != input.ActorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "quote does not belong to user")
	}
	if quote.Status != enums.QuoteStatusValideParClient {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment requires a validated quote").WithDetails(map[string]any{
			"current_status": quote.Status.String(),
		})
	}
	if quote.TotalQuoted == nil || *quote.TotalQuoted <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quote has no payable total")
	}

	amount := *quote.TotalQuoted
	description := fmt.Sprintf("Devis %s", deref(quote.QuoteNumber))

	start := time.Now()
	token, err := s.gateway.CreateInvoice(ctx, amount, description, s.callbackURL)
	s.metrics.ObserveGatewayCall("create_invoice", time.Since(start))
	if err != nil {
		s.metrics.IncGatewayFailure("create_invoice")
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).Create(ctx, &models.PaymentInvoice{
			QuoteRequestID: quote.ID,
			Token:          token,
			TotalAmount:    amount,
			Description:    description,
			CallbackURL:    s.callbackURL,
			Status:         enums.PaymentStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment invoice")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &InitiateResult{Token: token, CheckoutURL: s.gateway.BuildCheckoutURL(token)}, nil
}

// Reconcile drives one provider callback to an authoritative outcome. The
// status write always lands before any follow-up event, so a crash between
// the two is recovered by replaying the same callback.
func (s *service) Reconcile(ctx context.Context, rawBody []byte) (Outcome, error) {
	callback, err := paydunya.ParseCallback(rawBody)
	if err != nil {
		return s.reject(ctx, "", ReasonMalformedPayload), nil
	}
	normalized := callback.Normalize()

	if normalized.InvoiceToken == "" {
		return s.reject(ctx, "", ReasonMissingToken), nil
	}
	if !paydunya.VerifyHash(s.gateway.MasterKey(), normalized.InvoiceToken, normalized.TotalAmount, normalized.Hash) {
		return s.reject(ctx, normalized.InvoiceToken, ReasonAuthenticity), nil
	}

	var outcome Outcome
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		invoice, err := repo.FindByToken(ctx, normalized.InvoiceToken)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				outcome = s.reject(ctx, normalized.InvoiceToken, ReasonUnknownToken)
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
		}

		// Per-token idempotency: a resolved invoice replays its recorded
		// outcome without re-applying side effects.
		if invoice.Status.IsResolved() {
			outcome = replayOutcome(invoice)
			s.metrics.IncReconciliation(string(ResultReplayed))
			return nil
		}

		status, known := statusByCallback[normalized.Status]
		manualReview := false
		reason := ""
		if !known {
			status = enums.PaymentStatusPending
			manualReview = true
		}

		if status == enums.PaymentStatusPaid && !amountsMatch(normalized.TotalAmount, invoice.TotalAmount) {
			status = enums.PaymentStatusFailed
			reason = ReasonAmountMismatch
		}
		// A success status contradicted by a non-success response code is
		// never settled: the payload is internally inconsistent.
		if status == enums.PaymentStatusPaid && normalized.ResponseCode != "" && !normalized.Accepted() {
			status = enums.PaymentStatusFailed
			reason = ReasonProviderDeclined
		}
		if status == enums.PaymentStatusFailed && reason == "" {
			reason = ReasonProviderDeclined
		}

		updates := map[string]any{
			"status":        status,
			"manual_review": manualReview,
		}
		if reason != "" {
			updates["failure_reason"] = reason
		}
		if status.IsResolved() {
			updates["resolved_at"] = time.Now()
		}
		if err := repo.Update(ctx, invoice.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist invoice status")
		}

		switch status {
		case enums.PaymentStatusPaid:
			outcome = Outcome{Result: ResultSucceeded, Status: status, InvoiceToken: invoice.Token}
			s.metrics.IncReconciliation(string(ResultSucceeded))
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentSettled,
				AggregateType: enums.AggregatePaymentInvoice,
				AggregateID:   invoice.ID,
				Version:       1,
				Data: PaymentSettledEvent{
					InvoiceID: invoice.ID,
					QuoteID:   invoice.QuoteRequestID,
					Token:     invoice.Token,
					Amount:    invoice.TotalAmount,
				},
			})
		case enums.PaymentStatusFailed:
			outcome = Outcome{Result: ResultFailed, Status: status, Reason: reason, InvoiceToken: invoice.Token}
			s.metrics.IncReconciliation(string(ResultFailed))
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentFailed,
				AggregateType: enums.AggregatePaymentInvoice,
				AggregateID:   invoice.ID,
				Version:       1,
				Data: PaymentFailedEvent{
					InvoiceID: invoice.ID,
					QuoteID:   invoice.QuoteRequestID,
					Token:     invoice.Token,
					Reason:    reason,
				},
			})
		default:
			outcome = Outcome{Result: ResultPending, Status: status, ManualReview: manualReview, InvoiceToken: invoice.Token}
			s.metrics.IncReconciliation(string(ResultPending))
			return nil
		}
	})
	if err != nil {
		return Outcome{}, err
	}
	return outcome, nil
}

// HasSettledInvoice reports whether the quote has a paid invoice. Delivery
// assignment is gated on this.
func (s *service) HasSettledInvoice(ctx context.Context, tx *gorm.DB, quoteID uuid.UUID) (bool, error) {
	_, err := s.repo.WithTx(tx).FindSettledByQuote(ctx, quoteID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settled invoice")
	}
	return true, nil
}

func (s *service) reject(ctx context.Context, token, reason string) Outcome {
	fields := map[string]any{"reason": reason}
	if token != "" {
		fields["invoice_token"] = token
	}
	logCtx := s.logg.WithFields(ctx, fields)
	s.logg.Warn(logCtx, "payment callback rejected")
	s.metrics.IncReconciliation(string(ResultRejected))
	return Outcome{Result: ResultRejected, Reason: reason, InvoiceToken: token}
}

func replayOutcome(invoice *models.PaymentInvoice) Outcome {
	outcome := Outcome{
		Result:       ResultReplayed,
		Status:       invoice.Status,
		ManualReview: invoice.ManualReview,
		InvoiceToken: invoice.Token,
	}
	if invoice.FailureReason != nil {
		outcome.Reason = *invoice.FailureReason
	}
	return outcome
}

// amountsMatch compares the provider-reported amount against the invoice
// total without going through floats.
func amountsMatch(reported string, invoiceAmount int64) bool {
	if reported == "" {
		return false
	}
	value, err := decimal.NewFromString(reported)
	if err != nil {
		return false
	}
	return value.Equal(decimal.NewFromInt(invoiceAmount))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
