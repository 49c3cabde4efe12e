package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AmadouLah/pneumback-sub001/internal/quotes"
	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/outbox"
	"github.com/AmadouLah/pneumback-sub001/pkg/pagination"
)

type stubQuoteRepo struct {
	quote   *models.QuoteRequest
	updates []map[string]any
}

func (s *stubQuoteRepo) WithTx(tx *gorm.DB) quotes.Repository { return s }

func (s *stubQuoteRepo) Create(ctx context.Context, quote *models.QuoteRequest) (*models.QuoteRequest, error) {
	panic("not implemented")
}

func (s *stubQuoteRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	if s.quote == nil || s.quote.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.quote, nil
}

func (s *stubQuoteRepo) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*quotes.QuoteList, error) {
	panic("not implemented")
}

func (s *stubQuoteRepo) List(ctx context.Context, params pagination.Params, filters quotes.QuoteFilters) (*quotes.QuoteList, error) {
	panic("not implemented")
}

func (s *stubQuoteRepo) UpdateWithVersion(ctx context.Context, id uuid.UUID, version int64, updates map[string]any) (int64, error) {
	s.updates = append(s.updates, updates)
	if status, ok := updates["status"].(enums.QuoteStatus); ok {
		s.quote.Status = status
	}
	if count, ok := updates["client_absent_count"].(int); ok {
		s.quote.ClientAbsentCount = count
	}
	s.quote.Version = version + 1
	return 1, nil
}

func (s *stubQuoteRepo) UpdateItemPricing(ctx context.Context, itemID uuid.UUID, unitPrice, lineTotal int64) error {
	return nil
}

func (s *stubQuoteRepo) NextNumber(ctx context.Context, scope string, year int) (int64, error) {
	return 1, nil
}

func (s *stubQuoteRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	panic("not implemented")
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type recordedNotification struct {
	userID uuid.UUID
	kind   enums.NotificationKind
}

type stubNotifier struct {
	sent []recordedNotification
}

func (s *stubNotifier) Notify(ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind enums.NotificationKind, data map[string]any) error {
	s.sent = append(s.sent, recordedNotification{userID: userID, kind: kind})
	return nil
}

type stubPaymentChecker struct {
	settled bool
}

func (s *stubPaymentChecker) HasSettledInvoice(ctx context.Context, tx *gorm.DB, quoteID uuid.UUID) (bool, error) {
	return s.settled, nil
}

type fixture struct {
	svc      Service
	repo     *stubQuoteRepo
	outbox   *stubOutbox
	notifier *stubNotifier
	payments *stubPaymentChecker
}

func newFixture(t *testing.T, quote *models.QuoteRequest, settled bool) *fixture {
	t.Helper()

	repo := &stubQuoteRepo{quote: quote}
	ob := &stubOutbox{}
	nt := &stubNotifier{}
	pc := &stubPaymentChecker{settled: settled}
	svc, err := NewService(repo, stubTxRunner{}, ob, nt, pc, 3)
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, outbox: ob, notifier: nt, payments: pc}
}

func validatedQuote() *models.QuoteRequest {
	return &models.QuoteRequest{
		ID:            uuid.New(),
		RequestNumber: "DEM-2026-000001",
		UserID:        uuid.New(),
		Status:        enums.QuoteStatusValideParClient,
		Version:       5,
	}
}

func deliveringQuote(livreurID uuid.UUID) *models.QuoteRequest {
	quote := validatedQuote()
	quote.Status = enums.QuoteStatusEnCoursLivraison
	quote.AssignedLivreurID = &livreurID
	return quote
}

func TestAssignTransitionsToDelivery(t *testing.T) {
	quote := validatedQuote()
	f := newFixture(t, quote, true)
	livreurID := uuid.New()

	err := f.svc.Assign(context.Background(), AssignInput{
		QuoteID:     quote.ID,
		Version:     quote.Version,
		LivreurID:   livreurID,
		ActorUserID: uuid.New(),
	})
	require.NoError(t, err)

	require.Len(t, f.repo.updates, 1)
	updates := f.repo.updates[0]
	assert.Equal(t, enums.QuoteStatusEnCoursLivraison, updates["status"])
	assert.Equal(t, livreurID, updates["assigned_livreur_id"])
	assert.Equal(t, true, updates["livreur_assignment_email_sent"])

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, enums.NotificationLivreurAssigned, f.notifier.sent[0].kind)
	assert.Equal(t, livreurID, f.notifier.sent[0].userID)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventLivreurAssigned, f.outbox.events[0].EventType)
}

func TestAssignRequiresSettledPayment(t *testing.T) {
	quote := validatedQuote()
	f := newFixture(t, quote, false)

	err := f.svc.Assign(context.Background(), AssignInput{
		QuoteID:     quote.ID,
		Version:     quote.Version,
		LivreurID:   uuid.New(),
		ActorUserID: uuid.New(),
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	details, ok := appErr.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "payment-not-settled", details["reason"])
	assert.Empty(t, f.repo.updates)
}

func TestAssignRejectsWrongState(t *testing.T) {
	quote := validatedQuote()
	quote.Status = enums.QuoteStatusEnAttenteValidation
	f := newFixture(t, quote, true)

	err := f.svc.Assign(context.Background(), AssignInput{
		QuoteID:     quote.ID,
		Version:     quote.Version,
		LivreurID:   uuid.New(),
		ActorUserID: uuid.New(),
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestMarkDeliveredRequiresProof(t *testing.T) {
	livreurID := uuid.New()
	quote := deliveringQuote(livreurID)
	f := newFixture(t, quote, true)

	err := f.svc.MarkDelivered(context.Background(), DeliverInput{
		QuoteID:     quote.ID,
		Version:     quote.Version,
		ActorUserID: livreurID,
		GeoPosition: "14.6928,-17.4467",
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeProofRequired, appErr.Code())
	assert.Empty(t, f.repo.updates)
}

func TestMarkDeliveredCompletesQuote(t *testing.T) {
	livreurID := uuid.New()
	quote := deliveringQuote(livreurID)
	f := newFixture(t, quote, true)

	photo := "https://cdn.pneum.test/pod/1.jpg"
	err := f.svc.MarkDelivered(context.Background(), DeliverInput{
		QuoteID:       quote.ID,
		Version:       quote.Version,
		ActorUserID:   livreurID,
		GeoPosition:   "14.6928,-17.4467",
		ProofPhotoURL: &photo,
	})
	require.NoError(t, err)

	require.Len(t, f.repo.updates, 1)
	updates := f.repo.updates[0]
	assert.Equal(t, enums.QuoteStatusTermine, updates["status"])
	assert.Equal(t, photo, updates["delivery_proof_photo_url"])
	assert.NotNil(t, updates["delivered_at"])

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, enums.NotificationDeliveryConfirmed, f.notifier.sent[0].kind)
	assert.Equal(t, quote.UserID, f.notifier.sent[0].userID)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventDeliveryConfirmed, f.outbox.events[0].EventType)
}

func TestMarkDeliveredSignatureAloneSuffices(t *testing.T) {
	livreurID := uuid.New()
	quote := deliveringQuote(livreurID)
	f := newFixture(t, quote, true)

	signature := "https://cdn.pneum.test/sig/1.png"
	err := f.svc.MarkDelivered(context.Background(), DeliverInput{
		QuoteID:      quote.ID,
		Version:      quote.Version,
		ActorUserID:  livreurID,
		GeoPosition:  "14.6928,-17.4467",
		SignatureURL: &signature,
	})
	require.NoError(t, err)
}

func TestMarkDeliveredRejectsUnassignedLivreur(t *testing.T) {
	quote := deliveringQuote(uuid.New())
	f := newFixture(t, quote, true)

	photo := "https://cdn.pneum.test/pod/1.jpg"
	err := f.svc.MarkDelivered(context.Background(), DeliverInput{
		QuoteID:       quote.ID,
		Version:       quote.Version,
		ActorUserID:   uuid.New(),
		GeoPosition:   "14.6928,-17.4467",
		ProofPhotoURL: &photo,
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())
}

func TestMarkAbsentIncrementsThenCancelsAtCeiling(t *testing.T) {
	livreurID := uuid.New()
	quote := deliveringQuote(livreurID)
	f := newFixture(t, quote, true)

	absent := func() error {
		return f.svc.MarkAbsent(context.Background(), AbsentInput{
			QuoteID:     quote.ID,
			Version:     quote.Version,
			ActorUserID: livreurID,
		})
	}

	require.NoError(t, absent())
	assert.Equal(t, 1, quote.ClientAbsentCount)
	assert.Equal(t, enums.QuoteStatusEnCoursLivraison, quote.Status)

	require.NoError(t, absent())
	assert.Equal(t, 2, quote.ClientAbsentCount)
	assert.Equal(t, enums.QuoteStatusEnCoursLivraison, quote.Status)

	// Third attempt reaches the ceiling: cancel instead of counting up.
	require.NoError(t, absent())
	assert.Equal(t, 3, quote.ClientAbsentCount)
	assert.Equal(t, enums.QuoteStatusAnnule, quote.Status)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, enums.NotificationQuoteCanceled, f.notifier.sent[0].kind)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventQuoteCanceled, f.outbox.events[0].EventType)

	// Quote is terminal now, a further attempt is rejected.
	err := absent()
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}
