package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/AmadouLah/pneumback-sub001/internal/delivery"
	"github.com/AmadouLah/pneumback-sub001/internal/payments"
	"github.com/AmadouLah/pneumback-sub001/internal/quotes"
	"github.com/AmadouLah/pneumback-sub001/pkg/db/models"
	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
	"github.com/AmadouLah/pneumback-sub001/pkg/logger"
	"github.com/AmadouLah/pneumback-sub001/pkg/mailer"
	"github.com/AmadouLah/pneumback-sub001/pkg/outbox"
)

// NonRetryableError marks dispatch failures that a retry cannot fix, such as
// a payload that no longer unmarshals. The relay marks these published with
// the error recorded instead of retrying forever.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string { return e.Err.Error() }
func (e NonRetryableError) Unwrap() error { return e.Err }

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type quoteFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error)
}

// Dispatcher turns outbox events into outbound email. It is invoked by the
// relay worker after the event row is claimed, never inside the transaction
// that produced the event.
type Dispatcher struct {
	users  userFinder
	quotes quoteFinder
	mail   mailer.Sender
	logg   *logger.Logger
}

// NewDispatcher wires the mail dispatcher dependencies.
func NewDispatcher(userRepo userFinder, quoteRepo quoteFinder, mail mailer.Sender, logg *logger.Logger) (*Dispatcher, error) {
	if userRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if quoteRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quotes repository required")
	}
	if mail == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mail sender required")
	}
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "notifications-dispatcher"})
	}
	return &Dispatcher{users: userRepo, quotes: quoteRepo, mail: mail, logg: logg}, nil
}

// Dispatch renders and sends the email for a single outbox event. Event
// types with no mail recipient are acknowledged without sending.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.OutboxEvent) error {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return NonRetryableError{Err: fmt.Errorf("decode envelope %s: %w", event.ID, err)}
	}

	switch event.EventType {
	case enums.EventQuoteIssued:
		var data quotes.QuoteIssuedEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return NonRetryableError{Err: err}
		}
		subject := fmt.Sprintf("Votre devis %s est disponible", data.QuoteNumber)
		body := fmt.Sprintf(
			"<p>Bonjour,</p><p>Votre devis <strong>%s</strong> est prêt. Montant total : <strong>%s</strong>.</p><p>Connectez-vous pour le consulter et le valider.</p>",
			data.QuoteNumber, formatXOF(data.TotalQuoted))
		return d.sendToUser(ctx, data.UserID, subject, body)

	case enums.EventQuoteCanceled:
		var data quotes.QuoteCanceledEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return NonRetryableError{Err: err}
		}
		subject := "Votre demande de devis a été annulée"
		body := "<p>Bonjour,</p><p>Votre demande de devis a été annulée. Contactez-nous si vous souhaitez soumettre une nouvelle demande.</p>"
		return d.sendToUser(ctx, data.UserID, subject, body)

	case enums.EventPaymentSettled:
		var data payments.PaymentSettledEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return NonRetryableError{Err: err}
		}
		quote, err := d.quotes.FindByID(ctx, data.QuoteID)
		if err != nil {
			return fmt.Errorf("load quote %s: %w", data.QuoteID, err)
		}
		subject := "Paiement reçu"
		body := fmt.Sprintf(
			"<p>Bonjour,</p><p>Nous avons bien reçu votre paiement de <strong>%s</strong> pour le devis <strong>%s</strong>. La livraison sera organisée prochainement.</p>",
			formatXOF(data.Amount), derefOr(quote.QuoteNumber, quote.RequestNumber))
		return d.sendToUser(ctx, quote.UserID, subject, body)

	case enums.EventPaymentFailed:
		var data payments.PaymentFailedEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return NonRetryableError{Err: err}
		}
		quote, err := d.quotes.FindByID(ctx, data.QuoteID)
		if err != nil {
			return fmt.Errorf("load quote %s: %w", data.QuoteID, err)
		}
		subject := "Échec du paiement"
		body := fmt.Sprintf(
			"<p>Bonjour,</p><p>Le paiement du devis <strong>%s</strong> n'a pas abouti. Vous pouvez relancer le paiement depuis votre espace client.</p>",
			derefOr(quote.QuoteNumber, quote.RequestNumber))
		return d.sendToUser(ctx, quote.UserID, subject, body)

	case enums.EventLivreurAssigned:
		var data delivery.LivreurAssignedEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return NonRetryableError{Err: err}
		}
		quote, err := d.quotes.FindByID(ctx, data.QuoteID)
		if err != nil {
			return fmt.Errorf("load quote %s: %w", data.QuoteID, err)
		}
		subject := "Nouvelle livraison à effectuer"
		body := fmt.Sprintf(
			"<p>Bonjour,</p><p>Une livraison vous a été assignée pour le devis <strong>%s</strong>. Consultez votre espace livreur pour les détails.</p>",
			derefOr(quote.QuoteNumber, quote.RequestNumber))
		return d.sendToUser(ctx, data.LivreurID, subject, body)

	case enums.EventDeliveryConfirmed:
		var data delivery.DeliveryConfirmedEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return NonRetryableError{Err: err}
		}
		subject := "Livraison effectuée"
		body := "<p>Bonjour,</p><p>Votre commande a été livrée. Merci de votre confiance.</p>"
		return d.sendToUser(ctx, data.UserID, subject, body)

	default:
		// quote.submitted and quote.validated feed the in-app feed only.
		return nil
	}
}

func (d *Dispatcher) sendToUser(ctx context.Context, userID uuid.UUID, subject, body string) error {
	user, err := d.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}
	if user.Email == "" {
		return NonRetryableError{Err: fmt.Errorf("user %s has no email", userID)}
	}
	if err := d.mail.Send(ctx, user.Email, subject, body); err != nil {
		return fmt.Errorf("send mail to %s: %w", user.Email, err)
	}
	d.logg.Info(d.logg.WithFields(ctx, map[string]any{
		"user_id": userID.String(),
		"subject": subject,
	}), "notification mail sent")
	return nil
}

// formatXOF renders an integer franc CFA amount with thousand separators.
func formatXOF(amount int64) string {
	digits := fmt.Sprintf("%d", amount)
	negative := false
	if len(digits) > 0 && digits[0] == '-' {
		negative = true
		digits = digits[1:]
	}
	var out []byte
	for i, c := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, c)
	}
	if negative {
		out = append([]byte{'-'}, out...)
	}
	return string(out) + " FCFA"
}

func derefOr(value *string, fallback string) string {
	if value != nil && *value != "" {
		return *value
	}
	return fallback
}
