package enums

// EventType names a domain event recorded in the outbox.
type EventType string

const (
	EventQuoteSubmitted    EventType = "quote.submitted"
	EventQuoteIssued       EventType = "quote.issued"
	EventQuoteValidated    EventType = "quote.validated"
	EventQuoteCanceled     EventType = "quote.canceled"
	EventPaymentSettled    EventType = "payment.settled"
	EventPaymentFailed     EventType = "payment.failed"
	EventLivreurAssigned   EventType = "delivery.assigned"
	EventDeliveryConfirmed EventType = "delivery.confirmed"
)

// AggregateType names the aggregate an outbox event belongs to.
type AggregateType string

const (
	AggregateQuoteRequest   AggregateType = "quote_request"
	AggregatePaymentInvoice AggregateType = "payment_invoice"
)
