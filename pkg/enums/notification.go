package enums

import "fmt"

// NotificationKind names the template used to render a notification.
type NotificationKind string

const (
	NotificationQuoteIssued        NotificationKind = "quote_issued"
	NotificationValidationReminder NotificationKind = "validation_reminder"
	NotificationLivreurAssigned    NotificationKind = "livreur_assigned"
	NotificationDeliveryConfirmed  NotificationKind = "delivery_confirmed"
	NotificationQuoteCanceled      NotificationKind = "quote_canceled"
)

var validNotificationKinds = []NotificationKind{
	NotificationQuoteIssued,
	NotificationValidationReminder,
	NotificationLivreurAssigned,
	NotificationDeliveryConfirmed,
	NotificationQuoteCanceled,
}

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationKind.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
