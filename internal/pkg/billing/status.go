package billing

import "strings"

// isEntitlingProviderStatus reports whether a raw provider status means the
// payment went through. PayPal reports ACTIVE/APPROVED for subscriptions and
// paid for completed sales.
func isEntitlingProviderStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "approved", "paid":
		return true
	default:
		return false
	}
}

const (
	eventActionActivate = "activate"
	eventActionCancel   = "cancel"
	eventActionSuspend  = "suspend"
	eventActionIgnore   = "ignore"
)

// eventAction maps a provider event type to the engine's effect. Unknown
// types map to ignore for forward compatibility with provider schema
// changes.
func eventAction(eventType string) string {
	switch strings.ToUpper(strings.TrimSpace(eventType)) {
	case "BILLING.SUBSCRIPTION.ACTIVATED",
		"CHECKOUT.ORDER.APPROVED",
		"PAYMENT.SALE.COMPLETED":
		return eventActionActivate
	case "BILLING.SUBSCRIPTION.CANCELLED",
		"BILLING.SUBSCRIPTION.EXPIRED":
		return eventActionCancel
	case "BILLING.SUBSCRIPTION.SUSPENDED",
		"BILLING.SUBSCRIPTION.PAYMENT.FAILED":
		return eventActionSuspend
	default:
		return eventActionIgnore
	}
}
