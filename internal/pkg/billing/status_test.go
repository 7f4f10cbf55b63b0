package billing

import "testing"

func TestIsEntitlingProviderStatus(t *testing.T) {
	for _, status := range []string{"ACTIVE", "APPROVED", "paid", " active "} {
		if !isEntitlingProviderStatus(status) {
			t.Fatalf("expected status %q to be entitling", status)
		}
	}
	for _, status := range []string{"APPROVAL_PENDING", "SUSPENDED", "CANCELLED", "EXPIRED", ""} {
		if isEntitlingProviderStatus(status) {
			t.Fatalf("expected status %q to be non-entitling", status)
		}
	}
}

func TestEventAction(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "BILLING.SUBSCRIPTION.ACTIVATED", want: eventActionActivate},
		{in: "CHECKOUT.ORDER.APPROVED", want: eventActionActivate},
		{in: "PAYMENT.SALE.COMPLETED", want: eventActionActivate},
		{in: "billing.subscription.cancelled", want: eventActionCancel},
		{in: "BILLING.SUBSCRIPTION.EXPIRED", want: eventActionCancel},
		{in: "BILLING.SUBSCRIPTION.SUSPENDED", want: eventActionSuspend},
		{in: "BILLING.SUBSCRIPTION.PAYMENT.FAILED", want: eventActionSuspend},
		{in: "BILLING.PLAN.CREATED", want: eventActionIgnore},
		{in: "", want: eventActionIgnore},
	}

	for _, tt := range tests {
		if got := eventAction(tt.in); got != tt.want {
			t.Fatalf("eventAction(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
