package billing

import "context"

// Checkout is the outcome of initiating a provider checkout: the URL the app
// sends the user to, and the reference used to verify the outcome later.
type Checkout struct {
	ApprovalURL string
	Reference   string
}

// ProviderSubscription is the provider's view of one subscription, fetched by
// checkout reference or subscription id. Status holds the provider's raw
// vocabulary (e.g. ACTIVE, APPROVED, SUSPENDED).
type ProviderSubscription struct {
	ID         string
	Status     string
	CustomID   string
	CustomerID string
	PlanID     string
}

// WebhookSignature carries the transmission headers the provider attaches to
// a pushed event, needed to verify the event's authenticity.
type WebhookSignature struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
}

// ProviderClient is the outbound adapter to the billing provider. Every call
// authenticates fresh; implementations never retry internally, callers own
// timeout budgets via ctx.
type ProviderClient interface {
	IsConfigured() bool
	CreateCheckout(ctx context.Context, userID string) (*Checkout, error)
	FetchSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	// VerifyWebhookSignature checks a pushed event against the provider's
	// verification endpoint. Implementations without a webhook registration
	// configured report (true, nil) and leave enforcement to deployment
	// configuration.
	VerifyWebhookSignature(ctx context.Context, sig WebhookSignature, event []byte) (bool, error)
}

// EntitlementResult is returned from checkout verification.
type EntitlementResult struct {
	Subscribed     bool
	ProviderStatus string
	Message        string
}

// CancelResult is returned from user-initiated cancellation.
type CancelResult struct {
	Cancelled bool
	Message   string
}

// EntitlementStatus is the read-only projection for the status endpoint.
type EntitlementStatus struct {
	IsSubscribed   bool
	Status         string
	SubscriptionID string
}

// WebhookOutcome reports what a webhook event did. Ignored events (unknown
// types, unknown targets) are acknowledged without error so the provider
// does not retry delivery forever.
type WebhookOutcome struct {
	EventType string
	Applied   bool
	Ignored   bool
	Detail    string
	// UserID identifies whose record an applied event touched, so callers
	// can drop cached entitlement reads for that user.
	UserID string
}
