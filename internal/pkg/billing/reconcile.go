package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spectrahq/ghosthunter/app/models"
	"gorm.io/gorm"
)

// DevSubscriptionPrefix prefixes the synthetic provider id of dev-bypass
// records, keyed by user so repeated activations collapse to one row.
const DevSubscriptionPrefix = "dev-"

// Service is the reconciliation engine: the only writer of the subscription
// store. Signals from checkout verification, provider webhooks, cancellation
// requests and the dev bypass all funnel through it; the store's atomic
// per-user upsert provides the linearization, the engine holds no locks.
// Merge policy is last-accepted-write-wins: a later cancelled/suspended
// signal overrides an earlier active one regardless of channel.
type Service struct {
	repo     Repository
	provider ProviderClient
}

// NewService creates a reconciliation service from injected collaborators.
func NewService(repo Repository, provider ProviderClient) *Service {
	return &Service{repo: repo, provider: provider}
}

// NewServiceFromDB creates a reconciliation service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, provider ProviderClient) *Service {
	return NewService(NewRepository(db), provider)
}

// VerifyCheckout resolves a checkout reference against the provider. Only an
// entitling provider status activates the local record; anything else leaves
// existing state untouched and surfaces the raw status for diagnostics.
func (s *Service) VerifyCheckout(ctx context.Context, userID, reference string) (*EntitlementResult, error) {
	uid := strings.TrimSpace(userID)
	ref := strings.TrimSpace(reference)
	if uid == "" || ref == "" {
		return nil, errors.New("user_id and reference are required")
	}
	if s.provider == nil || !s.provider.IsConfigured() {
		return nil, fmt.Errorf("%w: checkout verification needs provider credentials", ErrProviderMisconfigured)
	}

	snap, err := s.provider.FetchSubscription(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !isEntitlingProviderStatus(snap.Status) {
		return &EntitlementResult{
			Subscribed:     false,
			ProviderStatus: snap.Status,
			Message:        "payment not completed, provider status: " + snap.Status,
		}, nil
	}

	subscriptionID := snap.ID
	if subscriptionID == "" {
		subscriptionID = ref
	}
	sub := &models.Subscription{
		UserID:                 uid,
		ProviderSubscriptionID: subscriptionID,
		ProviderCustomerID:     snap.CustomerID,
		Status:                 models.SubscriptionStatusActive,
		ProviderStatus:         snap.Status,
		IsDevMode:              false,
	}
	if err := s.repo.Upsert(sub); err != nil {
		return nil, err
	}

	return &EntitlementResult{
		Subscribed:     true,
		ProviderStatus: snap.Status,
		Message:        "subscription active",
	}, nil
}

type webhookEnvelope struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID                 string `json:"id"`
		Status             string `json:"status"`
		CustomID           string `json:"custom_id"`
		BillingAgreementID string `json:"billing_agreement_id"`
		Subscriber         struct {
			PayerID string `json:"payer_id"`
		} `json:"subscriber"`
	} `json:"resource"`
}

// subscriptionID returns the resource's subscription reference. Sale events
// carry it as billing_agreement_id rather than the resource id.
func (e *webhookEnvelope) subscriptionID() string {
	if id := strings.TrimSpace(e.Resource.BillingAgreementID); id != "" {
		return id
	}
	return strings.TrimSpace(e.Resource.ID)
}

// ApplyWebhookEvent applies one provider-pushed event. Delivery is
// at-least-once, so the whole path is idempotent: re-applying an identical
// payload leaves the store in the same end state. Events that reference
// nothing we know are acknowledged as no-ops; only an unparsable payload is
// an error.
func (s *Service) ApplyWebhookEvent(ctx context.Context, payload []byte) (*WebhookOutcome, error) {
	_ = ctx
	var event webhookEnvelope
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	eventType := strings.TrimSpace(event.EventType)
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event_type", ErrMalformedEvent)
	}

	switch eventAction(eventType) {
	case eventActionActivate:
		return s.applyActivation(eventType, &event)
	case eventActionCancel:
		return s.applyStatusByProviderID(eventType, event.subscriptionID(), models.SubscriptionStatusCancelled, event.Resource.Status)
	case eventActionSuspend:
		return s.applyStatusByProviderID(eventType, event.subscriptionID(), models.SubscriptionStatusSuspended, event.Resource.Status)
	default:
		return &WebhookOutcome{EventType: eventType, Ignored: true, Detail: "unrecognized event type"}, nil
	}
}

func (s *Service) applyActivation(eventType string, event *webhookEnvelope) (*WebhookOutcome, error) {
	userID := strings.TrimSpace(event.Resource.CustomID)
	subscriptionID := event.subscriptionID()

	// An active record must always point at its provider subscription, so an
	// activation without one cannot be applied.
	if subscriptionID == "" {
		return &WebhookOutcome{EventType: eventType, Ignored: true, Detail: "event carries no subscription id"}, nil
	}

	if userID == "" {
		// No user attribution in the payload. If the subscription is already
		// known locally the activation still applies to that record.
		existing, err := s.findByProviderID(subscriptionID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return &WebhookOutcome{EventType: eventType, Ignored: true, Detail: "event references no known user or subscription"}, nil
		}
		userID = existing.UserID
	}

	sub := &models.Subscription{
		UserID:                 userID,
		ProviderSubscriptionID: subscriptionID,
		ProviderCustomerID:     strings.TrimSpace(event.Resource.Subscriber.PayerID),
		Status:                 models.SubscriptionStatusActive,
		ProviderStatus:         strings.TrimSpace(event.Resource.Status),
		IsDevMode:              false,
	}
	if err := s.repo.Upsert(sub); err != nil {
		return nil, err
	}
	return &WebhookOutcome{EventType: eventType, Applied: true, Detail: "subscription activated", UserID: userID}, nil
}

// applyStatusByProviderID downgrades the record matching a provider
// subscription id. Lookup is deliberately keyed on the provider id, not the
// user: a stale cancellation for an old subscription must not touch a newer
// one the user re-subscribed under.
func (s *Service) applyStatusByProviderID(eventType, subscriptionID, status, providerStatus string) (*WebhookOutcome, error) {
	if subscriptionID == "" {
		return &WebhookOutcome{EventType: eventType, Ignored: true, Detail: "event carries no subscription id"}, nil
	}

	existing, err := s.findByProviderID(subscriptionID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &WebhookOutcome{EventType: eventType, Ignored: true, Detail: "no local record for subscription " + subscriptionID}, nil
	}

	existing.Status = status
	if ps := strings.TrimSpace(providerStatus); ps != "" {
		existing.ProviderStatus = ps
	}
	if err := s.repo.Upsert(existing); err != nil {
		return nil, err
	}
	return &WebhookOutcome{EventType: eventType, Applied: true, Detail: "subscription marked " + status, UserID: existing.UserID}, nil
}

// CancelSubscription cancels for a user. Upstream cancellation must succeed
// before the local record flips; only a record without an upstream id (dev
// mode) cancels locally. A record with a real upstream id but no usable
// provider is an error, because flipping it locally would leave the
// provider-side subscription running. A missing record is a normal outcome,
// not an error.
func (s *Service) CancelSubscription(ctx context.Context, userID string) (*CancelResult, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("user_id is required")
	}

	sub, err := s.repo.FindByUser(uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CancelResult{Cancelled: false, Message: "no subscription to cancel"}, nil
		}
		return nil, err
	}

	if sub.ProviderSubscriptionID != "" && !sub.IsDevMode {
		if s.provider == nil || !s.provider.IsConfigured() {
			return nil, fmt.Errorf("%w: cannot cancel upstream subscription %s without provider credentials", ErrProviderMisconfigured, sub.ProviderSubscriptionID)
		}
		if err := s.provider.CancelSubscription(ctx, sub.ProviderSubscriptionID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderCancelFailed, err)
		}
	}

	sub.Status = models.SubscriptionStatusCancelled
	if err := s.repo.Upsert(sub); err != nil {
		return nil, err
	}
	return &CancelResult{Cancelled: true, Message: "subscription cancelled"}, nil
}

// ActivateDevBypass marks a user entitled without a real payment. The
// synthetic provider id is derived from the user id, so repeated calls are
// idempotent. Routing must gate this path to development deployments.
func (s *Service) ActivateDevBypass(ctx context.Context, userID string) (*EntitlementResult, error) {
	_ = ctx
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("user_id is required")
	}

	sub := &models.Subscription{
		UserID:                 uid,
		ProviderSubscriptionID: DevSubscriptionPrefix + uid,
		Status:                 models.SubscriptionStatusActive,
		ProviderStatus:         "dev",
		IsDevMode:              true,
	}
	if err := s.repo.Upsert(sub); err != nil {
		return nil, err
	}
	return &EntitlementResult{Subscribed: true, ProviderStatus: "dev", Message: "dev subscription active"}, nil
}

// IsEntitled is the read-only entitlement projection: active status, or
// false when no record exists.
func (s *Service) IsEntitled(ctx context.Context, userID string) (bool, error) {
	_ = ctx
	sub, err := s.repo.FindByUser(strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return sub.IsEntitled(), nil
}

// StatusForUser returns the full entitlement projection for the status
// endpoint. Users without a record read as inactive.
func (s *Service) StatusForUser(ctx context.Context, userID string) (*EntitlementStatus, error) {
	_ = ctx
	sub, err := s.repo.FindByUser(strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &EntitlementStatus{IsSubscribed: false, Status: models.SubscriptionStatusInactive}, nil
		}
		return nil, err
	}
	return &EntitlementStatus{
		IsSubscribed:   sub.IsEntitled(),
		Status:         sub.Status,
		SubscriptionID: sub.ProviderSubscriptionID,
	}, nil
}

func (s *Service) findByProviderID(subscriptionID string) (*models.Subscription, error) {
	if subscriptionID == "" {
		return nil, nil
	}
	sub, err := s.repo.FindByProviderSubscriptionID(subscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}
