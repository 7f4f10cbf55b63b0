package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/spectrahq/ghosthunter/internal/pkg/billing"
)

// Provider calls block on network I/O; cap them so a stuck provider cannot
// pin request handlers.
const providerCallTimeout = 20 * time.Second

var (
	billingService  *billing.Service
	billingProvider billing.ProviderClient
)

// InitializeSubscriptionController injects the reconciliation service and
// provider client. Tests substitute fakes here instead of touching global
// client state.
func InitializeSubscriptionController(svc *billing.Service, provider billing.ProviderClient) {
	billingService = svc
	billingProvider = provider
}

type subscriptionRequest struct {
	UserID    string `json:"user_id"`
	Reference string `json:"reference"`
}

// HandleSubscriptionStatus returns the entitlement projection for a user.
func HandleSubscriptionStatus(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	status, err := billingService.StatusForUser(c.Context(), userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load subscription status")
	}

	var subscriptionID interface{}
	if status.SubscriptionID != "" {
		subscriptionID = status.SubscriptionID
	}
	return c.JSON(fiber.Map{
		"is_subscribed":   status.IsSubscribed,
		"status":          status.Status,
		"subscription_id": subscriptionID,
	})
}

// HandleCreateCheckout starts a provider checkout. A missing provider
// configuration is an expected user-facing condition, not a transport error.
func HandleCreateCheckout(c *fiber.Ctx) error {
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "user_id is required")
	}

	if billingProvider == nil || !billingProvider.IsConfigured() {
		return c.JSON(fiber.Map{"success": false, "message": "Subscriptions are not available right now"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), providerCallTimeout)
	defer cancel()

	checkout, err := billingProvider.CreateCheckout(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, billing.ErrProviderMisconfigured) {
			return c.JSON(fiber.Map{"success": false, "message": "Subscriptions are not available right now"})
		}
		log.Errorf("checkout creation failed for user %s: %v", req.UserID, err)
		return jsonError(c, fiber.StatusBadGateway, "provider_unavailable", "Billing provider is unreachable, try again later")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"checkout_url": checkout.ApprovalURL,
		"reference":    checkout.Reference,
	})
}

// HandleVerifyCheckout resolves a checkout reference to an entitlement
// outcome.
func HandleVerifyCheckout(c *fiber.Ctx) error {
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" || req.Reference == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "user_id and reference are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), providerCallTimeout)
	defer cancel()

	result, err := billingService.VerifyCheckout(ctx, req.UserID, req.Reference)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrProviderMisconfigured):
			return jsonError(c, fiber.StatusServiceUnavailable, "provider_misconfigured", "Subscriptions are not configured on this deployment")
		case errors.Is(err, billing.ErrProviderUnavailable):
			return jsonError(c, fiber.StatusBadGateway, "provider_unavailable", "Billing provider is unreachable, try again later")
		default:
			log.Errorf("checkout verification failed for user %s: %v", req.UserID, err)
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Checkout verification failed")
		}
	}

	invalidatePlanCache(req.UserID)
	return c.JSON(fiber.Map{
		"is_subscribed": result.Subscribed,
		"message":       result.Message,
	})
}

// HandleCancelSubscription cancels for a user. Upstream refusal keeps local
// state so the user can retry.
func HandleCancelSubscription(c *fiber.Ctx) error {
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "user_id is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), providerCallTimeout)
	defer cancel()

	result, err := billingService.CancelSubscription(ctx, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrProviderCancelFailed):
			return jsonError(c, fiber.StatusBadGateway, "provider_cancel_failed", "The billing provider refused the cancellation, try again later")
		case errors.Is(err, billing.ErrProviderMisconfigured):
			return jsonError(c, fiber.StatusServiceUnavailable, "provider_misconfigured", "Subscriptions are not configured on this deployment")
		default:
			log.Errorf("cancellation failed for user %s: %v", req.UserID, err)
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Cancellation failed")
		}
	}

	invalidatePlanCache(req.UserID)
	return c.JSON(fiber.Map{
		"success": result.Cancelled,
		"message": result.Message,
	})
}

// HandlePayPalWebhook ingests provider-pushed events. Authenticity is
// checked against the provider's verification endpoint before anything is
// applied. The provider retries on failure, so everything that parsed is
// acknowledged with success even when it applies to nothing we know.
func HandlePayPalWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	sig := billing.WebhookSignature{
		TransmissionID:   c.Get("Paypal-Transmission-Id"),
		TransmissionTime: c.Get("Paypal-Transmission-Time"),
		TransmissionSig:  c.Get("Paypal-Transmission-Sig"),
		CertURL:          c.Get("Paypal-Cert-Url"),
		AuthAlgo:         c.Get("Paypal-Auth-Algo"),
	}
	verifyCtx, cancelVerify := context.WithTimeout(context.Background(), providerCallTimeout)
	defer cancelVerify()
	valid, err := billingProvider.VerifyWebhookSignature(verifyCtx, sig, rawBody)
	if err != nil {
		log.Errorf("webhook signature verification failed: %v", err)
		return jsonError(c, fiber.StatusBadGateway, "provider_unavailable", "Could not verify the webhook signature")
	}
	if !valid {
		log.Warnf("discarding webhook with invalid signature, transmission %s", sig.TransmissionID)
		return jsonError(c, fiber.StatusUnauthorized, "invalid_signature", "Webhook signature verification failed")
	}

	outcome, err := billingService.ApplyWebhookEvent(c.Context(), rawBody)
	if err != nil {
		if errors.Is(err, billing.ErrMalformedEvent) {
			log.Warnf("discarding malformed webhook payload: %v", err)
			return jsonError(c, fiber.StatusBadRequest, "malformed_event", "Payload is not a webhook event")
		}
		log.Errorf("webhook processing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Webhook processing failed")
	}

	if outcome.Ignored {
		log.Infof("webhook %s ignored: %s", outcome.EventType, outcome.Detail)
	}
	if outcome.Applied {
		invalidatePlanCache(outcome.UserID)
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleDevActivate is the development bypass. The route is only registered
// on dev deployments; see the router.
func HandleDevActivate(c *fiber.Ctx) error {
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "user_id is required")
	}

	if _, err := billingService.ActivateDevBypass(c.Context(), req.UserID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Dev activation failed")
	}

	invalidatePlanCache(req.UserID)
	return c.JSON(fiber.Map{"is_subscribed": true})
}
