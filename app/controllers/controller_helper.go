package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/spectrahq/ghosthunter/internal/pkg/billing"
	"github.com/spectrahq/ghosthunter/internal/pkg/cache"
	"github.com/spectrahq/ghosthunter/internal/pkg/entitlements"
)

const (
	userIDHeader        = "X-User-ID"
	entitlementCacheTTL = time.Minute
)

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": code, "message": message})
}

// requestUserID pulls the caller's user id from the header the app sends, or
// falls back to an explicit body/query value handled by the caller.
func requestUserID(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get(userIDHeader))
}

// planForUser resolves a user's plan via the entitlement query, short-lived
// cached so AI endpoints do not hit the database on every clip. Unknown or
// absent users read as free.
func planForUser(ctx context.Context, svc *billing.Service, userID string) entitlements.Plan {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return entitlements.PlanFree
	}

	cacheKey := "entitlement:" + uid
	if cached, err := cache.Get(cacheKey); err == nil {
		return entitlements.Plan(cached)
	}

	entitled, err := svc.IsEntitled(ctx, uid)
	if err != nil {
		log.Warnf("entitlement lookup failed for user %s: %v", uid, err)
		return entitlements.PlanFree
	}

	plan := entitlements.PlanFree
	if entitled {
		plan = entitlements.PlanPro
	}
	if err := cache.Set(cacheKey, string(plan), entitlementCacheTTL); err != nil {
		log.Warnf("entitlement cache write failed for user %s: %v", uid, err)
	}
	return plan
}

// invalidatePlanCache is swapped out by tests to observe invalidations.
var invalidatePlanCache = invalidateEntitlementCache

// invalidateEntitlementCache drops the cached plan after a subscription
// mutation so gating reflects the new state immediately.
func invalidateEntitlementCache(userID string) {
	if uid := strings.TrimSpace(userID); uid != "" {
		if err := cache.Delete("entitlement:" + uid); err != nil {
			log.Warnf("entitlement cache invalidation failed for user %s: %v", uid, err)
		}
	}
}
