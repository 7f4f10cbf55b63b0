package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/spectrahq/ghosthunter/app/controllers"
	"github.com/spectrahq/ghosthunter/internal/pkg/cache"
	"github.com/spectrahq/ghosthunter/internal/pkg/env"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Storage:    limiterStorage(),
	}))

	// investigation sessions
	api.Post("/sessions", controllers.HandleCreateSession)
	api.Get("/sessions", controllers.HandleListSessions)
	api.Get("/sessions/:session_id", controllers.HandleGetSession)
	api.Delete("/sessions/:session_id", controllers.HandleDeleteSession)

	// recordings
	api.Post("/recordings", controllers.HandleCreateRecording)
	api.Get("/recordings/:session_id", controllers.HandleListRecordings)

	// AI endpoints
	api.Post("/transcribe", controllers.HandleTranscribe)
	api.Post("/analyze-evp", controllers.HandleAnalyzeEVP)
	api.Get("/evp-analyses/:recording_id", controllers.HandleGetEVPAnalysis)

	// subscriptions
	api.Get("/subscription/status/:user_id", controllers.HandleSubscriptionStatus)
	api.Post("/subscription/checkout", controllers.HandleCreateCheckout)
	api.Post("/subscription/verify", controllers.HandleVerifyCheckout)
	api.Post("/subscription/cancel", controllers.HandleCancelSubscription)
	if env.IsDev() {
		api.Post("/subscription/dev-activate", controllers.HandleDevActivate)
	}

	// provider push channel, outside the subscription group on purpose so a
	// provider retry storm is rate-limited like everything else but keeps
	// its own path shape
	api.Post("/webhooks/paypal", controllers.HandlePayPalWebhook)
}

// limiterStorage backs the rate limiter with Redis so limits hold across
// replicas. Falls back to the in-memory default when no cache is configured.
func limiterStorage() fiber.Storage {
	cacheClient := cache.GetClient()
	if cacheClient == nil {
		return nil
	}

	host := "localhost"
	port := 6379
	if h, p, err := net.SplitHostPort(cacheClient.Options().Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	// cache uses DB 0, limiter counters live in DB 1
	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: cacheClient.Options().Password,
		Database: 1,
		Reset:    false,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
