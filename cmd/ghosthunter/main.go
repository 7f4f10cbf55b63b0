package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/spectrahq/ghosthunter/app/controllers"
	"github.com/spectrahq/ghosthunter/internal/pkg/billing"
	"github.com/spectrahq/ghosthunter/internal/pkg/cache"
	"github.com/spectrahq/ghosthunter/internal/pkg/database"
	"github.com/spectrahq/ghosthunter/internal/pkg/env"
	"github.com/spectrahq/ghosthunter/internal/pkg/evp"
	"github.com/spectrahq/ghosthunter/internal/pkg/router"
	"github.com/spectrahq/ghosthunter/internal/pkg/speech"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "8000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	// Base64 audio payloads arrive inline, so the body limit has to cover
	// the largest pro-plan clip plus encoding overhead.
	app := fiber.New(fiber.Config{
		BodyLimit: 100 << 20,
	})

	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	if specPath := findOpenAPISpec(); specPath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: specPath,
			Path:     "v1",
		}))
	}

	// wire handler dependencies
	paypalClient := billing.NewPayPalClientFromEnv()
	billingService := billing.NewServiceFromDB(database.GetDB(), paypalClient)
	controllers.InitializeSubscriptionController(billingService, paypalClient)
	controllers.InitializeAnalysisController(speech.NewClientFromEnv(), evp.NewAnalyzerFromEnv())

	// ROUTER
	router.InstallRouter(app)

	return app
}

// findOpenAPISpec locates the bundled spec file relative to wherever the
// binary runs from.
func findOpenAPISpec() string {
	for _, base := range []string{"./", "../../", "../../../"} {
		path := base + "public/docs/v1/openapi.yml"
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
