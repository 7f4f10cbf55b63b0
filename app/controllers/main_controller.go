package controllers

import "github.com/gofiber/fiber/v2"

// HandleRoot answers the banner the mobile app pings on startup.
func HandleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Ghost Hunting API",
		"status":  "active",
	})
}
