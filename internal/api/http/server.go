package http

import "github.com/gofiber/fiber/v2"

// FiberConfig is the server configuration the access gate relies on: routes match the
// request path exactly as the gate classifies it, so /ADMIN/x or /admin/x/ never reach a
// handler registered for /admin/x.
func FiberConfig(appName string) fiber.Config {
	return fiber.Config{
		AppName:       appName,
		CaseSensitive: true,
		StrictRouting: true,
	}
}
