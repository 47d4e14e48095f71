package router

import (
	"github.com/gofiber/fiber/v2"
)

// InstallRouter registers the ops routes first so /metrics and /healthz stay
// outside the API rate limiter.
func InstallRouter(app *fiber.App, ops *OpsRouter, api *ApiRouter) {
	setup(app, ops, api)
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
