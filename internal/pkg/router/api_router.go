package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/palmmill/backoffice/app/controllers"
	"github.com/palmmill/backoffice/internal/pkg/middleware"
)

type ApiRouter struct {
	plans     *controllers.PlanController
	adminKey  string
	rateLimit int
	storage   fiber.Storage
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        h.rateLimit,
		Expiration: time.Minute,
		Storage:    h.storage,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	plans := v1.Group("/plans")
	plans.Post("/", h.plans.HandleCreate)
	plans.Get("/", h.plans.HandleList)
	// before /:id so "deleted" and "export" are not taken as an id
	plans.Get("/deleted", h.plans.HandleListDeleted)
	plans.Get("/export", h.plans.HandleExport)
	plans.Get("/:id", h.plans.HandleGet)
	plans.Put("/:id", h.plans.HandleUpdate)
	plans.Delete("/:id", h.plans.HandleDelete)
	plans.Post("/:id/restore", h.plans.HandleRestore)
	plans.Delete("/:id/purge", middleware.AdminKeyMiddleware(h.adminKey), h.plans.HandlePurge)
}

// NewApiRouter wires the plan routes. rateLimit is requests per minute per
// client; storage holds the limiter counters, nil keeps them in memory.
func NewApiRouter(plans *controllers.PlanController, adminKey string, rateLimit int, storage fiber.Storage) *ApiRouter {
	if rateLimit <= 0 {
		rateLimit = 120
	}
	return &ApiRouter{plans: plans, adminKey: adminKey, rateLimit: rateLimit, storage: storage}
}
