package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// OpsRouter serves /metrics and /healthz.
type OpsRouter struct {
	gatherer prometheus.Gatherer
	db       *gorm.DB
}

func (h OpsRouter) InstallRouter(app *fiber.App) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if h.db != nil {
			sqlDB, err := h.db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.UserContext())
			}
			if err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "message": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

func NewOpsRouter(gatherer prometheus.Gatherer, db *gorm.DB) *OpsRouter {
	return &OpsRouter{gatherer: gatherer, db: db}
}
