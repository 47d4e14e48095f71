package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/palmmill/backoffice/app/controllers"
	"github.com/palmmill/backoffice/app/repository"
	"github.com/palmmill/backoffice/internal/pkg/cache"
	"github.com/palmmill/backoffice/internal/pkg/database"
	"github.com/palmmill/backoffice/internal/pkg/env"
	"github.com/palmmill/backoffice/internal/pkg/ledger"
	"github.com/palmmill/backoffice/internal/pkg/metrics"
	"github.com/palmmill/backoffice/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	if env.IsDev() {
		fiberlog.SetLevel(fiberlog.LevelDebug)
	}
	database.SetupDatabase()

	repository.InitializeFactory(database.GetDB(), repository.Options{
		InspectionDB:    database.GetInspectionDB(),
		LookupBatchSize: env.GetEnvInt("LOOKUP_BATCH_SIZE", repository.DefaultLookupBatchSize),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	locker, shared := newLocker()
	svc := ledger.NewService(repository.GetGlobalRepositories(),
		ledger.WithLocker(locker),
		ledger.WithMetrics(metrics.New(reg)),
	)

	// Instances sharing the Redis lock also share rate limit counters (DB 1; the lock uses DB 0).
	var limiterStorage fiber.Storage
	if shared {
		limiterStorage = cache.NewFiberStorage(1)
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app,
		router.NewOpsRouter(reg, database.GetDB()),
		router.NewApiRouter(
			controllers.NewPlanController(svc),
			env.GetEnv("ADMIN_API_KEY", ""),
			env.GetEnvInt("API_RATE_LIMIT", 120),
			limiterStorage,
		),
	)

	return app
}

// newLocker picks the allocation lock from ALLOCATION_LOCK. shared reports
// whether several instances coordinate through Redis.
func newLocker() (locker ledger.Locker, shared bool) {
	switch mode := strings.ToLower(env.GetEnv("ALLOCATION_LOCK", "local")); mode {
	case "redis":
		fiberlog.Infof("Using Redis allocation lock")
		cache.SetupCache()
		return ledger.NewRedisLocker(cache.GetClient(), env.GetEnvDuration("ALLOCATION_LOCK_TTL", ledger.DefaultLockTTL)), true
	case "none":
		fiberlog.Warnf("Allocation lock disabled: concurrent creates may collide on ids")
		return ledger.NoopLocker{}, false
	case "local":
		return ledger.NewLocalLocker(), false
	default:
		fiberlog.Warnf("Unknown ALLOCATION_LOCK %q, using local", mode)
		return ledger.NewLocalLocker(), false
	}
}
