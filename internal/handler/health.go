package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

// Version is reported by the readiness probe; set with -ldflags at build time.
var Version = "dev"

// Pinger is a store that can report its reachability: *pgxpool.Pool or
// *sqlitestore.Stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	driver  string
	rdb     *redis.Client
	startAt time.Time
}

// NewHealthHandler checks db under the given driver name. rdb may be nil when
// the memory cache backend is used.
func NewHealthHandler(db Pinger, driver string, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:      db,
		driver:  driver,
		rdb:     rdb,
		startAt: time.Now(),
	}
}

// Live handles GET /health/live (liveness probe).
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready (readiness probe with dependency checks).
// A disabled Redis is healthy; an unreachable one degrades the instance.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := make(fiber.Map)
	overallStatus := "healthy"

	// Database check
	checks["database"] = checkDB(ctx, h.db, h.driver)
	if dbCheck, ok := checks["database"].(fiber.Map); ok {
		if dbCheck["status"] != "up" {
			overallStatus = "degraded"
		}
	}

	// Redis check
	checks["redis"] = checkRedis(ctx, h.rdb)
	if redisCheck, ok := checks["redis"].(fiber.Map); ok {
		if redisCheck["status"] == "down" && overallStatus == "healthy" {
			overallStatus = "degraded"
		}
	}

	uptimeSeconds := int(time.Since(h.startAt).Seconds())

	resp := fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"uptime_seconds": uptimeSeconds,
		"version":        Version,
	}

	status := fiber.StatusOK
	if overallStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(resp)
}

func checkDB(ctx context.Context, db Pinger, driver string) fiber.Map {
	start := time.Now()
	err := db.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"driver":     driver,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"driver":     driver,
		"latency_ms": latency,
	}
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{
			"status": "disabled",
		}
	}

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}
