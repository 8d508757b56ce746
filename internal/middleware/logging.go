package middleware

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ehdro06/EuroLoo/euroloo-go/pkg/hash"
)

// Logger is the package-level zerolog logger used throughout the application.
var Logger = zerolog.Nop()

// ipSalt is fixed per process so hashes correlate within one run only.
var ipSalt = time.Now().Format(time.RFC3339Nano)

// InitLogger sets up structured JSON output and installs it as the zerolog
// global, so packages logging through zerolog/log share the same sink.
// Level is parsed from the given string (e.g. "debug", "info", "warn", "error").
func InitLogger(level, service string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", service).
		Logger()
	log.Logger = Logger
}

// sanitizePath replaces dynamic path segments (toilet ids, external user ids)
// with placeholders so identifiers never end up in logs.
func sanitizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		switch parts[i-1] {
		case "toilets":
			if parts[i] != "hidden" && parts[i] != "" {
				parts[i] = ":id"
			}
		case "users":
			if parts[i] != "me" && parts[i] != "" {
				parts[i] = ":externalId"
			}
		case "toilet":
			if i >= 2 && parts[i-2] == "reviews" {
				// external ids may contain a slash (node/123)
				return strings.Join(append(parts[:i], ":externalId"), "/")
			}
		}
	}
	return strings.Join(parts, "/")
}

// NewRequestLogger returns a Fiber middleware that logs each request as
// structured JSON via zerolog. Raw IPs are hashed and dynamic path segments
// are sanitized.
func NewRequestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		evt := Logger.Info()
		if status >= 500 {
			evt = Logger.Error()
		} else if status >= 400 {
			evt = Logger.Warn()
		}

		evt.
			Str("method", c.Method()).
			Str("path", sanitizePath(c.Path())).
			Int("status", status).
			Dur("duration_ms", duration).
			Str("ip_hash", hash.IP(c.IP(), ipSalt)).
			Int("bytes_sent", len(c.Response().Body())).
			Msg("request")

		return err
	}
}
