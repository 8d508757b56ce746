package middleware

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/text/unicode/norm"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

// Field length limits matching database schema constraints.
const (
	MaxExternalIDLen   = 255  // toilets.external_id, users.external_id
	MaxNameLen         = 255  // toilets.name
	MaxOperatorLen     = 255  // toilets.operator
	MaxFeeLen          = 64   // toilets.fee
	MaxOpeningHoursLen = 255  // toilets.opening_hours
	MaxWheelchairLen   = 32   // toilets.wheelchair
	MaxReviewLen       = 2000 // reviews.content
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// NormalizeText trims, NFC-normalizes and truncates free text to maxRunes.
func NormalizeText(s string, maxRunes int) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		s = string([]rune(s)[:maxRunes])
	}
	return s
}

// ParseCoordinate parses a decimal degree query value within [-limit, limit].
func ParseCoordinate(name, raw string, limit float64) (float64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, name + " is required"
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, name + " must be a number"
	}
	if v < -limit || v > limit {
		return 0, fmt.Sprintf("%s must be between %g and %g", name, -limit, limit)
	}
	return v, ""
}

// ParseRadius parses the optional radius query value in meters. Range
// checks against the configured maximum happen in the service.
func ParseRadius(raw string) (*float64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, "radius must be a number"
	}
	if v < 0 {
		return nil, "radius must not be negative"
	}
	return &v, ""
}

// ParseToiletID parses the numeric :id path parameter.
func ParseToiletID(raw string) (int64, string) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, "id must be a positive integer"
	}
	return id, ""
}

// ValidateExternalID checks an OSM-style or provider-issued external id.
func ValidateExternalID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "externalId is required"
	}
	if len(id) > MaxExternalIDLen {
		return "", fmt.Sprintf("externalId must be at most %d characters", MaxExternalIDLen)
	}
	if strings.IndexFunc(id, unicode.IsControl) >= 0 {
		return "", "externalId contains invalid characters"
	}
	return id, ""
}

// ValidateSubmitRequest checks presence and range of the coordinates and
// normalizes the descriptive fields.
func ValidateSubmitRequest(req model.SubmitToiletRequest) (model.SubmitToiletInput, string) {
	if req.Lat == nil || req.Lng == nil {
		return model.SubmitToiletInput{}, "lat and lng are required"
	}
	if req.UserLat == nil || req.UserLng == nil {
		return model.SubmitToiletInput{}, "userLat and userLng are required"
	}
	for _, c := range []struct {
		name  string
		v     float64
		limit float64
	}{
		{"lat", *req.Lat, 90}, {"lng", *req.Lng, 180},
		{"userLat", *req.UserLat, 90}, {"userLng", *req.UserLng, 180},
	} {
		if math.IsNaN(c.v) || c.v < -c.limit || c.v > c.limit {
			return model.SubmitToiletInput{}, fmt.Sprintf("%s must be between %g and %g", c.name, -c.limit, c.limit)
		}
	}

	return model.SubmitToiletInput{
		Lat:          *req.Lat,
		Lon:          *req.Lng,
		UserLat:      *req.UserLat,
		UserLon:      *req.UserLng,
		Name:         NormalizeText(req.Name, MaxNameLen),
		Operator:     NormalizeText(req.Operator, MaxOperatorLen),
		Fee:          NormalizeText(req.Fee, MaxFeeLen),
		OpeningHours: NormalizeText(req.OpeningHours, MaxOpeningHoursLen),
		Wheelchair:   NormalizeText(req.Wheelchair, MaxWheelchairLen),
		IsFree:       req.IsFree,
		IsPaid:       req.IsPaid,
		IsAccessible: req.IsAccessible,
	}, ""
}
