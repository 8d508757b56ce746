package middleware

import (
	"crypto/rsa"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/config"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
)

const identityKey = "identity"

var errInvalidToken = errors.New("invalid or expired token")

// Claims are the bearer token fields read by the API. The subject is the
// identity provider's user id and becomes users.external_id.
type Claims struct {
	Email             string `json:"email,omitempty"`
	Username          string `json:"username,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens signed with an HS256 secret or an RSA key.
type Verifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
	issuer    string
}

// NewVerifier builds a Verifier from config. An RSA public key takes
// precedence over the shared secret when both are set.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	v := &Verifier{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
	if cfg.PublicKeyPEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, eris.Wrap(err, "parse auth public key")
		}
		v.publicKey = key
		v.secret = nil
	}
	if v.publicKey == nil && len(v.secret) == 0 {
		return nil, eris.New("auth: a JWT secret or public key is required")
	}
	return v, nil
}

// Parse validates the token and returns the caller's identity.
func (v *Verifier) Parse(token string) (model.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.publicKey != nil {
		opts = append(opts, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))
	} else {
		opts = append(opts, jwt.WithValidMethods([]string{"HS256"}))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		if v.publicKey != nil {
			return v.publicKey, nil
		}
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return model.Identity{}, errInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return model.Identity{}, errInvalidToken
	}

	username := claims.Username
	if username == "" {
		username = claims.PreferredUsername
	}
	return model.Identity{
		ExternalID: claims.Subject,
		Email:      claims.Email,
		Username:   username,
	}, nil
}

func bearerToken(c fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", true
	}
	return strings.TrimSpace(token), true
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(v *Verifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		token, present := bearerToken(c)
		if !present {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header")
		}
		id, err := v.Parse(token)
		if err != nil {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

// OptionalAuth attaches the identity when a token is sent. A malformed or
// expired token is still rejected rather than silently ignored.
func OptionalAuth(v *Verifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		token, present := bearerToken(c)
		if !present {
			return c.Next()
		}
		id, err := v.Parse(token)
		if err != nil {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		}
		c.Locals(identityKey, id)
		return c.Next()
	}
}

// IdentityFrom returns the caller attached by RequireAuth or OptionalAuth.
func IdentityFrom(c fiber.Ctx) (model.Identity, bool) {
	id, ok := c.Locals(identityKey).(model.Identity)
	return id, ok && id.ExternalID != ""
}
