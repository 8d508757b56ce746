package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/cache"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/config"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/geo"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/handler"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/middleware"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/repository/sqlitestore"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/service"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/trust"
)

const secret = "router-test-secret"

type testServer struct {
	app    *fiber.App
	stores *sqlitestore.Stores
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	stores, err := sqlitestore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	qc := cache.NewMemory(100, time.Minute)
	verifier, err := middleware.NewVerifier(config.AuthConfig{JWTSecret: secret})
	require.NoError(t, err)

	h := &Handlers{
		Toilet: handler.NewToiletHandler(service.NewToiletService(stores.Toilets, stores.Users, qc, service.ToiletOptions{})),
		Vote:   handler.NewVoteHandler(service.NewVoteService(stores.Votes, stores.Users, qc, trust.DefaultPolicy(), 0)),
		Review: handler.NewReviewHandler(service.NewReviewService(stores.Reviews, stores.Toilets, stores.Users, 0)),
		User:   handler.NewUserHandler(service.NewUserService(stores.Users, 0)),
		Health: handler.NewHealthHandler(stores, "sqlite", nil),
	}
	app := fiber.New()
	stop := Setup(app, h, verifier, "*")
	t.Cleanup(stop)
	return &testServer{app: app, stores: stores}
}

func token(t *testing.T, sub string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Username: sub,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func (s *testServer) do(t *testing.T, method, path, user string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env.Error.Code
}

func submitBody(lat, lon, userLat, userLon float64) map[string]any {
	return map[string]any{"lat": lat, "lng": lon, "userLat": userLat, "userLng": userLon, "name": "WC", "fee": "no"}
}

const lat0, lon0 = 48.8566, 2.3522

func TestSearch_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		query string
		want  int
	}{
		{"", 400},
		{"?lat=48.85", 400},
		{"?lat=abc&lng=2", 400},
		{"?lat=95&lng=2", 400},
		{"?lat=48.85&lng=2.35&radius=-5", 400},
		{"?lat=48.85&lng=2.35&radius=60000", 400},
		{"?lat=48.85&lng=2.35&radius=10", 200},
		{"?lat=48.85&lng=2.35", 200},
	}
	for _, tt := range tests {
		resp, body := s.do(t, "GET", "/api/toilets"+tt.query, "", nil)
		assert.Equal(t, tt.want, resp.StatusCode, "%s: %s", tt.query, body)
	}
}

func TestSubmitAndSearch(t *testing.T) {
	s := newTestServer(t)
	userLat, userLon := geo.Destination(lat0, lon0, 90, 10)

	resp, body := s.do(t, "POST", "/api/toilets", "", submitBody(lat0, lon0, userLat, userLon))
	assert.Equal(t, 401, resp.StatusCode)

	resp, body = s.do(t, "POST", "/api/toilets", "alice", submitBody(lat0, lon0, userLat, userLon))
	require.Equal(t, 201, resp.StatusCode, string(body))
	var created model.Toilet
	require.NoError(t, json.Unmarshal(body, &created))
	assert.True(t, created.IsUserCreated)
	assert.True(t, created.IsFree)

	resp, body = s.do(t, "GET", fmt.Sprintf("/api/toilets?lat=%v&lng=%v", lat0, lon0), "", nil)
	require.Equal(t, 200, resp.StatusCode)
	var found []model.Toilet
	require.NoError(t, json.Unmarshal(body, &found))
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	nearLat, nearLon := geo.Destination(lat0, lon0, 0, 5)
	resp, body = s.do(t, "POST", "/api/toilets", "bob", submitBody(nearLat, nearLon, nearLat, nearLon))
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "ALREADY_EXISTS", errorCode(t, body))

	farLat, farLon := geo.Destination(lat0, lon0, 0, 1000)
	resp, body = s.do(t, "POST", "/api/toilets", "bob", submitBody(farLat, farLon, lat0, lon0))
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "TOO_FAR", errorCode(t, body))

	resp, body = s.do(t, "POST", "/api/toilets", "bob", map[string]any{"lat": 1})
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "INVALID_FIELD", errorCode(t, body))
}

func seed(t *testing.T, s *testServer) *model.Toilet {
	t.Helper()
	toilet, err := s.stores.Toilets.Insert(context.Background(), model.NewToilet{ExternalID: "node/1", Lat: lat0, Lon: lon0})
	require.NoError(t, err)
	return toilet
}

func TestVotesAndModeration(t *testing.T) {
	s := newTestServer(t)
	toilet := seed(t, s)
	reportPath := fmt.Sprintf("/api/toilets/%d/report", toilet.ID)

	resp, _ := s.do(t, "POST", fmt.Sprintf("/api/toilets/%d/verify", toilet.ID), "v1", nil)
	assert.Equal(t, 200, resp.StatusCode)
	resp, body := s.do(t, "POST", fmt.Sprintf("/api/toilets/%d/verify", toilet.ID), "v1", nil)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "ALREADY_VOTED", errorCode(t, body))

	// hidden once reports reach verifies + 3
	var last model.Toilet
	for i := 0; i < 4; i++ {
		resp, body = s.do(t, "POST", reportPath, fmt.Sprintf("r%d", i), nil)
		require.Equal(t, 200, resp.StatusCode, string(body))
		require.NoError(t, json.Unmarshal(body, &last))
	}
	assert.True(t, last.IsHidden)

	resp, _ = s.do(t, "POST", reportPath, "r9", nil)
	assert.Equal(t, 404, resp.StatusCode)
	resp, _ = s.do(t, "POST", "/api/toilets/abc/report", "r9", nil)
	assert.Equal(t, 400, resp.StatusCode)

	resp, body = s.do(t, "GET", fmt.Sprintf("/api/toilets?lat=%v&lng=%v", lat0, lon0), "", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))

	resp, _ = s.do(t, "GET", "/api/toilets/hidden", "r1", nil)
	assert.Equal(t, 403, resp.StatusCode)
	resp, _ = s.do(t, "GET", "/api/toilets/hidden", "", nil)
	assert.Equal(t, 401, resp.StatusCode)

	ctx := context.Background()
	_, err := s.stores.Users.Upsert(ctx, model.Identity{ExternalID: "root"})
	require.NoError(t, err)
	_, err = s.stores.Users.SetRole(ctx, "root", domain.RoleAdmin)
	require.NoError(t, err)

	resp, body = s.do(t, "GET", "/api/toilets/hidden", "root", nil)
	require.Equal(t, 200, resp.StatusCode)
	var hidden []model.Toilet
	require.NoError(t, json.Unmarshal(body, &hidden))
	assert.Len(t, hidden, 1)

	resp, body = s.do(t, "POST", fmt.Sprintf("/api/toilets/%d/restore", toilet.ID), "root", nil)
	require.Equal(t, 200, resp.StatusCode, string(body))
	var restored model.Toilet
	require.NoError(t, json.Unmarshal(body, &restored))
	assert.False(t, restored.IsHidden)
	assert.Zero(t, restored.ReportCount)

	resp, body = s.do(t, "GET", "/api/debug/cache", "root", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), `"backend":"memory"`)

	resp, _ = s.do(t, "DELETE", fmt.Sprintf("/api/toilets/%d", toilet.ID), "root", nil)
	assert.Equal(t, 204, resp.StatusCode)
	resp, _ = s.do(t, "DELETE", fmt.Sprintf("/api/toilets/%d", toilet.ID), "root", nil)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestReviews(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	resp, body := s.do(t, "POST", "/api/reviews", "", map[string]any{"externalId": "node/1", "content": "clean", "rating": 4})
	require.Equal(t, 201, resp.StatusCode, string(body))

	resp, _ = s.do(t, "POST", "/api/reviews", "carol", map[string]any{"externalId": "node/1", "content": "ok", "rating": 6})
	assert.Equal(t, 400, resp.StatusCode)

	resp, _ = s.do(t, "POST", "/api/reviews", "", map[string]any{"externalId": "node/2", "content": "?", "rating": 3})
	assert.Equal(t, 404, resp.StatusCode)

	resp, body = s.do(t, "GET", "/api/reviews/toilet/node/1", "", nil)
	require.Equal(t, 200, resp.StatusCode, string(body))
	var reviews []model.Review
	require.NoError(t, json.Unmarshal(body, &reviews))
	assert.Len(t, reviews, 1)

	resp, _ = s.do(t, "GET", "/api/reviews/toilet/node%2F1", "", nil)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestUsers(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, "GET", "/api/users/me", "dave", nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), `"role":"USER"`)

	resp, _ = s.do(t, "POST", "/api/users/dave/role", "dave", map[string]any{"role": "ADMIN"})
	assert.Equal(t, 403, resp.StatusCode)

	ctx := context.Background()
	_, err := s.stores.Users.Upsert(ctx, model.Identity{ExternalID: "root"})
	require.NoError(t, err)
	_, err = s.stores.Users.SetRole(ctx, "root", domain.RoleAdmin)
	require.NoError(t, err)

	resp, body = s.do(t, "POST", "/api/users/dave/role", "root", map[string]any{"role": "admin"})
	require.Equal(t, 200, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"role":"ADMIN"`)

	resp, _ = s.do(t, "POST", "/api/users/dave/role", "root", map[string]any{"role": "OWNER"})
	assert.Equal(t, 400, resp.StatusCode)

	resp, _ = s.do(t, "GET", "/api/users", "root", nil)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, "GET", "/health/live", "", nil)
	assert.Equal(t, 200, resp.StatusCode)

	resp, body := s.do(t, "GET", "/health/ready", "", nil)
	assert.Equal(t, 200, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"redis":{"status":"disabled"}`)
}
