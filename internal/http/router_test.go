package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-auth-service/internal/auth"
	"github.com/redmonkez12/go-auth-service/internal/config"
	"github.com/redmonkez12/go-auth-service/internal/logging"
	"github.com/redmonkez12/go-auth-service/internal/metrics"
	"github.com/redmonkez12/go-auth-service/internal/user"
)

// emptyStore has no users
type emptyStore struct{}

func (emptyStore) Create(context.Context, string, string) (*user.User, error) {
	return nil, user.ErrStoreUnavailable
}

func (emptyStore) GetByEmail(context.Context, string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (emptyStore) GetByID(context.Context, uuid.UUID) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (s emptyStore) RunInTx(ctx context.Context, fn func(context.Context, user.Store) error) error {
	return fn(ctx, s)
}

func newTestRouter(t *testing.T, env string) (http.Handler, auth.TokenService) {
	t.Helper()

	return newTestRouterWithConfig(t, &config.Config{
		Server: config.ServerConfig{
			Env:            env,
			TrustedOrigins: []string{"https://app.example.com"},
			MetricsEnabled: env == "dev",
		},
	})
}

func newTestRouterWithConfig(t *testing.T, cfg *config.Config) (http.Handler, auth.TokenService) {
	t.Helper()

	logger := logging.NewLoggerWithWriter(io.Discard, false)
	tokens, err := auth.NewJWTService([]byte("router-test-secret"), "HS256", time.Hour)
	require.NoError(t, err)

	hasher := auth.NewArgon2idHasher(auth.Argon2Params{Time: 1, MemoryKB: 8 * 1024, Threads: 1})
	service := auth.NewService(emptyStore{}, hasher, tokens, logger, time.Hour, 8)

	m := metrics.New()
	router := NewRouter(cfg, auth.NewHandler(service, m), auth.NewMiddleware(tokens), m, logger)
	return router, tokens
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	router, _ := newTestRouter(t, "dev")

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(router, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logout successful."}`, rec.Body.String())
}

func TestUnknownRoutesReturnJSON(t *testing.T) {
	router, _ := newTestRouter(t, "dev")

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found","code":"NOT_FOUND"}`, rec.Body.String())

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "METHOD_NOT_ALLOWED")
}

func TestAuthRoutesWired(t *testing.T) {
	router, tokens := newTestRouter(t, "dev")

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := tokens.CreateToken(uuid.NewString())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = serve(router, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "token for a user that does not exist")

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@example.com","password":"password123"}`))
	rec = serve(router, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	router, _ := newTestRouter(t, "dev")

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestCORS(t *testing.T) {
	router, _ := newTestRouter(t, "dev")

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(router, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = serve(router, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSOptionsWildcard(t *testing.T) {
	assert.False(t, corsOptions([]string{"*"}).AllowCredentials)
	assert.True(t, corsOptions([]string{"https://app.example.com"}).AllowCredentials)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, "dev")

	serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `authsvc_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestMetricsEndpointGating(t *testing.T) {
	prod, _ := newTestRouter(t, "production")
	rec := serve(prod, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	enabled, _ := newTestRouterWithConfig(t, &config.Config{
		Server: config.ServerConfig{Env: "production", MetricsEnabled: true},
	})
	rec = serve(enabled, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSwaggerOnlyInDevelopment(t *testing.T) {
	dev, _ := newTestRouter(t, "dev")
	rec := serve(dev, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	prod, _ := newTestRouter(t, "production")
	rec = serve(prod, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerShutdown(t *testing.T) {
	router, _ := newTestRouter(t, "dev")
	srv := NewServer("127.0.0.1:0", router, time.Second, time.Second, logging.NewLoggerWithWriter(io.Discard, false))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	require.NoError(t, <-done)
}
