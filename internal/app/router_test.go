package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/ambrevelours/av-suite/internal/auth"
	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/observability"
	"github.com/ambrevelours/av-suite/internal/store"
)

func newTestRouter(t *testing.T, cfg *Config) (http.Handler, *Services) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	res, err := OpenResources(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(res.Close)
	provider, err := NewProvider(ctx, cfg, res)
	require.NoError(t, err)
	s, err := store.Open(ctx, provider, store.WithLogger(logger))
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	svc := NewServices(s, cfg, logger, metrics, res.Redis)
	return NewRouter(NewHandlers(svc, cfg, logger, metrics)), svc
}

func do(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterServesSeededAPI(t *testing.T) {
	hash, err := auth.HashToken("secret")
	require.NoError(t, err)
	cfg := &Config{StoreDriver: DriverMemory, APITokenHash: hash, Currency: "FCFA"}
	router, _ := newTestRouter(t, cfg)

	rec := do(router, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = do(router, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var products []masterdata.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 2)

	rec = do(router, http.MethodGet, "/api/ledger/verify", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok":true`)

	body := `{"product_id":"` + store.SeedID("product", "p1") + `","qty":-1}`
	rec = do(router, http.MethodPost, "/api/adjustments", body, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(router, http.MethodPost, "/api/adjustments", body, "secret")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/replenishment", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "avsuite_stock_movements_total")
}

func TestRouterWithoutTokenHashLeavesWritesOpen(t *testing.T) {
	router, svc := newTestRouter(t, &Config{StoreDriver: DriverMemory})

	body := `{"sku":"XJ-EP-100","name":"Xerjoff Erba Pura 100ml","price_retail":"140000","stock":4,"cmp":"70000"}`
	rec := do(router, http.MethodPost, "/api/products", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	report, err := svc.Inventory.Verify(context.Background())
	require.NoError(t, err)
	require.True(t, report.OK())
}

func TestRouterRateLimit(t *testing.T) {
	router, _ := newTestRouter(t, &Config{StoreDriver: DriverMemory, RateLimit: 2})
	require.Equal(t, http.StatusOK, do(router, http.MethodGet, "/healthz", "", "").Code)
	require.Equal(t, http.StatusOK, do(router, http.MethodGet, "/healthz", "", "").Code)
	require.Equal(t, http.StatusTooManyRequests, do(router, http.MethodGet, "/healthz", "", "").Code)
}

func TestOpenResourcesRedisDriver(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &Config{StoreDriver: DriverRedis, RedisAddr: mr.Addr(), StoreKey: "av-suite:test"}
	router, svc := newTestRouter(t, cfg)
	require.NotNil(t, svc.Store)
	require.True(t, mr.Exists("av-suite:test"))

	rec := do(router, http.MethodGet, "/api/orders", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestOpenResourcesRedisRequired(t *testing.T) {
	_, err := OpenResources(context.Background(), &Config{StoreDriver: DriverRedis}, slog.Default())
	require.Error(t, err)
}
