package masterdata

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ambrevelours/av-suite/internal/auth"
)

func TestHandlerProducts(t *testing.T) {
	repo := newMemoryRepo()
	opening := &openingRecorder{repo: repo}
	hash, err := auth.HashToken("tok")
	require.NoError(t, err)
	router := chi.NewRouter()
	NewHandler(nil, NewService(repo, opening, nil), auth.Middleware{Hash: hash}).MountRoutes(router)

	body := `{"sku":"XJ-EP-100","name":"Xerjoff Erba Pura 100ml","price_retail":"140000","stock":4,"cmp":"70000"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	require.Equal(t, 4, p.Stock)
	require.Equal(t, 1, opening.calls)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/"+p.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerSettings(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(nil, NewService(newMemoryRepo(), nil, nil), auth.Middleware{}).MountRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/settings",
		strings.NewReader(`{"tva":"0.18","service_level_z":2.33,"reorder_window_days":90,"holding_rate":0.2}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var s Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	require.Equal(t, 90, s.ReorderWindowDays)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"reorder_window_days":0}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
