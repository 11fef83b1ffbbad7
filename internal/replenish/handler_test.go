package replenish

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestHandlerReport(t *testing.T) {
	svc := NewService(stubRepo{})
	svc.now = func() time.Time { return now }
	router := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/replenishment?pending=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, 1, report.ToOrder)
	require.Len(t, report.Suggestions, 1)
	require.Equal(t, "p", report.Suggestions[0].ProductID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/replenishment?pending=maybe", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
