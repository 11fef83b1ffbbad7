package returns

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ambrevelours/av-suite/internal/auth"
	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/masterdata"
)

func TestHandlerProcessReturn(t *testing.T) {
	repo := &memoryRepo{products: []masterdata.Product{{ID: "p1", Name: "OJAR"}}}
	inv := &recordingInventory{}
	router := chi.NewRouter()
	NewHandler(nil, NewService(repo, inv, nil), auth.Middleware{}).MountRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/returns", strings.NewReader(`{"product_id":"p1","qty":1,"restock":false}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, inv.adjustments, 1)
	require.Equal(t, inventory.RefWriteOff, inv.adjustments[0].Ref)
	require.Equal(t, -1, inv.adjustments[0].Qty)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/returns", strings.NewReader(`{"product_id":"p1","qty":0}`)))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Len(t, repo.returns, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/returns", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"product_name":"OJAR"`)
}
