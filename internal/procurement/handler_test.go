package procurement

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

func newHandlerFixture(t *testing.T) (*stubInventory, http.Handler) {
	t.Helper()
	_, inv, svc := newFixture()
	r := chi.NewRouter()
	NewHandler(nil, svc, auth.Middleware{}).MountRoutes(r)
	return inv, r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerPurchaseOrderFlow(t *testing.T) {
	inv, router := newHandlerFixture(t)

	rec := doJSON(t, router, http.MethodPost, "/purchase-orders",
		`{"supplier_id":"s1","fee_shipping":"6000","lines":[{"product_id":"p1","qty":6,"unit_cost":"40000"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var po PurchaseOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &po))
	require.Equal(t, "PO-0001", po.Number)

	rec = doJSON(t, router, http.MethodGet, "/purchase-orders/"+po.ID+"/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var preview Preview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	require.Equal(t, "Fournisseur Istanbul", preview.SupplierName)
	require.True(t, preview.Totals.Total.Equal(dec("246000")))

	rec = doJSON(t, router, http.MethodPost, "/purchase-orders/"+po.ID+"/order", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/purchase-orders/"+po.ID+"/receive", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, inv.products["p1"].CMP.Equal(dec("41500")))

	rec = doJSON(t, router, http.MethodPost, "/purchase-orders/"+po.ID+"/receive", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = doJSON(t, router, http.MethodPut, "/purchase-orders/"+po.ID,
		`{"supplier_id":"s1","lines":[{"product_id":"p1","qty":1,"unit_cost":"1"}]}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerPurchaseOrderErrors(t *testing.T) {
	_, router := newHandlerFixture(t)

	rec := doJSON(t, router, http.MethodGet, "/purchase-orders/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/purchase-orders", `{"supplier_id":"s1","lines":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/purchase-orders", `{"unknown":true}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
