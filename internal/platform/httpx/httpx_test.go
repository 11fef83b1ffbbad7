package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("conflict")

func TestResponderMapsWrappedErrors(t *testing.T) {
	rs := NewResponder(nil, Mapping{Err: errConflict, Status: http.StatusConflict, Title: "Conflict"})
	req := httptest.NewRequest(http.MethodPost, "/x", nil)

	rec := httptest.NewRecorder()
	rs.Error(rec, req, fmt.Errorf("receive PO-0001: %w", errConflict))
	require.Equal(t, http.StatusConflict, rec.Code)
	var pd ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
	require.Equal(t, "Conflict", pd.Title)
	require.Contains(t, pd.Detail, "PO-0001")

	rec = httptest.NewRecorder()
	rs.Error(rec, req, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "boom")
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &v))
	require.Equal(t, "a", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nom":"a"}`))
	require.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &v), ErrBadRequest)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a"} {}`))
	require.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &v), ErrBadRequest)
}
