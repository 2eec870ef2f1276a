package get

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"booking-service/api"
	"booking-service/pkg/handlers/slogdiscard"
	"booking-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvaluator struct {
	gotDate, gotClock, gotID string
}

func (f *fakeEvaluator) EvaluatePolicy(_ context.Context, date, clock string) (*api.PolicyResponse, error) {
	f.gotDate, f.gotClock = date, clock
	return &api.PolicyResponse{CanCancel: true, CanReschedule: true, Window: "free", Currency: "EUR"}, nil
}

func (f *fakeEvaluator) EvaluateAppointmentPolicy(_ context.Context, id string) (*api.PolicyResponse, error) {
	f.gotID = id
	if id == "missing" {
		return nil, fmt.Errorf("service: %w", response.ErrNotFound)
	}
	return &api.PolicyResponse{CanCancel: true, CanReschedule: true, RequiresFee: true, FeeAmount: 5, Window: "fee", Currency: "EUR"}, nil
}

func router(ev PolicyEvaluator) http.Handler {
	h := New(slogdiscard.NewDiscardLogger(), ev)
	r := chi.NewRouter()
	r.Get("/policy", h)
	r.Get("/appointments/{id}/policy", h)
	return r
}

func do(t *testing.T, h http.Handler, target string) (int, Response) {
	t.Helper()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr.Code, resp
}

func TestGet_Preview(t *testing.T) {
	ev := &fakeEvaluator{}

	code, resp := do(t, router(ev), "/policy?date=2026-10-21&time=10:00")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2026-10-21", ev.gotDate)
	assert.Equal(t, "10:00", ev.gotClock)
	require.NotNil(t, resp.Policy)
	assert.Equal(t, "free", resp.Policy.Window)
}

func TestGet_PreviewRequiresDateAndTime(t *testing.T) {
	code, resp := do(t, router(&fakeEvaluator{}), "/policy?date=2026-10-21")

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(response.INVALID_INPUT), resp.Code)
}

func TestGet_Appointment(t *testing.T) {
	ev := &fakeEvaluator{}

	code, resp := do(t, router(ev), "/appointments/abc/policy")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "abc", ev.gotID)
	require.NotNil(t, resp.Policy)
	assert.True(t, resp.Policy.RequiresFee)
	assert.Equal(t, 5.0, resp.Policy.FeeAmount)
}

func TestGet_AppointmentNotFound(t *testing.T) {
	code, resp := do(t, router(&fakeEvaluator{}), "/appointments/missing/policy")

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, string(response.NOT_FOUND), resp.Code)
}
