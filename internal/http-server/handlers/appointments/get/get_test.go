package get

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"booking-service/api"
	"booking-service/internal/models"
	"booking-service/pkg/handlers/slogdiscard"
	"booking-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	filter models.AppointmentFilter
}

func (f *fakeGetter) GetAppointment(_ context.Context, id string) (*api.AppointmentResponse, error) {
	if id != "a1" {
		return nil, fmt.Errorf("service: %w", response.ErrNotFound)
	}
	return &api.AppointmentResponse{ID: "a1", Status: "pending"}, nil
}

func (f *fakeGetter) ListAppointments(_ context.Context, filter models.AppointmentFilter) ([]*api.AppointmentResponse, error) {
	f.filter = filter
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("service: %w", response.ErrInvalidInput)
	}
	return []*api.AppointmentResponse{{ID: "a1"}, {ID: "a2"}}, nil
}

func do(t *testing.T, g AppointmentGetter, target string) (int, Response) {
	t.Helper()

	h := New(slogdiscard.NewDiscardLogger(), g)
	r := chi.NewRouter()
	r.Get("/appointments", h)
	r.Get("/appointments/{id}", h)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr.Code, resp
}

func TestGet_ByID(t *testing.T) {
	code, resp := do(t, &fakeGetter{}, "/appointments/a1")

	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Appointment)
	assert.Equal(t, "a1", resp.Appointment.ID)
}

func TestGet_NotFound(t *testing.T) {
	code, resp := do(t, &fakeGetter{}, "/appointments/zzz")

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, string(response.NOT_FOUND), resp.Code)
}

func TestGet_ListPassesFilter(t *testing.T) {
	g := &fakeGetter{}

	code, resp := do(t, g, "/appointments?date=2026-10-21&user_id=u1&status=confirmed")

	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, resp.Appointments, 2)
	require.NotNil(t, g.filter.Date)
	assert.Equal(t, "2026-10-21", *g.filter.Date)
	require.NotNil(t, g.filter.UserID)
	assert.Equal(t, "u1", *g.filter.UserID)
	require.NotNil(t, g.filter.Status)
	assert.Equal(t, models.StatusConfirmed, *g.filter.Status)
}

func TestGet_ListInvalidStatus(t *testing.T) {
	code, resp := do(t, &fakeGetter{}, "/appointments?status=archived")

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(response.INVALID_INPUT), resp.Code)
}
