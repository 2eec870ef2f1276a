package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booking-service/api"
	"booking-service/internal/models"
	"booking-service/pkg/handlers/slogdiscard"
	"booking-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpdater holds one appointment and applies the real transition table.
type fakeUpdater struct {
	current models.AppointmentStatus
}

func (f *fakeUpdater) UpdateAppointmentStatus(_ context.Context, id, status string) (*api.AppointmentResponse, error) {
	next := models.AppointmentStatus(status)
	if !next.Valid() {
		return nil, fmt.Errorf("service: %w", response.ErrInvalidInput)
	}
	if !f.current.CanTransitionTo(next) {
		return nil, fmt.Errorf("service: %w", response.ErrInvalidTransition)
	}
	f.current = next
	return &api.AppointmentResponse{ID: id, Status: status}, nil
}

func do(t *testing.T, u StatusUpdater, body string) (int, Response) {
	t.Helper()

	r := chi.NewRouter()
	r.Put("/appointments/{id}/status", New(slogdiscard.NewDiscardLogger(), u))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/appointments/a1/status", strings.NewReader(body)))

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr.Code, resp
}

func TestStatus_Lifecycle(t *testing.T) {
	u := &fakeUpdater{current: models.StatusPending}

	code, resp := do(t, u, `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Appointment)
	assert.Equal(t, "confirmed", resp.Appointment.Status)

	code, _ = do(t, u, `{"status":"done"}`)
	assert.Equal(t, http.StatusOK, code)

	code, resp = do(t, u, `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, string(response.INVALID_TRANSITION), resp.Code)
}

func TestStatus_UnknownStatus(t *testing.T) {
	code, resp := do(t, &fakeUpdater{current: models.StatusPending}, `{"status":"archived"}`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(response.INVALID_INPUT), resp.Code)
}
