package cancel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booking-service/api"
	"booking-service/pkg/handlers/slogdiscard"
	"booking-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCanceller struct {
	err    error
	reason string
}

func (f *fakeCanceller) CancelAppointment(_ context.Context, id, reason string) (*api.AppointmentResponse, error) {
	f.reason = reason
	if f.err != nil {
		return nil, fmt.Errorf("service: %w", f.err)
	}
	return &api.AppointmentResponse{ID: id, Status: "cancelled", CancelReason: reason}, nil
}

func do(t *testing.T, c AppointmentCanceller, body string) (int, Response) {
	t.Helper()

	r := chi.NewRouter()
	r.Put("/appointments/{id}/cancel", New(slogdiscard.NewDiscardLogger(), c))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/appointments/a1/cancel", strings.NewReader(body)))

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr.Code, resp
}

func TestCancel_WithReason(t *testing.T) {
	c := &fakeCanceller{}

	code, resp := do(t, c, `{"reason":"ill"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ill", c.reason)
	require.NotNil(t, resp.Appointment)
	assert.Equal(t, "cancelled", resp.Appointment.Status)
}

func TestCancel_EmptyBody(t *testing.T) {
	code, _ := do(t, &fakeCanceller{}, "")

	assert.Equal(t, http.StatusOK, code)
}

func TestCancel_Errors(t *testing.T) {
	cases := []struct {
		err      error
		wantCode int
		wantErr  response.ErrCode
	}{
		{response.ErrNotFound, http.StatusNotFound, response.NOT_FOUND},
		{response.ErrPolicyViolation, http.StatusConflict, response.POLICY_VIOLATION},
		{response.ErrInvalidTransition, http.StatusConflict, response.INVALID_TRANSITION},
		{fmt.Errorf("boom"), http.StatusInternalServerError, response.FAILED_REQUEST},
	}

	for _, tc := range cases {
		code, resp := do(t, &fakeCanceller{err: tc.err}, "")
		assert.Equal(t, tc.wantCode, code, tc.err.Error())
		assert.Equal(t, string(tc.wantErr), resp.Code)
	}
}
