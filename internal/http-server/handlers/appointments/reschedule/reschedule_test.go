package reschedule

import (
	"bytes"
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

type reschedulerFunc func(ctx context.Context, id string, req *api.AppointmentRescheduleRequest) (*api.AppointmentRescheduleResponse, error)

func (f reschedulerFunc) RescheduleAppointment(ctx context.Context, id string, req *api.AppointmentRescheduleRequest) (*api.AppointmentRescheduleResponse, error) {
	return f(ctx, id, req)
}

func do(t *testing.T, rs AppointmentRescheduler, body string) (int, Response) {
	t.Helper()

	r := chi.NewRouter()
	r.Post("/appointments/{id}/reschedule", New(slogdiscard.NewDiscardLogger(), rs))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/appointments/a1/reschedule", bytes.NewBufferString(body)))

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr.Code, resp
}

func TestReschedule_Created(t *testing.T) {
	from := "a1"
	rs := reschedulerFunc(func(_ context.Context, id string, req *api.AppointmentRescheduleRequest) (*api.AppointmentRescheduleResponse, error) {
		return &api.AppointmentRescheduleResponse{
			Previous:    api.AppointmentResponse{ID: id, Status: "cancelled_reschedule"},
			Appointment: api.AppointmentResponse{ID: "a2", Date: req.Date, Timeslot: req.Timeslot, Status: "pending", RescheduledFrom: &from, RescheduleFee: 5},
		}, nil
	})

	code, resp := do(t, rs, `{"date":"2026-10-22","timeslot":"14:00"}`)

	assert.Equal(t, http.StatusCreated, code)
	require.NotNil(t, resp.AppointmentRescheduleResponse)
	assert.Equal(t, "cancelled_reschedule", resp.Previous.Status)
	assert.Equal(t, "a2", resp.Appointment.ID)
	assert.Equal(t, 5.0, resp.Appointment.RescheduleFee)
}

func TestReschedule_MissingFields(t *testing.T) {
	code, resp := do(t, reschedulerFunc(func(context.Context, string, *api.AppointmentRescheduleRequest) (*api.AppointmentRescheduleResponse, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}), `{"date":"2026-10-22"}`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(response.INVALID_INPUT), resp.Code)
}

func TestReschedule_Errors(t *testing.T) {
	cases := []struct {
		err      error
		wantCode int
		wantErr  response.ErrCode
	}{
		{response.ErrNotFound, http.StatusNotFound, response.NOT_FOUND},
		{response.ErrInvalidInput, http.StatusBadRequest, response.INVALID_INPUT},
		{response.ErrPolicyViolation, http.StatusConflict, response.POLICY_VIOLATION},
		{response.ErrInvalidTransition, http.StatusConflict, response.INVALID_TRANSITION},
		{response.ErrLocked, http.StatusLocked, response.LOCKED},
		{response.ErrSlotNotAvailable, http.StatusConflict, response.SLOT_NOT_AVAILABLE},
		{response.ErrUnavailable, http.StatusServiceUnavailable, response.AVAILABILITY_UNCONFIRMED},
	}

	for _, tc := range cases {
		rs := reschedulerFunc(func(context.Context, string, *api.AppointmentRescheduleRequest) (*api.AppointmentRescheduleResponse, error) {
			return nil, fmt.Errorf("service: %w", tc.err)
		})

		code, resp := do(t, rs, `{"date":"2026-10-22","timeslot":"14:00"}`)
		assert.Equal(t, tc.wantCode, code, tc.err.Error())
		assert.Equal(t, string(tc.wantErr), resp.Code)
	}
}
