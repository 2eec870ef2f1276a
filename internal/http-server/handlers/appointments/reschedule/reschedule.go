package reschedule

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"booking-service/api"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type AppointmentRescheduler interface {
	RescheduleAppointment(ctx context.Context, id string, req *api.AppointmentRescheduleRequest) (*api.AppointmentRescheduleResponse, error)
}

type Response struct {
	response.Response
	*api.AppointmentRescheduleResponse
}

func New(log *slog.Logger, rescheduler AppointmentRescheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.appointments.reschedule.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		var req api.AppointmentRescheduleRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.Date == "" || req.Timeslot == "" {
			log.Error("date or timeslot is empty")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "date and timeslot are required"))
			return
		}

		result, err := rescheduler.RescheduleAppointment(r.Context(), id, &req)

		switch {
		case err == nil:
		case errors.Is(err, response.ErrNotFound):
			log.Error("resource not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		case errors.Is(err, response.ErrInvalidInput):
			log.Error("invalid input", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), err.Error()))
			return
		case errors.Is(err, response.ErrPolicyViolation):
			log.Warn("reschedule refused by policy", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.POLICY_VIOLATION), "appointment can no longer be rescheduled"))
			return
		case errors.Is(err, response.ErrInvalidTransition), errors.Is(err, response.ErrConflict):
			log.Warn("status transition refused", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), "appointment cannot be rescheduled in its current status"))
			return
		case errors.Is(err, response.ErrLocked):
			log.Error("slot is locked")
			render.Status(r, http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "slot is being booked by another request"))
			return
		case errors.Is(err, response.ErrSlotNotAvailable):
			log.Error("slot is not available", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_NOT_AVAILABLE), "slot is not available"))
			return
		case errors.Is(err, response.ErrUnavailable):
			log.Error("availability could not be confirmed", sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.AVAILABILITY_UNCONFIRMED), "availability could not be confirmed, please try again"))
			return
		default:
			log.Error("Failed to reschedule appointment", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to reschedule appointment"))
			return
		}

		log.Info("Appointment rescheduled",
			slog.String("from", result.Previous.ID),
			slog.String("to", result.Appointment.ID),
			slog.Float64("fee", result.Appointment.RescheduleFee),
		)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{AppointmentRescheduleResponse: result})
	}
}
