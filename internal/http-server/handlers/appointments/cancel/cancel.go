package cancel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"booking-service/api"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type AppointmentCanceller interface {
	CancelAppointment(ctx context.Context, id, reason string) (*api.AppointmentResponse, error)
}

type Response struct {
	response.Response
	Appointment *api.AppointmentResponse `json:"appointment,omitempty"`
}

func New(log *slog.Logger, canceller AppointmentCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.appointments.cancel.New"

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

		// the body is optional
		var req api.AppointmentCancelRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			log.Error("Failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		appointment, err := canceller.CancelAppointment(r.Context(), id, req.Reason)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrPolicyViolation) {
			log.Warn("cancellation refused by policy", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.POLICY_VIOLATION), "appointment can no longer be cancelled"))
			return
		}

		if errors.Is(err, response.ErrInvalidTransition) || errors.Is(err, response.ErrConflict) {
			log.Warn("status transition refused", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), "appointment cannot be cancelled in its current status"))
			return
		}

		if err != nil {
			log.Error("Failed to cancel appointment", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to cancel appointment"))
			return
		}

		log.Info("Appointment cancelled", slog.String("id", appointment.ID))
		render.JSON(w, r, Response{Appointment: appointment})
	}
}
