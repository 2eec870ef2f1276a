package status

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

type StatusUpdater interface {
	UpdateAppointmentStatus(ctx context.Context, id, status string) (*api.AppointmentResponse, error)
}

type Response struct {
	response.Response
	Appointment *api.AppointmentResponse `json:"appointment,omitempty"`
}

func New(log *slog.Logger, updater StatusUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.appointments.status.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		var req api.AppointmentStatusRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		appointment, err := updater.UpdateAppointmentStatus(r.Context(), id, req.Status)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid status", slog.String("status", req.Status))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "unknown status"))
			return
		}

		if errors.Is(err, response.ErrInvalidTransition) || errors.Is(err, response.ErrConflict) {
			log.Warn("status transition refused", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), err.Error()))
			return
		}

		if err != nil {
			log.Error("Failed to update status", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update status"))
			return
		}

		log.Info("Appointment status updated", slog.String("id", id), slog.String("status", appointment.Status))
		render.JSON(w, r, Response{Appointment: appointment})
	}
}
