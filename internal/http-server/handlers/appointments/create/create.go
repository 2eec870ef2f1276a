package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"booking-service/api"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type AppointmentCreator interface {
	CreateAppointment(ctx context.Context, req *api.AppointmentRequest) (*api.AppointmentResponse, error)
}

type Request struct {
	api.AppointmentRequest
}

type Response struct {
	response.Response
	Appointment *api.AppointmentResponse `json:"appointment,omitempty"`
}

func New(log *slog.Logger, creator AppointmentCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.appointments.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Debug("Request body decoded", slog.String("date", req.Date), slog.String("timeslot", req.Timeslot))

		appointment, err := creator.CreateAppointment(r.Context(), &req.AppointmentRequest)

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid input", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), err.Error()))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("slot is locked")
			render.Status(r, http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "slot is being booked by another request"))
			return
		}

		if errors.Is(err, response.ErrSlotNotAvailable) {
			log.Error("slot is not available", sl.Err(err))
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_NOT_AVAILABLE), "slot is not available"))
			return
		}

		if errors.Is(err, response.ErrUnavailable) {
			log.Error("availability could not be confirmed", sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.AVAILABILITY_UNCONFIRMED), "availability could not be confirmed, please try again"))
			return
		}

		if err != nil {
			log.Error("Failed to create appointment", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create appointment"))
			return
		}

		log.Info("Appointment created", slog.String("id", appointment.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Appointment: appointment})
	}
}
