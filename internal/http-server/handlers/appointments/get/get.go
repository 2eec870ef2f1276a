package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"booking-service/api"
	"booking-service/internal/models"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type AppointmentGetter interface {
	GetAppointment(ctx context.Context, id string) (*api.AppointmentResponse, error)
	ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*api.AppointmentResponse, error)
}

type Response struct {
	response.Response
	Appointments []*api.AppointmentResponse `json:"appointments,omitempty"`
	Appointment  *api.AppointmentResponse   `json:"appointment,omitempty"`
}

func New(log *slog.Logger, getter AppointmentGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.appointments.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if id := chi.URLParam(r, "id"); id != "" {
			appointment, err := getter.GetAppointment(r.Context(), id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("resource not found")
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get appointment", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get appointment"))
				return
			}

			render.JSON(w, r, Response{Appointment: appointment})
			return
		}

		var filter models.AppointmentFilter
		q := r.URL.Query()
		if date := q.Get("date"); date != "" {
			filter.Date = &date
		}
		if userID := q.Get("user_id"); userID != "" {
			filter.UserID = &userID
		}
		if status := q.Get("status"); status != "" {
			st := models.AppointmentStatus(status)
			filter.Status = &st
		}

		appointments, err := getter.ListAppointments(r.Context(), filter)

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid filter", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), err.Error()))
			return
		}

		if err != nil {
			log.Error("Failed to list appointments", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list appointments"))
			return
		}

		log.Debug("Appointments listed", slog.Int("count", len(appointments)))
		render.JSON(w, r, Response{Appointments: appointments})
	}
}
