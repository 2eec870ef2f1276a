package get

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

type SlotResolver interface {
	ResolveSlots(ctx context.Context, date string) (*api.SlotsResponse, error)
}

type Response struct {
	response.Response
	*api.SlotsResponse
}

func New(log *slog.Logger, resolver SlotResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.slots.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		date := r.URL.Query().Get("date")
		if date == "" {
			log.Error("date is empty")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "date is required"))
			return
		}

		slots, err := resolver.ResolveSlots(r.Context(), date)

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid date", slog.String("date", date), sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "date must be YYYY-MM-DD"))
			return
		}

		if errors.Is(err, response.ErrUnavailable) && slots != nil {
			log.Error("availability could not be confirmed", slog.String("date", date), sl.Err(err))
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, Response{
				Response:      response.Error(string(response.AVAILABILITY_UNCONFIRMED), "availability could not be confirmed, please try again"),
				SlotsResponse: slots,
			})
			return
		}

		if err != nil {
			log.Error("Failed to resolve slots", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to resolve slots"))
			return
		}

		log.Debug("Slots resolved", slog.String("date", date), slog.Int("count", len(slots.Slots)))
		render.JSON(w, r, Response{SlotsResponse: slots})
	}
}
