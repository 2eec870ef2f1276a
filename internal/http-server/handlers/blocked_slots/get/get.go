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
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type BlockedSlotGetter interface {
	GetBlockedSlot(ctx context.Context, id string) (*api.BlockedSlotResponse, error)
	ListBlockedSlots(ctx context.Context, date *string) ([]*api.BlockedSlotResponse, error)
}

type Response struct {
	response.Response
	BlockedSlots []*api.BlockedSlotResponse `json:"blocked_slots,omitempty"`
	BlockedSlot  *api.BlockedSlotResponse   `json:"blocked_slot,omitempty"`
}

func New(log *slog.Logger, getter BlockedSlotGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blocked_slots.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if id := chi.URLParam(r, "id"); id != "" {
			block, err := getter.GetBlockedSlot(r.Context(), id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("resource not found")
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get blocked slot", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get blocked slot"))
				return
			}

			render.JSON(w, r, Response{BlockedSlot: block})
			return
		}

		var date *string
		if d := r.URL.Query().Get("date"); d != "" {
			date = &d
		}

		blocks, err := getter.ListBlockedSlots(r.Context(), date)

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid date", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "date must be YYYY-MM-DD"))
			return
		}

		if err != nil {
			log.Error("Failed to list blocked slots", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list blocked slots"))
			return
		}

		render.JSON(w, r, Response{BlockedSlots: blocks})
	}
}
