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

type BlockedSlotCreator interface {
	CreateBlockedSlot(ctx context.Context, req *api.BlockedSlotRequest) (*api.BlockedSlotResponse, error)
}

type Response struct {
	response.Response
	BlockedSlot *api.BlockedSlotResponse `json:"blocked_slot,omitempty"`
}

func New(log *slog.Logger, creator BlockedSlotCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blocked_slots.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req api.BlockedSlotRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		block, err := creator.CreateBlockedSlot(r.Context(), &req)

		if errors.Is(err, response.ErrInvalidInput) {
			log.Error("invalid input", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INPUT), err.Error()))
			return
		}

		if err != nil {
			log.Error("Failed to create blocked slot", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create blocked slot"))
			return
		}

		log.Info("Blocked slot created", slog.String("id", block.ID), slog.String("date", block.Date))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{BlockedSlot: block})
	}
}
