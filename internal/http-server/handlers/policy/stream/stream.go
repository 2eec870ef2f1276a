package stream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"booking-service/api"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type PolicyWatcher interface {
	WatchAppointmentPolicy(ctx context.Context, id string) (<-chan api.PolicyResponse, error)
}

// New streams the appointment's policy as server-sent events, one "data"
// event per refresh, until the client goes away.
func New(log *slog.Logger, watcher PolicyWatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.policy.stream.New"

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

		updates, err := watcher.WatchAppointmentPolicy(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to watch policy", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to watch policy"))
			return
		}

		// the server write timeout would cut the stream short
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			log.Debug("write deadline not cleared", sl.Err(err))
		}

		log.Info("Policy stream opened", slog.String("id", id))

		r = r.WithContext(context.WithValue(r.Context(), render.ContentTypeCtxKey, render.ContentTypeEventStream))
		render.Respond(w, r, updates)

		log.Info("Policy stream closed", slog.String("id", id))
	}
}
