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

type PolicyEvaluator interface {
	EvaluatePolicy(ctx context.Context, date, clock string) (*api.PolicyResponse, error)
	EvaluateAppointmentPolicy(ctx context.Context, id string) (*api.PolicyResponse, error)
}

type Response struct {
	response.Response
	Policy *api.PolicyResponse `json:"policy,omitempty"`
}

// New serves /appointments/{id}/policy and the /policy?date=&time= preview.
func New(log *slog.Logger, evaluator PolicyEvaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.policy.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var (
			status *api.PolicyResponse
			err    error
		)

		if id := chi.URLParam(r, "id"); id != "" {
			status, err = evaluator.EvaluateAppointmentPolicy(r.Context(), id)
		} else {
			date := r.URL.Query().Get("date")
			clock := r.URL.Query().Get("time")
			if date == "" || clock == "" {
				log.Error("date or time is empty")
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.INVALID_INPUT), "date and time are required"))
				return
			}
			status, err = evaluator.EvaluatePolicy(r.Context(), date, clock)
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to evaluate policy", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to evaluate policy"))
			return
		}

		log.Debug("Policy evaluated", slog.String("window", status.Window))
		render.JSON(w, r, Response{Policy: status})
	}
}
