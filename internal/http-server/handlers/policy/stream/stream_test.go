package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booking-service/api"
	"booking-service/pkg/handlers/slogdiscard"
	"booking-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type fakeWatcher struct {
	updates []api.PolicyResponse
}

func (f *fakeWatcher) WatchAppointmentPolicy(_ context.Context, id string) (<-chan api.PolicyResponse, error) {
	if id == "missing" {
		return nil, fmt.Errorf("service: %w", response.ErrNotFound)
	}

	ch := make(chan api.PolicyResponse, len(f.updates))
	for _, u := range f.updates {
		ch <- u
	}
	close(ch)
	return ch, nil
}

func router(w PolicyWatcher) http.Handler {
	r := chi.NewRouter()
	r.Get("/appointments/{id}/policy/stream", New(slogdiscard.NewDiscardLogger(), w))
	return r
}

func TestStream_EmitsEventsUntilClosed(t *testing.T) {
	w := &fakeWatcher{updates: []api.PolicyResponse{
		{Window: "free", CanCancel: true, CanReschedule: true},
		{Window: "fee", CanCancel: true, CanReschedule: true, RequiresFee: true, FeeAmount: 5},
	}}

	rr := httptest.NewRecorder()
	router(w).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/appointments/abc/policy/stream", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/event-stream"), rr.Header().Get("Content-Type"))

	body := rr.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event: data"))
	assert.Contains(t, body, `"window":"free"`)
	assert.Contains(t, body, `"window":"fee"`)
	assert.Contains(t, body, "event: EOF")
}

func TestStream_NotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	router(&fakeWatcher{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/appointments/missing/policy/stream", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), string(response.NOT_FOUND))
}
