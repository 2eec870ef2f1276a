package delete_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	bsDelete "booking-service/internal/http-server/handlers/blocked_slots/delete"
	"booking-service/pkg/handlers/slogdiscard"
	"booking-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type fakeDeleter struct {
	ids map[string]bool
	err error
}

func (f *fakeDeleter) DeleteBlockedSlot(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if !f.ids[id] {
		return fmt.Errorf("service.DeleteBlockedSlot: %w", response.ErrNotFound)
	}
	delete(f.ids, id)
	return nil
}

func newRouter(d *fakeDeleter) http.Handler {
	r := chi.NewRouter()
	r.Delete("/blocked_slots/{id}", bsDelete.New(slogdiscard.NewDiscardLogger(), d))
	return r
}

func TestDelete_Success(t *testing.T) {
	d := &fakeDeleter{ids: map[string]bool{"b1": true}}

	rr := httptest.NewRecorder()
	newRouter(d).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/blocked_slots/b1", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.NotContains(t, d.ids, "b1")
}

func TestDelete_UnknownIDIsNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(&fakeDeleter{ids: map[string]bool{}}).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/blocked_slots/missing", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), string(response.NOT_FOUND))
}

func TestDelete_StoreFailureIsInternalError(t *testing.T) {
	d := &fakeDeleter{err: errors.New("connection refused")}

	rr := httptest.NewRecorder()
	newRouter(d).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/blocked_slots/b1", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), string(response.FAILED_REQUEST))
}
