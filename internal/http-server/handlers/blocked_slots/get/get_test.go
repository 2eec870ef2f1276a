package get_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"booking-service/api"
	"booking-service/internal/http-server/handlers/blocked_slots/get"
	"booking-service/pkg/handlers/slogdiscard"
	"booking-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	blocks  map[string]*api.BlockedSlotResponse
	listErr error
	gotDate *string
}

func (f *fakeGetter) GetBlockedSlot(_ context.Context, id string) (*api.BlockedSlotResponse, error) {
	b, ok := f.blocks[id]
	if !ok {
		return nil, fmt.Errorf("service.GetBlockedSlot: %w", response.ErrNotFound)
	}
	return b, nil
}

func (f *fakeGetter) ListBlockedSlots(_ context.Context, date *string) ([]*api.BlockedSlotResponse, error) {
	f.gotDate = date
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*api.BlockedSlotResponse, 0, len(f.blocks))
	for _, b := range f.blocks {
		out = append(out, b)
	}
	return out, nil
}

func newRouter(g *fakeGetter) http.Handler {
	r := chi.NewRouter()
	r.Get("/blocked_slots", get.New(slogdiscard.NewDiscardLogger(), g))
	r.Get("/blocked_slots/{id}", get.New(slogdiscard.NewDiscardLogger(), g))
	return r
}

func TestGet_ByID(t *testing.T) {
	g := &fakeGetter{blocks: map[string]*api.BlockedSlotResponse{
		"b1": {ID: "b1", Date: "2026-10-21", Timeslots: []string{"09:00"}, Reason: "training"},
	}}

	rr := httptest.NewRecorder()
	newRouter(g).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/blocked_slots/b1", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp get.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.BlockedSlot)
	assert.Equal(t, "training", resp.BlockedSlot.Reason)
}

func TestGet_UnknownIDIsNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(&fakeGetter{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/blocked_slots/missing", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), string(response.NOT_FOUND))
}

func TestGet_ListPassesDateFilter(t *testing.T) {
	g := &fakeGetter{blocks: map[string]*api.BlockedSlotResponse{
		"b1": {ID: "b1", Date: "2026-10-21", Timeslots: []string{"09:00"}},
	}}

	rr := httptest.NewRecorder()
	newRouter(g).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/blocked_slots?date=2026-10-21", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, g.gotDate)
	assert.Equal(t, "2026-10-21", *g.gotDate)

	var resp get.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.BlockedSlots, 1)
}

func TestGet_InvalidDateFilterIsBadRequest(t *testing.T) {
	g := &fakeGetter{listErr: fmt.Errorf("service.ListBlockedSlots: %w: bad date", response.ErrInvalidInput)}

	rr := httptest.NewRecorder()
	newRouter(g).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/blocked_slots?date=21-10-2026", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), string(response.INVALID_INPUT))
}

func TestGet_ListFailureIsInternalError(t *testing.T) {
	g := &fakeGetter{listErr: errors.New("connection refused")}

	rr := httptest.NewRecorder()
	newRouter(g).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/blocked_slots", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Nil(t, g.gotDate)
}
