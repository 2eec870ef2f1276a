package get

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"booking-service/api"
	"booking-service/pkg/handlers/slogdiscard"
	"booking-service/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(ctx context.Context, date string) (*api.SlotsResponse, error)

func (f resolverFunc) ResolveSlots(ctx context.Context, date string) (*api.SlotsResponse, error) {
	return f(ctx, date)
}

type body struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
	Date      string         `json:"date"`
	Confirmed bool           `json:"confirmed"`
	Slots     []api.TimeSlot `json:"slots"`
}

func serve(t *testing.T, resolver SlotResolver, target string) (*httptest.ResponseRecorder, body) {
	t.Helper()

	rr := httptest.NewRecorder()
	New(slogdiscard.NewDiscardLogger(), resolver).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))

	var b body
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b))
	return rr, b
}

func TestGet_OK(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, date string) (*api.SlotsResponse, error) {
		return &api.SlotsResponse{
			Date:      date,
			Confirmed: true,
			Slots:     []api.TimeSlot{{Time: "09:00", Available: true}, {Time: "10:00", Available: false}},
		}, nil
	})

	rr, b := serve(t, resolver, "/slots?date=2026-10-21")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2026-10-21", b.Date)
	assert.True(t, b.Confirmed)
	assert.Len(t, b.Slots, 2)
	assert.Empty(t, b.Error.Code)
}

func TestGet_MissingDate(t *testing.T) {
	rr, b := serve(t, resolverFunc(func(context.Context, string) (*api.SlotsResponse, error) {
		t.Fatal("resolver must not be called")
		return nil, nil
	}), "/slots")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, string(response.INVALID_INPUT), b.Error.Code)
}

func TestGet_InvalidDate(t *testing.T) {
	rr, b := serve(t, resolverFunc(func(context.Context, string) (*api.SlotsResponse, error) {
		return nil, fmt.Errorf("service: %w", response.ErrInvalidInput)
	}), "/slots?date=tomorrow")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, string(response.INVALID_INPUT), b.Error.Code)
}

func TestGet_UnconfirmedReturnsDegradedSlots(t *testing.T) {
	rr, b := serve(t, resolverFunc(func(_ context.Context, date string) (*api.SlotsResponse, error) {
		return &api.SlotsResponse{
			Date:  date,
			Slots: []api.TimeSlot{{Time: "09:00"}, {Time: "10:00"}},
		}, fmt.Errorf("service: %w", response.ErrUnavailable)
	}), "/slots?date=2026-10-21")

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, string(response.AVAILABILITY_UNCONFIRMED), b.Error.Code)
	assert.False(t, b.Confirmed)
	require.Len(t, b.Slots, 2)
	for _, s := range b.Slots {
		assert.False(t, s.Available)
	}
}
