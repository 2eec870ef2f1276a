package postgres

import (
	"errors"
	"testing"

	"booking-service/pkg/response"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	err := mapError(&pq.Error{Code: uniqueViolation, Constraint: "appointments_slot_holder_idx", Message: "duplicate key"})
	assert.True(t, errors.Is(err, response.ErrSlotNotAvailable))

	err = mapError(&pq.Error{Code: uniqueViolation, Constraint: "appointments_pkey", Message: "duplicate key"})
	assert.True(t, errors.Is(err, response.ErrConflict))
	assert.False(t, errors.Is(err, response.ErrSlotNotAvailable))

	other := &pq.Error{Code: "23503"}
	assert.Equal(t, error(other), mapError(other))

	assert.NoError(t, mapError(nil))
}

func TestHoldingStatuses(t *testing.T) {
	assert.Equal(t, []string{"pending", "confirmed"}, holdingStatuses())
}
