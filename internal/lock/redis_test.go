package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var _ Locker = (*RedisLock)(nil)

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "slot:2026-10-19:09:00", SlotKey("2026-10-19", "09:00"))
	assert.Equal(t, "lock:slot:2026-10-19:09:00", lockKey(SlotKey("2026-10-19", "09:00")))
}

func TestSlotKey_DistinctPerSlot(t *testing.T) {
	assert.NotEqual(t, SlotKey("2026-10-19", "09:00"), SlotKey("2026-10-19", "10:00"))
	assert.NotEqual(t, SlotKey("2026-10-19", "09:00"), SlotKey("2026-10-20", "09:00"))
}
