package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIDUniqueUntilReleased(t *testing.T) {
	a := New()
	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		id := a.NewID()
		assert.False(t, seen[uint64(id)], "id %d reused while still held", id)
		seen[uint64(id)] = true
		assert.True(t, a.Held(id))
	}
}

func TestReleaseAllowsReuse(t *testing.T) {
	a := New()
	id := a.NewID()
	assert.True(t, a.Held(id))
	a.Release(id)
	assert.False(t, a.Held(id))
}

func TestReleaseUnknownIDIsNoOp(t *testing.T) {
	a := New()
	assert.NotPanics(t, func() {
		a.Release(12345)
	})
}

func TestIDsAreInRange(t *testing.T) {
	a := New()
	for i := 0; i < 200; i++ {
		id := a.NewID()
		assert.GreaterOrEqual(t, uint64(id), uint64(1))
		assert.LessOrEqual(t, uint64(id), uint64(1)<<53)
	}
}
