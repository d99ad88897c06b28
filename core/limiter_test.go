package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallLimiter_Bounded(t *testing.T) {
	l := NewCallLimiter(2)
	assert.False(t, l.Reached())
	assert.Equal(t, 2, l.Remaining())

	assert.Equal(t, 1, l.Increment())
	assert.False(t, l.Reached())

	assert.Equal(t, 2, l.Increment())
	assert.True(t, l.Reached())
	assert.Equal(t, 0, l.Remaining())

	assert.Equal(t, 3, l.Increment())
	assert.True(t, l.Reached())
	assert.Equal(t, 0, l.Remaining())
	assert.Equal(t, 3, l.Count())
}

func TestCallLimiter_Unlimited(t *testing.T) {
	for _, ceiling := range []int{0, -1} {
		l := NewCallLimiter(ceiling)
		for i := 0; i < 100; i++ {
			l.Increment()
		}
		assert.False(t, l.Reached())
		assert.Equal(t, -1, l.Remaining())
		assert.Equal(t, 100, l.Count())
	}
}
