package liveness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryN(t *testing.T) {
	c := DetectEveryNFrames(10)

	t.Run("always detects without a cached box", func(t *testing.T) {
		assert.True(t, c.ShouldDetect(0, false))
		assert.True(t, c.ShouldDetect(7, false))
	})

	t.Run("reuses the cached box between mandatory frames", func(t *testing.T) {
		assert.True(t, c.ShouldDetect(0, true))
		for i := 1; i < 10; i++ {
			assert.False(t, c.ShouldDetect(i, true), "frame %d", i)
		}
		assert.True(t, c.ShouldDetect(10, true))
		assert.True(t, c.ShouldDetect(20, true))
	})

	t.Run("interval of one detects every frame", func(t *testing.T) {
		every := DetectEveryNFrames(1)
		for i := 0; i < 5; i++ {
			assert.True(t, every.ShouldDetect(i, true))
		}
	})
}
