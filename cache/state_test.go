package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnStateTransitions(t *testing.T) {
	t.Run("Unknown-Allows-Operations", func(t *testing.T) {
		require.True(t, newConnState(3, time.Minute).available())
	})

	t.Run("Failures-Accumulate-To-Unreachable", func(t *testing.T) {
		// Arrange
		s := newConnState(3, time.Minute)
		now := time.Now()

		// Act
		s.recordFailure(now)
		s.recordFailure(now)
		require.True(t, s.available())
		s.recordFailure(now)

		// Assert
		require.False(t, s.available())
	})

	t.Run("Success-Resets-The-Count", func(t *testing.T) {
		// Arrange
		s := newConnState(3, time.Minute)
		now := time.Now()

		// Act
		s.recordFailure(now)
		s.recordFailure(now)
		s.markHealthy()
		s.recordFailure(now)
		s.recordFailure(now)

		// Assert
		require.True(t, s.available())
	})

	t.Run("Recovery", func(t *testing.T) {
		// Arrange
		s := newConnState(1, time.Minute)
		s.recordFailure(time.Now())
		require.False(t, s.available())

		// Act
		s.markHealthy()

		// Assert
		require.True(t, s.available())
	})
}

func TestConnStateTryReprobe(t *testing.T) {
	t.Run("Not-While-Healthy", func(t *testing.T) {
		s := newConnState(3, time.Minute)
		require.False(t, s.tryReprobe(time.Now()))
	})

	t.Run("Not-Before-Cooldown", func(t *testing.T) {
		// Arrange
		s := newConnState(1, time.Minute)
		now := time.Now()
		s.recordFailure(now)

		// Act + Assert
		require.False(t, s.tryReprobe(now.Add(30*time.Second)))
		require.True(t, s.tryReprobe(now.Add(61*time.Second)))
	})

	t.Run("One-Winner-Per-Window", func(t *testing.T) {
		// Arrange
		s := newConnState(1, time.Minute)
		now := time.Now()
		s.recordFailure(now)
		later := now.Add(2 * time.Minute)

		// Act
		var wg sync.WaitGroup
		wins := make(chan bool, 100)
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.tryReprobe(later) {
					wins <- true
				}
			}()
		}
		wg.Wait()
		close(wins)

		// Assert
		require.Len(t, wins, 1)
	})
}
