package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Every(t *testing.T) {
	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := NewScheduler(nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.Every(context.Background(), 0, false, func(context.Context, ...string) error { return nil }, "docs")
		require.Error(t, err)
	})

	t.Run("rejects missing tasks", func(t *testing.T) {
		s, err := NewScheduler(nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.Every(context.Background(), time.Second, false, func(context.Context, ...string) error { return nil })
		require.Error(t, err)
	})

	t.Run("runs immediately and repeatedly", func(t *testing.T) {
		s, err := NewScheduler(nil)
		require.NoError(t, err)

		var calls atomic.Int32
		var lastTasks atomic.Value
		id, err := s.Every(context.Background(), 30*time.Millisecond, true, func(_ context.Context, tasks ...string) error {
			calls.Add(1)
			lastTasks.Store(tasks)
			return nil
		}, "js", "css")
		require.NoError(t, err)
		require.NotEmpty(t, id)

		s.Start()
		require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
		require.NoError(t, s.Stop())
		assert.Equal(t, []string{"js", "css"}, lastTasks.Load())
	})

	t.Run("run stops on cancel", func(t *testing.T) {
		s, err := NewScheduler(nil)
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler did not stop")
		}
	})
}
