package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern, name string
		want          bool
	}{
		{"src/hbs/**/*.hbs", "src/hbs/page.hbs", true},
		{"src/hbs/**/*.hbs", "src/hbs/tutorials/events/colors.hbs", true},
		{"src/hbs/**/*.hbs", "src/hbs/page.html", false},
		{"src/hbs/**/*.hbs", "src/sass/page.hbs", false},
		{"src/sass/**/*.scss", "src/sass/colorpicker.scss", true},
		{"src/js/*.js", "src/js/plugin/a.js", false},
		{"src/js/*.js", "src/js/a.js", true},
		{"**", "anything/at/all", true},
		{"**/*.md", "README.md", true},
		{"docs/index.html", "docs/index.html", true},
		{"src/[a-c].js", "src/b.js", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pattern, tt.name))
		})
	}
}

func TestBaseDir(t *testing.T) {
	assert.Equal(t, "src/hbs", baseDir("src/hbs/**/*.hbs"))
	assert.Equal(t, "src/js", baseDir("src/js/*.js"))
	assert.Equal(t, ".", baseDir("**/*.md"))
	assert.Equal(t, "docs", baseDir("docs/index.html"))
}

func TestNew_Validation(t *testing.T) {
	noop := func(context.Context, ...string) error { return nil }

	_, err := New(t.TempDir(), []Rule{{Pattern: "a/*"}}, noop)
	require.Error(t, err)

	_, err = New(t.TempDir(), nil, noop)
	require.Error(t, err)

	_, err = New(t.TempDir(), []Rule{{Pattern: "a/*", Task: "js"}}, nil)
	require.Error(t, err)
}

func TestWatcher_CoalescesWhileRunning(t *testing.T) {
	release := make(chan struct{})
	var calls, concurrent, maxConcurrent atomic.Int32
	var mu sync.Mutex
	var batches [][]string

	w, err := New(t.TempDir(), []Rule{
		{Pattern: "src/hbs/**/*.hbs", Task: "docs"},
		{Pattern: "src/js/**/*.js", Task: "js"},
	}, func(ctx context.Context, tasks ...string) error {
		n := concurrent.Add(1)
		if n > maxConcurrent.Load() {
			maxConcurrent.Store(n)
		}
		mu.Lock()
		batches = append(batches, tasks)
		mu.Unlock()
		calls.Add(1)
		<-release
		concurrent.Add(-1)
		return nil
	})
	require.NoError(t, err)
	docs, js := w.rules[0], w.rules[1]
	ctx := context.Background()

	docs.fire(ctx)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Triggers from both rules during the run collapse into one follow-up invocation.
	js.fire(ctx)
	docs.fire(ctx)
	js.fire(ctx)

	release <- struct{}{}
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	release <- struct{}{}
	w.runs.Wait()

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(1), maxConcurrent.Load())
	assert.Equal(t, [][]string{{"docs"}, {"js", "docs"}}, batches)
}

func TestWatcher_RulesNeverOverlap(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "hbs"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "js"), 0o750))

	var calls, concurrent, maxConcurrent atomic.Int32
	trigger := func(context.Context, ...string) error {
		n := concurrent.Add(1)
		for {
			m := maxConcurrent.Load()
			if n <= m || maxConcurrent.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(200 * time.Millisecond)
		concurrent.Add(-1)
		calls.Add(1)
		return nil
	}

	w, err := New(root, []Rule{
		{Pattern: "src/hbs/**/*.hbs", Task: "docs"},
		{Pattern: "src/js/**/*.js", Task: "js"},
	}, trigger, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "hbs", "page.hbs"), []byte("x"), 0o600))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "js", "plugin.js"), []byte("x"), 0o600))

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	w.Wait()

	assert.Equal(t, int32(1), maxConcurrent.Load())
}

func TestWatcher_TriggersMatchingRule(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "sass"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "js"), 0o750))

	var mu sync.Mutex
	var got []string
	trigger := func(_ context.Context, tasks ...string) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, tasks...)
		return errors.New("failures keep the watcher alive")
	}

	w, err := New(root, []Rule{
		{Pattern: "src/sass/**/*.scss", Task: "css"},
		{Pattern: "src/js/**/*.js", Task: "js"},
	}, trigger, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	// Several writes inside the debounce window fire once.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "src", "sass", "colorpicker.scss"), []byte("a{}"), 0o600))
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Directories created after start are watched too.
	nested := filepath.Join(root, "src", "sass", "themes")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(nested, "dark.scss"), []byte("b{}"), 0o600))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	w.Wait()

	mu.Lock()
	defer mu.Unlock()
	for _, task := range got {
		assert.Equal(t, "css", task)
	}
}
