package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectLines(t *testing.T, lines <-chan string, n int) []string {
	t.Helper()

	var got []string
	timeout := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case line, ok := <-lines:
			if !ok {
				return got
			}
			got = append(got, line)
		case <-timeout:
			t.Fatalf("timed out after %d of %d lines", len(got), n)
		}
	}
	return got
}

func TestFileTailWait(t *testing.T) {
	t.Run("existing file returns immediately", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.log")
		require.NoError(t, os.WriteFile(path, nil, 0644))

		tail := NewFileTail(path, clock.New())
		assert.True(t, tail.Wait(context.Background(), time.Second))
	})

	t.Run("missing file times out", func(t *testing.T) {
		clk := clock.NewMock()
		tail := NewFileTail(filepath.Join(t.TempDir(), "never.log"), clk)

		done := make(chan bool, 1)
		go func() {
			done <- tail.Wait(context.Background(), 2*time.Minute)
		}()

		// Let the waiter reach its first poll sleep before moving the clock.
		time.Sleep(10 * time.Millisecond)
		for i := 0; i < 125; i++ {
			clk.Add(time.Second)
		}

		select {
		case appeared := <-done:
			assert.False(t, appeared)
		case <-time.After(5 * time.Second):
			t.Fatal("wait did not return")
		}
	})

	t.Run("cancelled context returns", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tail := NewFileTail(filepath.Join(t.TempDir(), "never.log"), clock.New())
		assert.False(t, tail.Wait(ctx, time.Minute))
	})
}

func TestFileTailFollow(t *testing.T) {
	t.Run("streams only appended lines", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.log")
		require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0644))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		tail := NewFileTail(path, clock.New())
		lines, err := tail.Follow(ctx)
		require.NoError(t, err)

		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
		require.NoError(t, err)
		_, err = f.WriteString("first\nsecond\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		got := collectLines(t, lines, 2)
		assert.Equal(t, []string{"first", "second"}, got)
	})

	t.Run("channel closes on cancel", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.log")
		require.NoError(t, os.WriteFile(path, nil, 0644))

		ctx, cancel := context.WithCancel(context.Background())

		tail := NewFileTail(path, clock.New())
		lines, err := tail.Follow(ctx)
		require.NoError(t, err)

		cancel()

		select {
		case _, ok := <-lines:
			assert.False(t, ok)
		case <-time.After(5 * time.Second):
			t.Fatal("channel did not close")
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		tail := NewFileTail(filepath.Join(t.TempDir(), "nope.log"), clock.New())
		_, err := tail.Follow(context.Background())
		assert.Error(t, err)
	})
}

func TestCommandTailFollow(t *testing.T) {
	t.Run("combines stdout and stderr", func(t *testing.T) {
		tail := NewCommandTail("sh", "-c", "echo out; echo err 1>&2")

		lines, err := tail.Follow(context.Background())
		require.NoError(t, err)

		got := collectLines(t, lines, 2)
		assert.ElementsMatch(t, []string{"out", "err"}, got)
	})

	t.Run("channel closes when process exits", func(t *testing.T) {
		tail := NewCommandTail("true")

		lines, err := tail.Follow(context.Background())
		require.NoError(t, err)

		select {
		case _, ok := <-lines:
			assert.False(t, ok)
		case <-time.After(5 * time.Second):
			t.Fatal("channel did not close")
		}
	})

	t.Run("cancel kills long-running process", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		tail := NewCommandTail("sleep", "60")
		lines, err := tail.Follow(ctx)
		require.NoError(t, err)

		cancel()

		select {
		case _, ok := <-lines:
			assert.False(t, ok)
		case <-time.After(10 * time.Second):
			t.Fatal("channel did not close after cancel")
		}
	})

	t.Run("missing binary errors", func(t *testing.T) {
		tail := NewCommandTail("definitely-not-a-binary-xyz")
		_, err := tail.Follow(context.Background())
		assert.Error(t, err)
	})
}

func TestCommandTailOutput(t *testing.T) {
	t.Run("returns non-empty lines", func(t *testing.T) {
		tail := NewCommandTail("sh", "-c", "printf 'a\\n\\nb\\n'")

		got, err := tail.Output(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("failure with no output errors", func(t *testing.T) {
		tail := NewCommandTail("definitely-not-a-binary-xyz")
		_, err := tail.Output(context.Background())
		assert.Error(t, err)
	})
}
