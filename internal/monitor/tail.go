package monitor

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// terminationGrace bounds how long a tail waits for its subprocess to
	// exit after cancellation.
	terminationGrace = 5 * time.Second

	filePollInterval = 250 * time.Millisecond
)

// FileTail follows a line-oriented, append-only file from its current end.
// Pre-existing content is never reprocessed.
type FileTail struct {
	path string
	clk  clock.Clock
}

// NewFileTail creates a tail for the given path.
func NewFileTail(path string, clk clock.Clock) *FileTail {
	if clk == nil {
		clk = clock.New()
	}
	return &FileTail{path: path, clk: clk}
}

// Wait blocks until the file exists, the timeout elapses, or ctx is
// cancelled. It reports whether the file appeared. A false return is
// "source unavailable", not an error.
func (t *FileTail) Wait(ctx context.Context, timeout time.Duration) bool {
	deadline := t.clk.Now().Add(timeout)
	for {
		if _, err := os.Stat(t.path); err == nil {
			return true
		}
		if t.clk.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-t.clk.After(time.Second):
		}
	}
}

// Follow streams lines appended after the current end of file. The channel
// closes when ctx is cancelled or the file becomes unreadable.
func (t *FileTail) Follow(ctx context.Context) (<-chan string, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		defer f.Close()

		reader := bufio.NewReader(f)
		var partial strings.Builder

		for {
			chunk, err := reader.ReadString('\n')
			if len(chunk) > 0 {
				partial.WriteString(chunk)
			}

			if err == nil {
				line := strings.TrimRight(partial.String(), "\n")
				partial.Reset()
				if line != "" {
					select {
					case lines <- line:
					case <-ctx.Done():
						return
					}
				}
				continue
			}

			if err != io.EOF {
				return
			}

			// At EOF: wait for the writer to append more.
			select {
			case <-ctx.Done():
				return
			case <-t.clk.After(filePollInterval):
			}
		}
	}()

	return lines, nil
}

// CommandTail follows the combined output of an external "follow logs"
// command. Cancelling ctx kills the process; the tail loop exits within
// terminationGrace even if the process lingers.
type CommandTail struct {
	name string
	args []string
}

// NewCommandTail creates a tail over the given command.
func NewCommandTail(name string, args ...string) *CommandTail {
	return &CommandTail{name: name, args: args}
}

// Follow starts the command and streams its combined stdout/stderr line by
// line. The channel closes when the process exits or ctx is cancelled.
func (t *CommandTail) Follow(ctx context.Context) (<-chan string, error) {
	cmd := exec.CommandContext(ctx, t.name, t.args...)
	cmd.WaitDelay = terminationGrace

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, err
	}

	go func() {
		// Wait returns once the process exits (or the WaitDelay grace
		// expires after cancellation); closing the pipe ends the scanner.
		_ = cmd.Wait()
		pw.Close()
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		defer pr.Close()

		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if line == "" {
				continue
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines, nil
}

// Output runs the command to completion and returns its combined output
// lines. Used for the bounded history snapshot before live-follow.
func (t *CommandTail) Output(ctx context.Context) ([]string, error) {
	runCtx, cancel := context.WithTimeout(ctx, terminationGrace)
	defer cancel()

	cmd := exec.CommandContext(runCtx, t.name, t.args...)
	out, err := cmd.CombinedOutput()
	if err != nil && len(out) == 0 {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
