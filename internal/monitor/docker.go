package monitor

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/tidwall/gjson"
)

const (
	runtimeProbeInterval = 2 * time.Second
	containerPollDelay   = 3 * time.Second
	probeCommandTimeout  = 5 * time.Second
)

// Runtime probes the container runtime's control plane over its CLI.
type Runtime struct {
	binary string
	clk    clock.Clock
}

// NewRuntime creates a probe for the docker CLI.
func NewRuntime(clk clock.Clock) *Runtime {
	if clk == nil {
		clk = clock.New()
	}
	return &Runtime{binary: "docker", clk: clk}
}

// WaitReady polls the control plane until it answers, the timeout elapses,
// or ctx is cancelled. Reports whether the runtime became ready.
func (r *Runtime) WaitReady(ctx context.Context, timeout time.Duration) bool {
	deadline := r.clk.Now().Add(timeout)
	for {
		if r.ready(ctx) {
			return true
		}
		if r.clk.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-r.clk.After(runtimeProbeInterval):
		}
	}
}

func (r *Runtime) ready(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, r.binary, "info")
	return cmd.Run() == nil
}

// WaitForContainer polls for a container whose name matches until found, the
// timeout elapses, or ctx is cancelled. Stopped containers count: the point
// is that the workload was created at all.
func (r *Runtime) WaitForContainer(ctx context.Context, name string, timeout time.Duration) bool {
	deadline := r.clk.Now().Add(timeout)
	for {
		if found, err := r.ContainerExists(ctx, name); err == nil && found {
			return true
		}
		if r.clk.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-r.clk.After(containerPollDelay):
		}
	}
}

// ContainerExists lists containers filtered by name and checks the Names
// field of each JSON record.
func (r *Runtime) ContainerExists(ctx context.Context, name string) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, r.binary,
		"ps", "-a", "--filter", "name="+name, "--format", "{{json .}}")
	out, err := cmd.Output()
	if err != nil {
		return false, err
	}

	// One JSON object per line.
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(gjson.Get(line, "Names").String(), name) {
			return true, nil
		}
	}
	return false, nil
}

// HistoryTail returns a tail that prints the container's recent log history.
func (r *Runtime) HistoryTail(name string, lines int) *CommandTail {
	return NewCommandTail(r.binary, "logs", "--tail", strconv.Itoa(lines), name)
}

// FollowTail returns a tail that live-follows the container's logs from now.
func (r *Runtime) FollowTail(name string) *CommandTail {
	return NewCommandTail(r.binary, "logs", "-f", "--tail", "0", name)
}
