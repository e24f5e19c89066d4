package monitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/buildwatch/buildwatch/internal/config"
	"github.com/buildwatch/buildwatch/internal/domain"
	"github.com/buildwatch/buildwatch/internal/output"
)

const (
	provisioningWaitTimeout = 120 * time.Second
	runtimeReadyTimeout     = 60 * time.Second
	containerWaitTimeout    = 300 * time.Second

	// historyLines bounds the container log history replayed on entry to
	// the runtime phase.
	historyLines = 50
)

// Streamer drives the three-phase deployment lifecycle: follow the
// provisioning log, wait for the workload container, then follow its logs
// until shutdown. It is the sole writer of the log buffer.
//
// Phase advancement is monotonic. Failures never escape Run: a source that
// does not appear within its bound leaves the streamer idling in the current
// phase while the API keeps serving the buffer.
type Streamer struct {
	cfg     *config.Config
	buffer  *LogBuffer
	mirror  *output.Mirror
	runtime *Runtime
	clk     clock.Clock
	log     *zap.Logger

	mu                   sync.Mutex
	phase                domain.Phase
	provisioningComplete bool
	containerStarted     bool
}

// NewStreamer creates a streamer over the given buffer and mirror.
func NewStreamer(cfg *config.Config, buffer *LogBuffer, mirror *output.Mirror, runtime *Runtime, clk clock.Clock, log *zap.Logger) *Streamer {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Streamer{
		cfg:     cfg,
		buffer:  buffer,
		mirror:  mirror,
		runtime: runtime,
		clk:     clk,
		log:     log,
		phase:   domain.PhaseProvisioning,
	}
}

// Run executes the phase sequence until ctx is cancelled or the runtime log
// stream ends. It never returns an error; every failure is contained and
// surfaced through the log stream itself.
func (s *Streamer) Run(ctx context.Context) {
	s.Publish("🚀 Build Monitor started", domain.CategoryInfo)
	s.Publish("📦 Deployment: "+s.cfg.AppName+" ("+s.cfg.DeploymentID+")", domain.CategoryInfo)

	s.streamProvisioning(ctx)
	if ctx.Err() != nil {
		return
	}

	s.streamContainerStartup(ctx)
}

// Publish classifies nothing: it records an already-formatted message in the
// buffer and mirrors it. The detector uses it to echo issues inline.
func (s *Streamer) Publish(message string, category domain.Category) {
	entry := domain.NewLogEntry(message, category)
	s.buffer.Append(entry)
	s.mirror.Emit(entry)
}

// Buffer exposes the shared log buffer for readers.
func (s *Streamer) Buffer() *LogBuffer {
	return s.buffer
}

// Status derives the daemon's current view of the deployment.
func (s *Streamer) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.Status{
		Phase:                s.phase,
		ProvisioningComplete: s.provisioningComplete,
		ContainerStarted:     s.containerStarted,
		ContainerName:        s.cfg.ContainerName,
		DeploymentID:         s.cfg.DeploymentID,
		AppName:              s.cfg.AppName,
		LogCount:             s.buffer.Count(),
	}
}

// Phase returns the current lifecycle phase.
func (s *Streamer) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Streamer) advance(phase domain.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

func (s *Streamer) markProvisioningComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provisioningComplete = true
}

func (s *Streamer) markContainerStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.containerStarted = true
}

// streamProvisioning follows the provisioning log until the completion
// marker appears, the wait for the file times out, or ctx ends.
func (s *Streamer) streamProvisioning(ctx context.Context) {
	s.Publish("📋 Monitoring cloud-init progress...", domain.CategoryInfo)

	tail := NewFileTail(s.cfg.ProvisioningLog, s.clk)
	if !tail.Wait(ctx, provisioningWaitTimeout) {
		if ctx.Err() != nil {
			return
		}
		s.Publish("⚠️  Cloud-init log not found, skipping to container startup", domain.CategoryWarning)
		s.markProvisioningComplete()
		s.advance(domain.PhaseContainerStartup)
		return
	}

	tailCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines, err := tail.Follow(tailCtx)
	if err != nil {
		s.log.Error("provisioning log tail failed", zap.Error(err))
		s.Publish("❌ Error streaming cloud-init: "+err.Error(), domain.CategoryError)
		s.advance(domain.PhaseContainerStartup)
		return
	}

	for line := range lines {
		if c := ClassifyProvisioning(line); !c.Suppress {
			s.Publish(c.Message, c.Category)
		}

		if strings.Contains(line, "Cloud-init") && strings.Contains(line, "finished") {
			s.markProvisioningComplete()
			s.Publish("✓ Cloud-init complete", domain.CategorySuccess)
			cancel()
			break
		}
	}

	s.advance(domain.PhaseContainerStartup)
}

// streamContainerStartup waits for the runtime and the named container, then
// hands off to runtime log streaming. Timing out leaves the daemon idling in
// this phase with the API still serving.
func (s *Streamer) streamContainerStartup(ctx context.Context) {
	s.Publish("🐋 Waiting for container to start...", domain.CategoryInfo)

	if !s.runtime.WaitReady(ctx, runtimeReadyTimeout) {
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("container runtime not ready within bound")
		s.Publish("⚠️  Docker not available", domain.CategoryWarning)
		return
	}

	s.Publish("   Waiting for container creation...", domain.CategoryInfo)
	if !s.runtime.WaitForContainer(ctx, s.cfg.ContainerName, containerWaitTimeout) {
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("container did not appear within bound", zap.String("container", s.cfg.ContainerName))
		s.Publish("⚠️  Container did not start within timeout", domain.CategoryWarning)
		return
	}

	s.markContainerStarted()
	s.Publish("✓ Container '"+s.cfg.ContainerName+"' detected", domain.CategorySuccess)
	s.advance(domain.PhaseRuntime)

	s.Publish("📜 Streaming container logs...", domain.CategoryInfo)
	s.streamContainerLogs(ctx)
}

// streamContainerLogs replays recent history, then live-follows the
// container's logs for the rest of the daemon's life. A stream that dies
// unexpectedly is logged and NOT restarted; the API keeps serving the last
// known buffer.
func (s *Streamer) streamContainerLogs(ctx context.Context) {
	name := s.cfg.ContainerName

	if history, err := s.runtime.HistoryTail(name, historyLines).Output(ctx); err == nil {
		for _, line := range history {
			c := ClassifyContainer(line)
			s.Publish(c.Message, c.Category)
		}
	} else if ctx.Err() == nil {
		s.log.Warn("container log history unavailable", zap.Error(err))
	}

	lines, err := s.runtime.FollowTail(name).Follow(ctx)
	if err != nil {
		s.log.Error("container log follow failed", zap.Error(err))
		s.Publish("❌ Error streaming container logs: "+err.Error(), domain.CategoryError)
		return
	}

	for line := range lines {
		c := ClassifyContainer(line)
		s.Publish(c.Message, c.Category)
	}

	if ctx.Err() == nil {
		s.log.Warn("container log stream ended", zap.String("container", name))
	}
}
