package monitor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwatch/buildwatch/internal/config"
	"github.com/buildwatch/buildwatch/internal/domain"
	"github.com/buildwatch/buildwatch/internal/output"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.ContainerName = "app"
	cfg.DeploymentID = "dep-1"
	cfg.AppName = "demo"
	cfg.ProvisioningLog = filepath.Join(t.TempDir(), "cloud-init-output.log")
	return cfg
}

func newTestStreamer(cfg *config.Config, runtime *Runtime, clk clock.Clock) (*Streamer, *LogBuffer, *bytes.Buffer) {
	buffer := NewLogBuffer(100)
	var out bytes.Buffer
	mirror := output.NewMirror(&out, "")
	return NewStreamer(cfg, buffer, mirror, runtime, clk, nil), buffer, &out
}

func messages(buffer *LogBuffer) []string {
	var got []string
	for _, entry := range buffer.Snapshot() {
		got = append(got, entry.Message)
	}
	return got
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(line + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestStreamerPublish(t *testing.T) {
	s, buffer, out := newTestStreamer(testConfig(t), nil, clock.New())

	s.Publish("hello", domain.CategoryInfo)

	require.Equal(t, 1, buffer.Count())
	entry := buffer.Snapshot()[0]
	assert.Equal(t, "hello", entry.Message)
	assert.Equal(t, domain.CategoryInfo, entry.Category)
	assert.Contains(t, out.String(), "] hello")
}

func TestStreamerInitialStatus(t *testing.T) {
	s, _, _ := newTestStreamer(testConfig(t), nil, clock.New())

	status := s.Status()
	assert.Equal(t, domain.PhaseProvisioning, status.Phase)
	assert.False(t, status.ProvisioningComplete)
	assert.False(t, status.ContainerStarted)
	assert.Equal(t, "app", status.ContainerName)
	assert.Equal(t, "dep-1", status.DeploymentID)
}

func TestStreamProvisioningFileNeverAppears(t *testing.T) {
	clk := clock.NewMock()
	cfg := testConfig(t)
	s, buffer, _ := newTestStreamer(cfg, nil, clk)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.streamProvisioning(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	for i := 0; i < 130; i++ {
		clk.Add(time.Second)
		time.Sleep(time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("provisioning phase did not finish")
	}

	status := s.Status()
	assert.True(t, status.ProvisioningComplete)
	assert.Equal(t, domain.PhaseContainerStartup, s.Phase())
	assert.Contains(t, messages(buffer), "⚠️  Cloud-init log not found, skipping to container startup")
}

func TestStreamProvisioningCompletionMarker(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.ProvisioningLog, []byte("pre-existing line\n"), 0644))

	s, buffer, _ := newTestStreamer(cfg, nil, clock.New())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.streamProvisioning(context.Background())
	}()

	// Let the tail attach at end of file before appending.
	time.Sleep(500 * time.Millisecond)
	appendLine(t, cfg.ProvisioningLog, "Setting up curl (7.81.0-1ubuntu1) ...")
	appendLine(t, cfg.ProvisioningLog, "Cloud-init v. 23.4 finished at Mon, 01 Jan 2025")

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("provisioning phase did not finish")
	}

	got := messages(buffer)
	assert.Contains(t, got, "📦 Installing curl")
	assert.Contains(t, got, "✓ Cloud-init complete")
	assert.NotContains(t, got, "pre-existing line")

	status := s.Status()
	assert.True(t, status.ProvisioningComplete)
	assert.Equal(t, domain.PhaseContainerStartup, s.Phase())
}

func TestStreamerRunThroughRuntime(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.ProvisioningLog, nil, 0644))

	clk := clock.New()
	runtime := NewRuntime(clk)
	runtime.binary = fakeDocker(t, `case "$1" in
info) exit 0 ;;
ps) echo '{"Names":"app","State":"running"}' ;;
logs) echo "Server started on port 8000" ;;
esac`)

	s, buffer, _ := newTestStreamer(cfg, runtime, clk)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(context.Background())
	}()

	time.Sleep(500 * time.Millisecond)
	appendLine(t, cfg.ProvisioningLog, "Cloud-init v. 23.4 finished at Mon, 01 Jan 2025")

	// The fake "logs -f" exits immediately, so the whole run terminates.
	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("run did not finish")
	}

	got := messages(buffer)
	assert.Contains(t, got, "🚀 Build Monitor started")
	assert.Contains(t, got, "✓ Cloud-init complete")
	assert.Contains(t, got, "✓ Container 'app' detected")
	assert.Contains(t, got, "✓ Server started on port 8000")

	status := s.Status()
	assert.Equal(t, domain.PhaseRuntime, status.Phase)
	assert.True(t, status.ProvisioningComplete)
	assert.True(t, status.ContainerStarted)
}

func TestStreamContainerStartupDockerUnavailable(t *testing.T) {
	clk := clock.NewMock()
	runtime := NewRuntime(clk)
	runtime.binary = fakeDocker(t, "exit 1")

	s, buffer, _ := newTestStreamer(testConfig(t), runtime, clk)
	s.advance(domain.PhaseContainerStartup)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.streamContainerStartup(context.Background())
	}()

	// Drive the readiness probe past its 60s bound.
	time.Sleep(10 * time.Millisecond)
	for i := 0; i < 40; i++ {
		clk.Add(2 * time.Second)
		time.Sleep(time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("container startup phase did not finish")
	}

	assert.Contains(t, messages(buffer), "⚠️  Docker not available")

	// The daemon idles in the startup phase; the API keeps serving.
	status := s.Status()
	assert.Equal(t, domain.PhaseContainerStartup, status.Phase)
	assert.False(t, status.ContainerStarted)
}

func TestStreamContainerStartupContainerNeverAppears(t *testing.T) {
	clk := clock.NewMock()
	runtime := NewRuntime(clk)
	runtime.binary = fakeDocker(t, `case "$1" in
info) exit 0 ;;
ps) exit 0 ;;
esac`)

	s, buffer, _ := newTestStreamer(testConfig(t), runtime, clk)
	s.advance(domain.PhaseContainerStartup)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.streamContainerStartup(context.Background())
	}()

	// Drive the container poll past its 300s bound.
	time.Sleep(10 * time.Millisecond)
	for i := 0; i < 110; i++ {
		clk.Add(3 * time.Second)
		time.Sleep(time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("container startup phase did not finish")
	}

	assert.Contains(t, messages(buffer), "⚠️  Container did not start within timeout")

	status := s.Status()
	assert.Equal(t, domain.PhaseContainerStartup, status.Phase)
	assert.False(t, status.ContainerStarted)
}

func TestStreamerRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.ProvisioningLog, nil, 0644))

	ctx, cancel := context.WithCancel(context.Background())
	s, _, _ := newTestStreamer(cfg, nil, clock.New())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop on cancel")
	}
}
