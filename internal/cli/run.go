package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/buildwatch/buildwatch/internal/api"
	"github.com/buildwatch/buildwatch/internal/detect"
	"github.com/buildwatch/buildwatch/internal/logging"
	"github.com/buildwatch/buildwatch/internal/monitor"
	"github.com/buildwatch/buildwatch/internal/output"
)

// RunCmd hosts the monitoring daemon: it streams provisioning and container
// logs into the shared buffer, scans for issues, and serves the HTTP API
// until interrupted.
type RunCmd struct {
	Container       string `short:"c" help:"Container name to watch (overrides config)"`
	DeploymentID    string `help:"Deployment identifier label"`
	AppName         string `help:"Application name label"`
	Port            int    `short:"p" help:"HTTP API port (overrides config)"`
	ProvisioningLog string `help:"Provisioning (cloud-init) log path"`
	LogDir          string `help:"Directory for the persistent monitor log"`
}

// Run executes the run command.
func (r *RunCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if r.Container != "" {
		cfg.ContainerName = r.Container
	}
	if r.DeploymentID != "" {
		cfg.DeploymentID = r.DeploymentID
	}
	if r.AppName != "" {
		cfg.AppName = r.AppName
	}
	if r.Port > 0 {
		cfg.Port = r.Port
	}
	if r.ProvisioningLog != "" {
		cfg.ProvisioningLog = r.ProvisioningLog
	}
	if r.LogDir != "" {
		cfg.LogDir = r.LogDir
	}

	log := logging.New(globals.Verbose)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buffer := monitor.NewLogBuffer(cfg.LogBufferSize)

	var stdout io.Writer = globals.Stdout
	if globals.Quiet {
		stdout = io.Discard
	}
	mirror := output.NewMirror(stdout, cfg.LogFilePath())
	defer mirror.Close()

	clk := clock.New()
	runtime := monitor.NewRuntime(clk)
	streamer := monitor.NewStreamer(cfg, buffer, mirror, runtime, clk, log)
	detector := detect.NewDetector(buffer, cfg.IssueBufferSize, streamer.Publish, clk, log)
	hub := api.NewHub(buffer, clk, log)
	server := api.NewServer(cfg, buffer, detector.Issues(), streamer.Status, hub, clk, log)

	log.Info("build monitor starting",
		zap.Int("port", cfg.Port),
		zap.String("container", cfg.ContainerName),
		zap.String("deployment_id", cfg.DeploymentID),
	)

	g, gctx := errgroup.WithContext(ctx)

	// The streamer may finish early (runtime never appears, stream ends);
	// the API keeps serving the buffer until the daemon is stopped.
	g.Go(func() error {
		streamer.Run(gctx)
		return nil
	})
	g.Go(func() error {
		detector.Run(gctx)
		return nil
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		err := server.Run(gctx)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	return g.Wait()
}
