package bench

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/errdefs"
	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/models"
	"github.com/therealtimex/realtimex-frappe/internal/logger"
)

// Runner shells out to the external bench toolchain with the bundled
// binary directories on PATH. Every step blocks until the subprocess
// exits; non-zero exits surface as *errdefs.ProvisioningError with the
// exit code propagated verbatim.
type Runner struct {
	cfg models.RealtimexConfig
}

// NewRunner returns a Runner bound to the given configuration.
func NewRunner(cfg models.RealtimexConfig) *Runner {
	return &Runner{cfg: cfg}
}

// Run executes `bench args...` in the given working directory,
// streaming output to the console.
func (r *Runner) Run(ctx context.Context, cwd string, args ...string) error {
	logger.Dim("$ bench %s\n", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "bench", args...)
	cmd.Dir = cwd
	cmd.Env = BuildEnvironment(r.cfg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		step := "bench"
		if len(args) > 0 {
			step = "bench " + args[0]
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &errdefs.ProvisioningError{Step: step, ExitCode: exitErr.ExitCode(), Err: err}
		}
		return &errdefs.ProvisioningError{Step: step, ExitCode: -1, Err: err}
	}
	return nil
}

// StartServerBackground launches `bench start` without blocking, for
// steps that need a running server (app installation during setup).
// The returned stop function terminates the server and waits for it.
func (r *Runner) StartServerBackground(ctx context.Context) (stop func(), err error) {
	logger.Dim("$ bench start (background)\n")

	cmd := exec.CommandContext(ctx, "bench", "start")
	cmd.Dir = r.cfg.Bench.Path
	cmd.Env = BuildEnvironment(r.cfg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, &errdefs.ProvisioningError{Step: "bench start", ExitCode: -1, Err: err}
	}

	return func() {
		_ = cmd.Process.Signal(syscall.SIGTERM)
		_ = cmd.Wait()
	}, nil
}

// StartServer launches `bench start` in the bench directory and blocks
// until it exits, forwarding termination signals to the child so the
// web server shuts down cleanly with the CLI.
func (r *Runner) StartServer(ctx context.Context) error {
	logger.Step("\nStarting bench at %s...\n", r.cfg.Bench.Path)
	logger.Dim("Site will be available at: http://%s:%d\n\n", r.cfg.Site.Name, r.cfg.Bench.Port)

	cmd := exec.CommandContext(ctx, "bench", "start")
	cmd.Dir = r.cfg.Bench.Path
	cmd.Env = BuildEnvironment(r.cfg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		return &errdefs.ProvisioningError{Step: "bench start", ExitCode: -1, Err: err}
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case sig := <-signals:
			_ = cmd.Process.Signal(sig)
		case err := <-done:
			if err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					return &errdefs.ProvisioningError{Step: "bench start", ExitCode: exitErr.ExitCode(), Err: err}
				}
				return &errdefs.ProvisioningError{Step: "bench start", ExitCode: -1, Err: err}
			}
			return nil
		}
	}
}
