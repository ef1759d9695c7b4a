package helper

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"cmon/internal/logging"
)

// Runner starts a helper program and feeds its output through Parse.
type Runner interface {
	Run(ctx context.Context, path string, args []string, proto Protocol, fn Handler) error
}

// ExecRunner runs helpers as subprocesses. Helper stderr is discarded and a
// non-zero helper exit is logged rather than returned.
type ExecRunner struct{}

// Path resolves a helper name in binDir, or on PATH when binDir is empty.
func Path(binDir, name string) string {
	if binDir == "" {
		return name
	}
	return filepath.Join(binDir, name)
}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, path string, args []string, proto Protocol, fn Handler) error {
	cmd := exec.CommandContext(ctx, path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("error creating helper pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting helper %s: %w", path, err)
	}

	perr := Parse(stdout, proto, fn)
	if perr != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	werr := cmd.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if perr != nil {
		return perr
	}
	if werr != nil {
		logging.Warn("Helper exited abnormally", map[string]interface{}{
			"helper": path,
			"error":  werr.Error(),
		})
	}
	return nil
}
