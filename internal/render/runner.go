package render

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/raphigaziano/markyond/internal/process"
)

// waitDelay bounds how long Wait keeps reading output after the process
// group was killed.
const waitDelay = 2 * time.Second

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	// Run executes name in dir and returns its combined stdout and stderr.
	Run(ctx context.Context, dir, name string, args ...string) (output string, err error)
}

// ExecRunner implements CommandRunner using os/exec. The command runs in its
// own process group, killed as a whole when ctx is done.
type ExecRunner struct{}

var _ CommandRunner = (*ExecRunner)(nil)

func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- renderer binary is operator configuration
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	process.SetProcessGroup(cmd)
	cmd.Cancel = func() error {
		return process.KillProcessGroup(cmd.Process.Pid)
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	return out.String(), err
}
