package supervisor

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/jobman-sh/jobman/internal/errs"
)

// SuperviseCommand is the hidden subcommand the detached supervisor process
// is started with.
const SuperviseCommand = "_supervise"

// Detach spawns the detached supervisor for jobID and returns in the calling
// (terminal-attached) process. The spawned process re-executes this binary
// with the hidden supervise subcommand in a fresh session: it is a session
// leader with no controlling terminal and null standard streams, which is
// the re-exec equivalent of the classical double fork. The caller must have
// already printed the job id before calling this.
func Detach(jobID string) error {
	exe, err := os.Executable()
	if err != nil {
		return errs.Wrap(errs.CodeOSErr, err, "cannot locate own executable")
	}

	cmd := exec.Command(exe, SuperviseCommand, jobID)
	// nil Stdin/Stdout/Stderr connect the child to the null device.
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return errs.Wrap(errs.CodeOSErr, err, "failed to detach supervisor")
	}

	// The supervisor runs until the job completes; do not wait for it. The
	// terminal process exits right after this and the supervisor is
	// reparented to init.
	return cmd.Process.Release()
}
