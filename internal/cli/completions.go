package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobman-sh/jobman/internal/errs"
)

// completionSentinel marks lines we own in rc files so installs stay
// idempotent.
const completionSentinel = "managed by jobman install-completions"

// NewInstallCompletionsCmd creates the 'install-completions' command.
func NewInstallCompletionsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install-completions [SHELL]",
		Short: "Install shell completions for jobman",
		Long: `Install a completion hook into the shell's rc file. SHELL is one of
bash, zsh, or fish; when omitted it is inferred from $SHELL. Running the
command twice leaves a single hook in place.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := ""
			if len(args) == 1 {
				shell = args[0]
			}
			home, err := os.UserHomeDir()
			if err != nil {
				return errs.Wrap(errs.CodeOSErr, err, "cannot locate home directory")
			}
			path, installed, err := InstallCompletions(shell, home)
			if err != nil {
				return err
			}
			if installed {
				a.disp.Info("installed completions in %s", path)
			} else {
				a.disp.Info("completions already installed in %s", path)
			}
			return nil
		},
	}
	return cmd
}

// InstallCompletions appends the completion hook for the given shell to the
// right file under home. It reports the file touched and whether anything
// was written; a file already carrying the sentinel is left alone.
func InstallCompletions(shell, home string) (string, bool, error) {
	if shell == "" {
		shellEnv := os.Getenv("SHELL")
		if shellEnv == "" {
			return "", false, errs.New(errs.CodeNotFound,
				"cannot infer shell: $SHELL is not set, pass the shell explicitly")
		}
		shell = filepath.Base(shellEnv)
	}

	var path, line string
	switch shell {
	case "bash":
		path = filepath.Join(home, ".bashrc")
		line = "source <(jobman completion bash) # " + completionSentinel
	case "zsh":
		path = filepath.Join(home, ".zshrc")
		line = "source <(jobman completion zsh) # " + completionSentinel
	case "fish":
		path = filepath.Join(home, ".config", "fish", "completions", "jobman.fish")
		line = "jobman completion fish | source # " + completionSentinel
	default:
		return "", false, errs.New(errs.CodeUnavailable, "unsupported shell %q", shell)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return "", false, err
	}
	if strings.Contains(string(data), completionSentinel) {
		return path, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	content := line + "\n"
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		content = "\n" + content
	}
	if _, err := f.WriteString(content); err != nil {
		return "", false, err
	}
	return path, true, nil
}
