package install

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/pkgspec"
)

// Installer materializes packages into a plugin package directory.
type Installer interface {
	// Install installs packages (spec strings such as "name@1.0.0") into
	// dir in a single batch. devPaths maps package names to local
	// directories used in place of the registry.
	Install(ctx context.Context, packages []string, dir string, devPaths map[string]string) (*InstallReport, error)
}

// InstallReport tells which source each installed package came from.
// Entries are package names.
type InstallReport struct {
	LocalPackages      []string `json:"localPackages"`
	ProductionPackages []string `json:"productionPackages"`
}

// CommandResult is the outcome of an executed command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool { return r.ExitCode == 0 }

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes command and captures its output. A non-zero exit is
// reported in the result, not as an error.
func (ExecRunner) Run(ctx context.Context, command string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}

// DefaultNpmPath is the npm executable looked up on PATH.
const DefaultNpmPath = "npm"

// NpmInstaller installs packages with "npm install --save --prefix <dir>".
type NpmInstaller struct {
	Runner  CommandRunner // Defaults to ExecRunner
	NpmPath string        // Defaults to DefaultNpmPath
	Logger  *log.Logger
}

// Install runs npm once for all packages. Packages with a dev path, or
// given as a local directory, are reported as local.
func (n *NpmInstaller) Install(ctx context.Context, packages []string, dir string, devPaths map[string]string) (*InstallReport, error) {
	if len(packages) == 0 {
		return &InstallReport{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create plugin package directory")
	}

	report := &InstallReport{}
	args := []string{"install", "--save", "--prefix", dir}
	for _, p := range packages {
		spec, err := pkgspec.Parse(p)
		if err != nil {
			return nil, err
		}
		switch path, ok := devPaths[spec.Name]; {
		case ok:
			args = append(args, path)
			report.LocalPackages = append(report.LocalPackages, spec.Name)
		case pkgspec.IsLocalPath(p):
			args = append(args, p)
			report.LocalPackages = append(report.LocalPackages, spec.Name)
		default:
			args = append(args, p)
			report.ProductionPackages = append(report.ProductionPackages, spec.Name)
		}
	}

	n.logger().Debug("running npm", "args", args)
	res, err := n.runner().Run(ctx, n.npmPath(), args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "run %s", n.npmPath())
	}
	if !res.Success() {
		return nil, errors.Wrap(errors.ErrCodeInternal,
			stderrors.New(strings.TrimSpace(res.Stderr)),
			"npm install exited with code %d", res.ExitCode)
	}
	return report, nil
}

func (n *NpmInstaller) runner() CommandRunner {
	if n.Runner == nil {
		return ExecRunner{}
	}
	return n.Runner
}

func (n *NpmInstaller) npmPath() string {
	if n.NpmPath == "" {
		return DefaultNpmPath
	}
	return n.NpmPath
}

var discard = log.New(io.Discard)

func (n *NpmInstaller) logger() *log.Logger {
	if n.Logger == nil {
		return discard
	}
	return n.Logger
}

var (
	_ Installer     = (*NpmInstaller)(nil)
	_ CommandRunner = ExecRunner{}
)
