package dependency

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command in dir and returns its stdout.
// Output is returned even when the command exits non-zero, since npm
// signals findings through the exit status.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, firstLine(msg))
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// NpmOption configures the npm collaborators.
type NpmOption func(*npmCommand)

type npmCommand struct {
	command []string
	runner  Runner
}

// WithCommand overrides the command line, e.g. to use pnpm or a wrapper.
func WithCommand(command []string) NpmOption {
	return func(c *npmCommand) {
		if len(command) > 0 {
			c.command = command
		}
	}
}

// WithRunner sets the command runner (useful for testing).
func WithRunner(r Runner) NpmOption {
	return func(c *npmCommand) {
		c.runner = r
	}
}

func newNpmCommand(defaults []string, opts []NpmOption) npmCommand {
	c := npmCommand{command: defaults, runner: ExecRunner{}}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// run executes the command for a package.json request. Stdout is used
// whenever there is any; the exit error only matters when there is not.
func (c npmCommand) run(ctx context.Context, req Request) ([]byte, error) {
	if req.Manifest != PackageJSON {
		return nil, fmt.Errorf("%s: %w", req.Manifest, ErrUnsupportedManifest)
	}

	out, err := c.runner.Run(ctx, req.Dir, c.command[0], c.command[1:]...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if len(bytes.TrimSpace(out)) == 0 {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: empty output", strings.Join(c.command, " "))
	}
	return out, nil
}

// npmError is the error object npm prints as JSON, e.g. ENOLOCK.
type npmError struct {
	Code    string `json:"code"`
	Summary string `json:"summary"`
}

func (e *npmError) Error() string {
	return fmt.Sprintf("npm %s: %s", e.Code, firstLine(e.Summary))
}

// NpmAuditor runs `npm audit --json` in the project directory.
type NpmAuditor struct {
	cmd npmCommand
}

// NewNpmAuditor creates an auditor backed by npm.
func NewNpmAuditor(opts ...NpmOption) *NpmAuditor {
	return &NpmAuditor{cmd: newNpmCommand([]string{"npm", "audit", "--json"}, opts)}
}

// Audit implements Auditor. npm only lists vulnerable packages, so after a
// successful run every requested dependency gets a count.
func (a *NpmAuditor) Audit(ctx context.Context, req Request) (map[string]int, error) {
	out, err := a.cmd.run(ctx, req)
	if err != nil {
		return nil, err
	}

	var report struct {
		Vulnerabilities map[string]struct {
			Via []json.RawMessage `json:"via"`
		} `json:"vulnerabilities"`
		Error *npmError `json:"error"`
	}
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("decode npm audit output: %w", err)
	}
	if report.Error != nil {
		return nil, report.Error
	}

	counts := make(map[string]int, len(req.Dependencies))
	for _, d := range req.Dependencies {
		counts[d.Name] = len(report.Vulnerabilities[d.Name].Via)
	}
	return counts, nil
}

// NpmOutdated runs `npm outdated --json` in the project directory.
type NpmOutdated struct {
	cmd npmCommand
}

// NewNpmOutdated creates an outdated checker backed by npm.
func NewNpmOutdated(opts ...NpmOption) *NpmOutdated {
	return &NpmOutdated{cmd: newNpmCommand([]string{"npm", "outdated", "--json"}, opts)}
}

// Outdated implements OutdatedChecker.
func (o *NpmOutdated) Outdated(ctx context.Context, req Request) (map[string]bool, error) {
	out, err := o.cmd.run(ctx, req)
	if err != nil {
		return nil, err
	}

	var listed map[string]json.RawMessage
	if err := json.Unmarshal(out, &listed); err != nil {
		return nil, fmt.Errorf("decode npm outdated output: %w", err)
	}

	result := make(map[string]bool, len(req.Dependencies))
	for _, d := range req.Dependencies {
		_, result[d.Name] = listed[d.Name]
	}

	if raw, ok := listed["error"]; ok && !result["error"] {
		var e npmError
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, errors.New("npm outdated reported an error")
		}
		return nil, &e
	}
	return result, nil
}
