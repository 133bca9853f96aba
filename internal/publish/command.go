package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Iron-Ham/shipyard/internal/workspace"
)

// CommandPublisher runs a shell command in each package directory. The
// command sees the package through SHIPYARD_PACKAGE and SHIPYARD_VERSION
// environment variables.
type CommandPublisher struct {
	// Command is the shell command line, run via sh -c
	Command string
}

var _ Publisher = (*CommandPublisher)(nil)

// NewCommandPublisher creates a CommandPublisher for command.
func NewCommandPublisher(command string) *CommandPublisher {
	return &CommandPublisher{Command: command}
}

// Publish runs the configured command with the package directory as working
// directory. A non-zero exit becomes an error carrying the command's output
// so retry logs and the final report show what went wrong.
func (c *CommandPublisher) Publish(ctx context.Context, pkg *workspace.Package) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", c.Command)
	cmd.Dir = pkg.Dir
	cmd.Env = append(os.Environ(),
		"SHIPYARD_PACKAGE="+pkg.Name(),
		"SHIPYARD_VERSION="+pkg.Manifest.Version,
	)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		// Distinguish cancellation from a genuine command failure so
		// the scheduler does not retry an interrupted command.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		msg := strings.TrimSpace(output.String())
		if msg == "" {
			return fmt.Errorf("publish command: %w", err)
		}
		return fmt.Errorf("publish command: %w: %s", err, lastLines(msg, 5))
	}
	return nil
}

// lastLines returns at most n trailing lines of s.
func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
