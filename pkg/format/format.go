// Package format pipes converted code through an external formatter such as
// prettier. The command reads the code on stdin and writes the result to
// stdout.
package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// FilePlaceholder in a command is replaced with the unit's file name, e.g.
// "prettier --stdin-filepath {file}".
const FilePlaceholder = "{file}"

// DefaultTimeout bounds one formatter run.
const DefaultTimeout = 10 * time.Second

// ErrFormatFailed reports a formatter that exited non-zero, timed out or
// printed nothing.
var ErrFormatFailed = errors.New("formatter failed")

// Formatter runs one external command. A nil Formatter returns code unchanged.
type Formatter struct {
	argv    []string
	timeout time.Duration
}

// New parses command into arguments split on whitespace. It returns nil for
// an empty command.
func New(command string, timeout time.Duration) *Formatter {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Formatter{argv: argv, timeout: timeout}
}

// Command returns the command line with the file placeholder left in place.
func (f *Formatter) Command() string {
	if f == nil {
		return ""
	}

	return strings.Join(f.argv, " ")
}

// Format runs the command with code on stdin.
func (f *Formatter) Format(ctx context.Context, filename, code string) (string, error) {
	if f == nil {
		return code, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	args := make([]string, 0, len(f.argv)-1)
	for _, arg := range f.argv[1:] {
		args = append(args, strings.ReplaceAll(arg, FilePlaceholder, filename))
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, f.argv[0], args...)
	cmd.Stdin = strings.NewReader(code)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s: %w: %s", ErrFormatFailed, f.argv[0], err, strings.TrimSpace(stderr.String()))
	}

	if stdout.Len() == 0 && code != "" {
		return "", fmt.Errorf("%w: %s: empty output", ErrFormatFailed, f.argv[0])
	}

	return stdout.String(), nil
}
