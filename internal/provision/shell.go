// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// RunInline interprets a shell snippet with the session's environment
// active, so `python` and console scripts resolve to the session's
// interpreter first. The returned int is the snippet's exit status.
func (m *Manager) RunInline(ctx context.Context, s Session, snippet string, args []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(snippet), "snippet")
	if err != nil {
		return 1, fmt.Errorf("snippet syntax error: %w", err)
	}

	env := append(os.Environ(), m.sessionEnv(s)...)
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(stdin, stdout, stderr),
	}
	// "--" keeps snippet args that look like flags out of the shell's
	// own option parsing.
	if len(args) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, args...)...))
	}

	sh, err := interp.New(opts...)
	if err != nil {
		return 1, fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := sh.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return int(status), nil
		}
		return 1, fmt.Errorf("snippet execution failed: %w", err)
	}
	return 0, nil
}
