package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vango-dev/thinclient/internal/errors"
	"github.com/vango-dev/thinclient/pkg/client"
	"github.com/vango-dev/thinclient/pkg/vdom"
)

// interaction is one parsed line of interactive input.
type interaction struct {
	event string
	path  vdom.Path
	value []string
}

// parsePath parses a dot-separated child index path. "/" and "." denote
// the root.
func parsePath(s string) (vdom.Path, error) {
	if s == "/" || s == "." {
		return vdom.Path{}, nil
	}
	parts := strings.Split(s, ".")
	path := make(vdom.Path, 0, len(parts))
	for _, part := range parts {
		i, err := strconv.Atoi(part)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("invalid path segment %q", part)
		}
		path = append(path, i)
	}
	return path, nil
}

// parseInteraction parses "<event> <path> [value]". Everything after the
// path is taken verbatim as the value so it may contain spaces.
func parseInteraction(line string) (interaction, error) {
	fields := strings.SplitN(strings.TrimSpace(line), " ", 3)
	if len(fields) < 2 || fields[0] == "" {
		return interaction{}, errors.New("T050").
			WithDetail("expected: <event> <path> [value]").
			WithField("input", line)
	}

	path, err := parsePath(fields[1])
	if err != nil {
		return interaction{}, errors.New("T050").WithField("input", line).Wrap(err)
	}

	in := interaction{event: fields[0], path: path}
	if len(fields) == 3 {
		in.value = []string{fields[2]}
	}
	return in, nil
}

// readInteractions queues every line read from r as an interaction on
// sess until r ends or ctx is done. Blank lines and lines starting with
// '#' are ignored.
func readInteractions(ctx context.Context, r io.Reader, sess *client.Session, errOut io.Writer) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		in, err := parseInteraction(line)
		if err != nil {
			errors.Fprint(errOut, err)
			continue
		}
		if err := sess.Interact(in.path, in.event, in.value...); err != nil {
			warn(errOut, "interaction dropped: %v", err)
			if err == client.ErrSessionClosed {
				return
			}
		}
	}
}
