package actions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/thruflo/snapview/internal/config"
	"github.com/thruflo/snapview/internal/logging"
)

// ExecTrigger runs a local command, typically one of the pipeline's
// export scripts.
type ExecTrigger struct {
	Name string
	Args []string
	Dir  string
}

// Fire runs the command and waits for it to exit. Combined output is
// logged at debug level and included in the error on failure.
func (e *ExecTrigger) Fire(ctx context.Context) error {
	if len(e.Args) == 0 {
		return fmt.Errorf("%s: %w", e.Name, ErrNotConfigured)
	}

	cmd := exec.CommandContext(ctx, e.Args[0], e.Args[1:]...)
	cmd.Dir = e.Dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	logging.Debug("action command finished", "action", e.Name, "output", strings.TrimSpace(out.String()))
	if err != nil {
		return fmt.Errorf("action %s failed: %w: %s", e.Name, err, strings.TrimSpace(out.String()))
	}
	return nil
}

// HTTPTrigger calls an endpoint exposed by the pipeline.
type HTTPTrigger struct {
	Name   string
	URL    string
	Method string
	Client *http.Client
}

// Fire sends the request. Any non-2xx response is an error.
func (h *HTTPTrigger) Fire(ctx context.Context) error {
	if h.URL == "" {
		return fmt.Errorf("%s: %w", h.Name, ErrNotConfigured)
	}

	method := h.Method
	if method == "" {
		method = http.MethodPost
	}
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, method, h.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("action %s failed: %w", h.Name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("action %s failed: endpoint returned %d", h.Name, resp.StatusCode)
	}
	return nil
}

// TriggersFromConfig builds triggers for each configured action. A command
// takes precedence over a URL. Commands run in baseDir.
func TriggersFromConfig(cfg map[string]config.Action, baseDir string) (map[string]Trigger, error) {
	triggers := make(map[string]Trigger, len(cfg))
	var errs []error

	for name, a := range cfg {
		if !slices.Contains(Names, name) {
			errs = append(errs, fmt.Errorf("action %s: %w", name, ErrUnknownAction))
			continue
		}
		switch {
		case len(a.Command) > 0:
			triggers[name] = &ExecTrigger{Name: name, Args: a.Command, Dir: baseDir}
		case a.URL != "":
			triggers[name] = &HTTPTrigger{Name: name, URL: a.URL, Method: a.Method}
		default:
			errs = append(errs, fmt.Errorf("action %s: needs command or url", name))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return triggers, nil
}
