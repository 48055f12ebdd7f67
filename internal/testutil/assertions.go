package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/display"
	"github.com/thruflo/snapview/internal/stage"
)

// AssertStage asserts that frame was derived as want.
func AssertStage(t *testing.T, frame display.Frame, want stage.Stage) {
	t.Helper()
	assert.Equal(t, want, frame.Stage, "frame stage mismatch (title %q)", frame.Title)
}

// AssertStatusText asserts the plain text frame sends to target.
func AssertStatusText(t *testing.T, frame display.Frame, target stage.Stage, want string) {
	t.Helper()
	c, ok := frame.Status(target)
	require.True(t, ok, "no status for %s", target)
	assert.Equal(t, want, c.Plain(), "status for %s mismatch", target)
}

// AssertActionNames asserts that cmds carry exactly names, in order.
func AssertActionNames(t *testing.T, cmds []actions.Command, names ...string) {
	t.Helper()

	got := make([]string, len(cmds))
	for i, cmd := range cmds {
		got[i] = cmd.Name
	}
	if len(names) == 0 {
		names = []string{}
	}
	assert.Equal(t, names, got, "offered commands mismatch")
}
