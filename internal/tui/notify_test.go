package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier(t *testing.T) {
	var out bytes.Buffer
	n := NewNotifier(&out)

	var sent []string
	n.runOS = func(title, message string) error {
		sent = append(sent, title+": "+message)
		return nil
	}

	require.NoError(t, n.Notify("snapview", "done", true))
	assert.Equal(t, Bell, out.String())
	assert.Empty(t, sent)

	out.Reset()
	require.NoError(t, n.Notify("snapview", "done", false))
	assert.Empty(t, out.String())
	assert.Equal(t, []string{"snapview: done"}, sent)
}
