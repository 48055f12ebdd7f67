package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thruflo/snapview/internal/config"
	"github.com/thruflo/snapview/internal/progress"
)

// SetupTestDir creates a temp directory with an empty .snapview directory
// and returns its path.
func SetupTestDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Dir(config.Path(dir)), 0o755))
	return dir
}

// WriteProgress writes snap to the default progress file under dir and
// returns the file's path.
func WriteProgress(t *testing.T, dir string, snap progress.Snapshot) string {
	t.Helper()

	path := filepath.Join(dir, config.DefaultSourceFile)
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, MustMarshalJSON(t, snap), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	return path
}

// MustMarshalJSON marshals v to JSON or fails the test.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// MustUnmarshalJSON unmarshals data into v or fails the test.
func MustUnmarshalJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, v))
}
