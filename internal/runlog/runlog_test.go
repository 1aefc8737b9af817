package runlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2025, 9, 30, 11, 49, 23, 0, time.UTC)
	assert.Equal(t, "import_20250930_114923.log", FileName("import", ts))
}

func TestSetup_WritesLogFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JOURNAL_STREAM", "")
	os.Unsetenv("JOURNAL_STREAM")

	closeLog, err := Setup("fix-hierarchy", dir, false)
	require.NoError(t, err)

	log.Info().Msg("hello from test")
	closeLog()

	matches, err := filepath.Glob(filepath.Join(dir, "fix-hierarchy_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}
