package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyFileWriterRollsOver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	w := newDailyFileWriter(dir, "session")
	w.now = func() time.Time { return day }
	t.Cleanup(func() { w.Close() })

	_, err := w.Write([]byte("first\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "session-2026-03-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "session-2026-03-02.log"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(second))
}

func TestDailyFileWriterOpensLazily(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	w := newDailyFileWriter(dir, "tui")
	require.NoError(t, w.Close())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "nothing is created before the first write")
}
