package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFile(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "calendars.json"))
	require.NoError(t, err)
	assert.Empty(t, idx.Mappings)
	assert.Equal(t, "", idx.Get("Work"))
}

func TestSetSaveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "calendars.json")
	idx, err := Open(path)
	require.NoError(t, err)

	idx.Set("Work", "abc@group.calendar.google.com")
	require.NoError(t, idx.Save())

	reloaded, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "abc@group.calendar.google.com", reloaded.Get("Work"))
}

func TestSaveSkipsCleanIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendars.json")
	idx, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, idx.Save())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	idx.Set("Work", "id")
	idx.Set("Work", "id")
	require.NoError(t, idx.Save())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendars.json")
	idx, err := Open(path)
	require.NoError(t, err)
	idx.Set("Work", "id")
	idx.Remove("Work")
	idx.Remove("Missing")
	assert.Equal(t, "", idx.Get("Work"))
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calendars.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := Open(path)
	assert.Error(t, err)
}
