package dirstate

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateCreatesGroupDirAndFile(t *testing.T) {
	root := t.TempDir()
	groupDir := filepath.Join(root, "2026.07.30-10.00.00")
	store := NewStore()

	st, err := store.Update(groupDir, func(s *State) error {
		s.EnsureFile(filepath.Join(groupDir, "a.dav"))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, GroupPending, st.Status)
	require.Contains(t, st.Files, filepath.Join(groupDir, "a.dav"))

	loaded, err := store.Read(groupDir)
	require.NoError(t, err)
	require.Equal(t, FileQueued, loaded.Files[filepath.Join(groupDir, "a.dav")].Status)
}

func TestAllConvertedIgnoresSkipped(t *testing.T) {
	s := NewState()
	s.Files["a"] = &FileRecord{Status: FileConverted}
	s.Files["b"] = &FileRecord{Status: FileDownloadFailed, Skip: true}
	require.True(t, s.AllConverted())

	s.Files["c"] = &FileRecord{Status: FileDownloaded}
	require.False(t, s.AllConverted())
}

func TestUpdateSerializesConcurrentWriters(t *testing.T) {
	root := t.TempDir()
	groupDir := filepath.Join(root, "group")
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := store.Update(groupDir, func(s *State) error {
				s.EnsureFile(filepath.Join(groupDir, "file"))
				s.Files[filepath.Join(groupDir, "file")].LastError = ""
				return nil
			})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st, err := store.Read(groupDir)
	require.NoError(t, err)
	require.Len(t, st.Files, 1)
}
