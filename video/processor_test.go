package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mblakley/video-grouper/config"
	"github.com/mblakley/video-grouper/dirstate"
	"github.com/mblakley/video-grouper/task"
)

type fakeUploadEnqueuer struct {
	tasks []task.Task
}

func (f *fakeUploadEnqueuer) AddWork(t task.Task) error {
	f.tasks = append(f.tasks, t)
	return nil
}

type fakeNotifier struct {
	gameEndGroups []string
}

func (f *fakeNotifier) SendGameEnd(groupDir string) error {
	f.gameEndGroups = append(f.gameEndGroups, groupDir)
	return nil
}

func writeMatchInfo(t *testing.T, groupDir string) {
	t.Helper()
	content := "[MATCH]\nmy_team_name = Comets\nopponent_team_name = Rival FC\nlocation = Home Field\nstart_time_offset = 01:00\nend_time_offset = 02:00\n"
	require.NoError(t, os.WriteFile(filepath.Join(groupDir, "match_info.ini"), []byte(content), 0o644))
}

func TestProcessConvertEnqueuesCombineWhenAllConverted(t *testing.T) {
	groupDir := filepath.Join(t.TempDir(), "2026.07.30-10.00.00")
	require.NoError(t, os.MkdirAll(groupDir, 0o755))
	filePath := filepath.Join(groupDir, "seg1.dav")

	store := dirstate.NewStore()
	_, err := store.Update(groupDir, func(s *dirstate.State) error {
		s.EnsureFile(filePath)
		return nil
	})
	require.NoError(t, err)

	upload := &fakeUploadEnqueuer{}
	p := NewProcessor(store, upload, nil)
	p.convert = func(ctx context.Context, davPath string) (string, error) {
		return davPath + ".mp4", nil
	}

	require.NoError(t, p.Process(context.Background(), task.NewConvertTask(filePath)))

	st, err := store.Read(groupDir)
	require.NoError(t, err)
	require.Equal(t, dirstate.FileConverted, st.Files[filePath].Status)
	require.Len(t, upload.tasks, 1)
	require.Equal(t, task.TypeCombine, upload.tasks[0].Type)
}

func TestProcessConvertFailureMarksFailed(t *testing.T) {
	groupDir := filepath.Join(t.TempDir(), "2026.07.30-10.00.00")
	require.NoError(t, os.MkdirAll(groupDir, 0o755))
	filePath := filepath.Join(groupDir, "seg1.dav")

	store := dirstate.NewStore()
	upload := &fakeUploadEnqueuer{}
	p := NewProcessor(store, upload, nil)
	p.convert = func(ctx context.Context, davPath string) (string, error) {
		return "", errors.New("ffmpeg exit status 1")
	}

	err := p.Process(context.Background(), task.NewConvertTask(filePath))
	require.Error(t, err)

	st, rerr := store.Read(groupDir)
	require.NoError(t, rerr)
	require.Equal(t, dirstate.FileConvertFailed, st.Files[filePath].Status)
	require.Empty(t, upload.tasks)
}

func TestProcessCombineEnqueuesTrimWhenMatchInfoReady(t *testing.T) {
	groupDir := filepath.Join(t.TempDir(), "2026.07.30-10.00.00")
	require.NoError(t, os.MkdirAll(groupDir, 0o755))
	writeMatchInfo(t, groupDir)

	store := dirstate.NewStore()
	_, err := store.Update(groupDir, func(s *dirstate.State) error {
		s.EnsureFile(filepath.Join(groupDir, "seg1.dav")).Status = dirstate.FileConverted
		return nil
	})
	require.NoError(t, err)

	upload := &fakeUploadEnqueuer{}
	p := NewProcessor(store, upload, nil)
	p.combine = func(ctx context.Context, groupDir string, mp4Files []string) (string, error) {
		return filepath.Join(groupDir, combinedFileName), nil
	}

	require.NoError(t, p.Process(context.Background(), task.NewCombineTask(groupDir)))

	st, err := store.Read(groupDir)
	require.NoError(t, err)
	require.Equal(t, dirstate.GroupCombined, st.Status)
	require.Len(t, upload.tasks, 1)
	require.Equal(t, task.TypeTrim, upload.tasks[0].Type)
}

func TestProcessCombineFailsWhenNotAllConverted(t *testing.T) {
	groupDir := filepath.Join(t.TempDir(), "2026.07.30-10.00.00")
	require.NoError(t, os.MkdirAll(groupDir, 0o755))

	store := dirstate.NewStore()
	_, err := store.Update(groupDir, func(s *dirstate.State) error {
		s.EnsureFile(filepath.Join(groupDir, "seg1.dav")).Status = dirstate.FileDownloaded
		return nil
	})
	require.NoError(t, err)

	upload := &fakeUploadEnqueuer{}
	p := NewProcessor(store, upload, nil)

	err = p.Process(context.Background(), task.NewCombineTask(groupDir))
	require.Error(t, err)
	require.Empty(t, upload.tasks)
}

func TestProcessTrimEnqueuesUploadAndNotifies(t *testing.T) {
	groupDir := filepath.Join(t.TempDir(), "2026.07.30-10.00.00")
	require.NoError(t, os.MkdirAll(groupDir, 0o755))
	writeMatchInfo(t, groupDir)

	store := dirstate.NewStore()
	upload := &fakeUploadEnqueuer{}
	notify := &fakeNotifier{}
	p := NewProcessor(store, upload, notify)
	p.trim = func(ctx context.Context, groupDir string, mi config.MatchInfo) (string, bool, error) {
		return filepath.Join(groupDir, "trimmed.mp4"), false, nil
	}

	require.NoError(t, p.Process(context.Background(), task.NewTrimTask(groupDir, "", "")))

	st, err := store.Read(groupDir)
	require.NoError(t, err)
	require.Equal(t, dirstate.GroupTrimmed, st.Status)
	require.Len(t, upload.tasks, 1)
	require.Equal(t, task.TypeUpload, upload.tasks[0].Type)
	require.Equal(t, []string{groupDir}, notify.gameEndGroups)
}

func TestProcessTrimFailureMarksGroupFailed(t *testing.T) {
	groupDir := filepath.Join(t.TempDir(), "2026.07.30-10.00.00")
	require.NoError(t, os.MkdirAll(groupDir, 0o755))
	writeMatchInfo(t, groupDir)

	store := dirstate.NewStore()
	upload := &fakeUploadEnqueuer{}
	p := NewProcessor(store, upload, nil)
	p.trim = func(ctx context.Context, groupDir string, mi config.MatchInfo) (string, bool, error) {
		return "", false, errors.New("ffmpeg exit status 1")
	}

	err := p.Process(context.Background(), task.NewTrimTask(groupDir, "", ""))
	require.Error(t, err)

	st, rerr := store.Read(groupDir)
	require.NoError(t, rerr)
	require.Equal(t, dirstate.GroupFailed, st.Status)
	require.Empty(t, upload.tasks)
}
