package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mblakley/video-grouper/task"
)

type fakeQueue struct {
	tasks []task.Task
}

func (f *fakeQueue) AddWork(t task.Task) error {
	f.tasks = append(f.tasks, t)
	return nil
}

func TestRouterDispatchesByQueue(t *testing.T) {
	r := NewTaskRouter()
	download := &fakeQueue{}
	video := &fakeQueue{}
	upload := &fakeQueue{}
	r.Register(task.QueueDownload, download)
	r.Register(task.QueueVideo, video)
	r.Register(task.QueueUpload, upload)

	require.NoError(t, r.AddWork(task.NewDownloadTask("/cam/seg1.dav", "/local/seg1.dav", time.Time{}, time.Time{}, 0)))
	require.NoError(t, r.AddWork(task.NewConvertTask("/local/seg1.dav")))
	require.NoError(t, r.AddWork(task.NewUploadTask("/local/group")))

	require.Len(t, download.tasks, 1)
	require.Len(t, video.tasks, 1)
	require.Len(t, upload.tasks, 1)
}

func TestRouterErrorsOnUnregisteredQueue(t *testing.T) {
	r := NewTaskRouter()
	err := r.AddWork(task.NewUploadTask("/local/group"))
	require.Error(t, err)
}
