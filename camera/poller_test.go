package camera

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mblakley/video-grouper/task"
)

type fakeCamera struct {
	available  bool
	recordings []Recording
	availErr   error
}

func (f *fakeCamera) CheckAvailability(ctx context.Context) error {
	if !f.available {
		return f.availErr
	}
	return nil
}

func (f *fakeCamera) ListRecordings(ctx context.Context, since time.Time) ([]Recording, error) {
	var out []Recording
	for _, r := range f.recordings {
		if r.End.After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCamera) DownloadFile(ctx context.Context, remotePath string, w io.Writer) error {
	return nil
}

type fakeEnqueuer struct {
	tasks []task.Task
}

func (f *fakeEnqueuer) AddWork(t task.Task) error {
	f.tasks = append(f.tasks, t)
	return nil
}

func TestTickGroupsTwoCloseSegments(t *testing.T) {
	storage := t.TempDir()
	base := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	cam := &fakeCamera{
		available: true,
		recordings: []Recording{
			{RemotePath: "/cam/seg1.dav", Start: base, End: base.Add(30 * time.Minute), SizeBytes: 1 << 20},
			{RemotePath: "/cam/seg2.dav", Start: base.Add(30*time.Minute + 3*time.Second), End: base.Add(60 * time.Minute), SizeBytes: 1 << 20},
		},
	}
	enq := &fakeEnqueuer{}
	p := NewPoller(cam, storage, time.Minute, enq)

	p.tick(context.Background())

	require.Len(t, enq.tasks, 2)
	require.Equal(t, filepath.Dir(enq.tasks[0].LocalPath), filepath.Dir(enq.tasks[1].LocalPath))
}

func TestTickStartsNewGroupPastProximityWindow(t *testing.T) {
	storage := t.TempDir()
	base := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	cam := &fakeCamera{
		available: true,
		recordings: []Recording{
			{RemotePath: "/cam/seg1.dav", Start: base, End: base.Add(30 * time.Minute), SizeBytes: 1 << 20},
			{RemotePath: "/cam/seg2.dav", Start: base.Add(30*time.Minute + 5*time.Second + time.Microsecond), End: base.Add(60 * time.Minute), SizeBytes: 1 << 20},
		},
	}
	enq := &fakeEnqueuer{}
	p := NewPoller(cam, storage, time.Minute, enq)

	p.tick(context.Background())

	require.Len(t, enq.tasks, 2)
	require.NotEqual(t, filepath.Dir(enq.tasks[0].LocalPath), filepath.Dir(enq.tasks[1].LocalPath))
}

func TestTickRecordsDisconnectEvent(t *testing.T) {
	storage := t.TempDir()
	cam := &fakeCamera{available: false, availErr: errors.New("connection refused")}
	enq := &fakeEnqueuer{}
	p := NewPoller(cam, storage, time.Minute, enq)

	p.tick(context.Background())

	sf, err := p.state.Load()
	require.NoError(t, err)
	require.Len(t, sf.ConnectionEvents, 1)
	require.Equal(t, EventDisconnected, sf.ConnectionEvents[0].EventType)
	require.Empty(t, enq.tasks)
}

func TestTickSkipsExistingLocalFile(t *testing.T) {
	storage := t.TempDir()
	base := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	groupDir := filepath.Join(storage, base.Format(groupDirLayout))
	require.NoError(t, os.MkdirAll(groupDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(groupDir, "seg1.dav"), []byte("x"), 0o644))

	cam := &fakeCamera{
		available: true,
		recordings: []Recording{
			{RemotePath: "/cam/seg1.dav", Start: base, End: base.Add(30 * time.Minute), SizeBytes: 1},
		},
	}
	enq := &fakeEnqueuer{}
	p := NewPoller(cam, storage, time.Minute, enq)

	p.tick(context.Background())

	require.Empty(t, enq.tasks)
}
