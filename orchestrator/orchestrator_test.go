package orchestrator

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mblakley/video-grouper/camera"
	"github.com/mblakley/video-grouper/config"
)

type fakeCamera struct {
	closed bool
}

func (f *fakeCamera) CheckAvailability(ctx context.Context) error { return nil }

func (f *fakeCamera) ListRecordings(ctx context.Context, since time.Time) ([]camera.Recording, error) {
	return nil, nil
}

func (f *fakeCamera) DownloadFile(ctx context.Context, remotePath string, w io.Writer) error {
	return nil
}

func (f *fakeCamera) Close() error {
	f.closed = true
	return nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		StoragePath:         t.TempDir(),
		MyTeamName:          "Comets",
		PollIntervalSeconds: 1,
		Camera:              config.CameraConfig{Type: "dahua"},
	}
}

func TestNewRejectsUnknownCameraType(t *testing.T) {
	cfg := testConfig(t)
	cfg.Camera.Type = "unknown-vendor"
	_, err := New(cfg, &fakeCamera{})
	require.Error(t, err)
}

func TestInitializeAndShutdownClosesCamera(t *testing.T) {
	cfg := testConfig(t)
	cam := &fakeCamera{}
	o, err := New(cfg, cam)
	require.NoError(t, err)

	require.NoError(t, o.Initialize(context.Background()))
	require.NoError(t, o.Shutdown())
	require.True(t, cam.closed)
}
