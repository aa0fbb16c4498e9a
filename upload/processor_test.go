package upload

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

var errTestUpload = errors.New("upload failed")

type fakeYoutubeClient struct {
	uploadErr   error
	uploadCalls []string
}

func (f *fakeYoutubeClient) GetOrCreatePlaylist(ctx context.Context, name, description, privacyStatus string) (string, error) {
	return "playlist-" + name, nil
}

func (f *fakeYoutubeClient) UploadVideo(ctx context.Context, path, title, description, privacyStatus, playlistID string) (string, error) {
	f.uploadCalls = append(f.uploadCalls, path)
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "video-id", nil
}

type fakeNotifier struct {
	waiting   map[string]bool
	requested int
}

func newFakeNotifier() *fakeNotifier { return &fakeNotifier{waiting: map[string]bool{}} }

func (f *fakeNotifier) IsWaitingForInput(groupDir string) bool { return f.waiting[groupDir] }

func (f *fakeNotifier) RequestPlaylistName(groupDir, teamName string) error {
	f.requested++
	f.waiting[groupDir] = true
	return nil
}

// rawSubdirName and rawFileName mirror video/trim.go's TrimOutputPath: the
// trimmed raw artifact lives in a match-info-derived subdirectory of the
// group dir, not the group dir itself.
const (
	rawSubdirName     = "2026.07.30 - Comets vs Rockets (Home)"
	rawFileName       = "comets-rockets-home-07-30-2026-raw.mp4"
	processedFileName = "comets-rockets-home-07-30-2026.mp4"
)

func setupGroup(t *testing.T) (groupDir string, storage string) {
	t.Helper()
	storage = t.TempDir()
	groupDir = filepath.Join(storage, "2026.07.30-10.00.00")
	subdir := filepath.Join(groupDir, rawSubdirName)
	require.NoError(t, os.MkdirAll(subdir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(groupDir, "match_info.ini"), []byte(
		"[MATCH]\nmy_team_name = Comets\nopponent_team_name = Rockets\nlocation = Home\nstart_time_offset = 00:05:00\n"),
		0o644))
	require.NoError(t, os.WriteFile(filepath.Join(subdir, rawFileName), []byte("raw"), 0o644))
	return groupDir, storage
}

func newTestProcessor(t *testing.T, groupDir, storage string, client YoutubeClient, notify Notifier) (*Processor, *PlaylistMap) {
	t.Helper()
	state := dirstate.NewStore()
	playlist := NewPlaylistMap(storage)
	cfg := config.Config{
		StoragePath: storage,
		MyTeamName:  "Comets",
		Youtube: config.YoutubeConfig{
			Processed: config.YoutubePlaylistConfig{NameFormat: "{my_team_name} Processed", PrivacyStatus: "unlisted"},
			Raw:       config.YoutubePlaylistConfig{NameFormat: "{my_team_name} Raw", PrivacyStatus: "unlisted"},
		},
	}
	p := NewProcessor(cfg, state, playlist, notify, nil)
	p.newYoutubeClient = func(ctx context.Context) (YoutubeClient, error) { return client, nil }
	return p, playlist
}

func TestProcessUploadsRawArtifactAndMarksUploaded(t *testing.T) {
	groupDir, storage := setupGroup(t)
	client := &fakeYoutubeClient{}
	notify := newFakeNotifier()
	p, playlist := newTestProcessor(t, groupDir, storage, client, notify)
	require.NoError(t, playlist.Set("Comets", "Comets Playlist"))

	err := p.Process(context.Background(), task.NewUploadTask(groupDir))
	require.NoError(t, err)
	require.Len(t, client.uploadCalls, 1)

	st, err := p.state.Read(groupDir)
	require.NoError(t, err)
	require.Equal(t, dirstate.GroupYoutubeUploaded, st.Status)
}

type fakeBackupMirror struct {
	calls []string
}

func (f *fakeBackupMirror) UploadArtifacts(groupDir string) {
	f.calls = append(f.calls, groupDir)
}

func TestProcessInvokesBackupMirrorAfterSuccessfulUpload(t *testing.T) {
	groupDir, storage := setupGroup(t)
	client := &fakeYoutubeClient{}
	notify := newFakeNotifier()
	p, playlist := newTestProcessor(t, groupDir, storage, client, notify)
	require.NoError(t, playlist.Set("Comets", "Comets Playlist"))
	mirror := &fakeBackupMirror{}
	p.backup = mirror

	err := p.Process(context.Background(), task.NewUploadTask(groupDir))
	require.NoError(t, err)
	require.Equal(t, []string{groupDir}, mirror.calls)
}

func TestProcessMissingCredentialsSkipsWithoutError(t *testing.T) {
	groupDir, storage := setupGroup(t)
	notify := newFakeNotifier()
	p, playlist := newTestProcessor(t, groupDir, storage, nil, notify)
	require.NoError(t, playlist.Set("Comets", "Comets Playlist"))
	p.newYoutubeClient = func(ctx context.Context) (YoutubeClient, error) { return nil, ErrCredentialsMissing }

	err := p.Process(context.Background(), task.NewUploadTask(groupDir))
	require.NoError(t, err)

	st, err := p.state.Read(groupDir)
	require.NoError(t, err)
	require.Equal(t, dirstate.GroupPending, st.Status)
}

func TestProcessMissingPlaylistRequestsNameAndReturnsWithoutMarkingDone(t *testing.T) {
	groupDir, storage := setupGroup(t)
	client := &fakeYoutubeClient{}
	notify := newFakeNotifier()
	p, _ := newTestProcessor(t, groupDir, storage, client, notify)

	err := p.Process(context.Background(), task.NewUploadTask(groupDir))
	require.NoError(t, err)
	require.Equal(t, 1, notify.requested)
	require.Empty(t, client.uploadCalls)

	st, err := p.state.Read(groupDir)
	require.NoError(t, err)
	require.Equal(t, dirstate.GroupPending, st.Status)

	// a second pass while still waiting must not re-request
	err = p.Process(context.Background(), task.NewUploadTask(groupDir))
	require.NoError(t, err)
	require.Equal(t, 1, notify.requested)
}

func TestProcessUploadFailureLeavesGroupAtTrimmed(t *testing.T) {
	groupDir, storage := setupGroup(t)
	client := &fakeYoutubeClient{uploadErr: errTestUpload}
	notify := newFakeNotifier()
	p, playlist := newTestProcessor(t, groupDir, storage, client, notify)
	require.NoError(t, playlist.Set("Comets", "Comets Playlist"))

	state := dirstate.NewStore()
	p.state = state
	_, err := state.Update(groupDir, func(s *dirstate.State) error {
		s.Status = dirstate.GroupTrimmed
		return nil
	})
	require.NoError(t, err)

	err = p.Process(context.Background(), task.NewUploadTask(groupDir))
	require.Error(t, err)

	st, err := state.Read(groupDir)
	require.NoError(t, err)
	require.Equal(t, dirstate.GroupTrimmed, st.Status)
}

func TestFindArtifactsLocatesProcessedSibling(t *testing.T) {
	groupDir, _ := setupGroup(t)
	subdir := filepath.Join(groupDir, rawSubdirName)
	require.NoError(t, os.WriteFile(filepath.Join(subdir, processedFileName), []byte("processed"), 0o644))

	raw, processed, err := findArtifacts(groupDir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(subdir, rawFileName), raw)
	require.Equal(t, filepath.Join(subdir, processedFileName), processed)
}

func TestFindArtifactsNoProcessedSibling(t *testing.T) {
	groupDir, _ := setupGroup(t)

	raw, processed, err := findArtifacts(groupDir)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.Empty(t, processed)
}
