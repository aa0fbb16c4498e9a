// Package upload implements the Upload Processor stage (§4.5): one task
// kind, youtube_upload(group_dir). Grounded on
// original_source/video_grouper/task_processors/upload_processor.py (the
// credentials-missing early return, playlist config shape) and
// youtube_upload.py (raw/processed artifact discovery by filename suffix).
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mblakley/video-grouper/config"
	"github.com/mblakley/video-grouper/dirstate"
	"github.com/mblakley/video-grouper/log"
	"github.com/mblakley/video-grouper/task"
)

// Notifier is the narrow handle to the NTFY collaborator needed to request
// a missing playlist name (§6).
type Notifier interface {
	IsWaitingForInput(groupDir string) bool
	RequestPlaylistName(groupDir, teamName string) error
}

// BackupMirror is the narrow handle to the optional S3 mirror; a disabled
// mirror's UploadArtifacts is a no-op, so this can always be wired.
type BackupMirror interface {
	UploadArtifacts(groupDir string)
}

// Processor is the Upload Processor stage.
type Processor struct {
	cfg      config.YoutubeConfig
	state    *dirstate.Store
	playlist *PlaylistMap
	notify   Notifier
	backup   BackupMirror

	newYoutubeClient func(ctx context.Context) (YoutubeClient, error)
}

func NewProcessor(cfg config.Config, state *dirstate.Store, playlist *PlaylistMap, notify Notifier, backup BackupMirror) *Processor {
	return &Processor{
		cfg:      cfg.Youtube,
		state:    state,
		playlist: playlist,
		notify:   notify,
		backup:   backup,
		newYoutubeClient: func(ctx context.Context) (YoutubeClient, error) {
			return NewYoutubeClient(ctx, cfg.StoragePath)
		},
	}
}

// Process implements queueproc.ProcessFunc for TypeUpload.
func (p *Processor) Process(ctx context.Context, t task.Task) error {
	groupDir := t.GroupDir

	client, err := p.newYoutubeClient(ctx)
	if err != nil {
		if errors.Is(err, ErrCredentialsMissing) {
			log.Log(filepath.Base(groupDir), "youtube credentials not configured, skipping upload")
			return nil
		}
		return fmt.Errorf("constructing youtube client: %w", err)
	}

	mi, err := config.LoadMatchInfo(filepath.Join(groupDir, "match_info.ini"))
	if err != nil {
		return fmt.Errorf("loading match info for %s: %w", groupDir, err)
	}

	playlistName, err := p.playlist.Lookup(mi.MyTeamName)
	if err != nil {
		return fmt.Errorf("looking up playlist for %s: %w", mi.MyTeamName, err)
	}
	if playlistName == "" {
		if !p.notify.IsWaitingForInput(groupDir) {
			if err := p.notify.RequestPlaylistName(groupDir, mi.MyTeamName); err != nil {
				log.LogError(filepath.Base(groupDir), "error requesting playlist name", err)
			}
		}
		log.Log(filepath.Base(groupDir), "no playlist configured for team, waiting on human input", "team", mi.MyTeamName)
		return nil
	}

	rawPath, processedPath, err := findArtifacts(groupDir)
	if err != nil {
		return err
	}
	if rawPath == "" && processedPath == "" {
		return fmt.Errorf("upload %s: no trimmed artifact found", groupDir)
	}

	title := fmt.Sprintf("%s vs %s (%s)", mi.MyTeamName, mi.OpponentTeamName, mi.Location)
	description := fmt.Sprintf("Recorded %s", filepath.Base(groupDir))

	if rawPath != "" {
		playlistID, err := client.GetOrCreatePlaylist(ctx, resolveName(p.cfg.Raw.NameFormat, mi.MyTeamName), p.cfg.Raw.Description, p.cfg.Raw.PrivacyStatus)
		if err != nil {
			return fmt.Errorf("resolving raw playlist: %w", err)
		}
		if _, err := client.UploadVideo(ctx, rawPath, title+" - Raw", description, p.cfg.Raw.PrivacyStatus, playlistID); err != nil {
			return fmt.Errorf("uploading raw artifact %s: %w", rawPath, err)
		}
	}

	if processedPath != "" {
		playlistID, err := client.GetOrCreatePlaylist(ctx, resolveName(p.cfg.Processed.NameFormat, mi.MyTeamName), p.cfg.Processed.Description, p.cfg.Processed.PrivacyStatus)
		if err != nil {
			return fmt.Errorf("resolving processed playlist: %w", err)
		}
		if _, err := client.UploadVideo(ctx, processedPath, title, description, p.cfg.Processed.PrivacyStatus, playlistID); err != nil {
			return fmt.Errorf("uploading processed artifact %s: %w", processedPath, err)
		}
	}

	if _, err := p.state.Update(groupDir, func(s *dirstate.State) error {
		s.Status = dirstate.GroupYoutubeUploaded
		return nil
	}); err != nil {
		return fmt.Errorf("marking %s uploaded: %w", groupDir, err)
	}
	if p.backup != nil {
		p.backup.UploadArtifacts(groupDir)
	}
	log.Log(filepath.Base(groupDir), "upload complete")
	return nil
}

const rawSuffix = "-raw.mp4"

// findArtifacts locates the trimmed `*-raw.mp4` output and its processed
// sibling (same name with the "-raw" suffix stripped). Trim (video/trim.go,
// TrimOutputPath) writes both into a single match-info-derived subdirectory
// of groupDir rather than groupDir itself, so this first locates that
// subdirectory and then looks inside it, mirroring
// youtube_upload_task.py's "find the one subdirectory, then the raw file
// inside it" and youtube_upload.py's glob('**/*-raw.mp4'). The processed
// file is an autocam-produced artifact whose generation is out of scope
// here; it is only uploaded if already present.
func findArtifacts(groupDir string) (rawPath, processedPath string, err error) {
	entries, err := os.ReadDir(groupDir)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", groupDir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		subdir := filepath.Join(groupDir, e.Name())
		subEntries, err := os.ReadDir(subdir)
		if err != nil {
			return "", "", fmt.Errorf("reading %s: %w", subdir, err)
		}
		for _, se := range subEntries {
			if se.IsDir() || !strings.HasSuffix(se.Name(), rawSuffix) {
				continue
			}
			rawPath = filepath.Join(subdir, se.Name())
			processedName := strings.TrimSuffix(se.Name(), rawSuffix) + ".mp4"
			candidate := filepath.Join(subdir, processedName)
			if _, statErr := os.Stat(candidate); statErr == nil {
				processedPath = candidate
			}
			return rawPath, processedPath, nil
		}
	}
	return "", "", nil
}
