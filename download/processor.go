// Package download implements the Download Processor stage (§4.3),
// grounded on original_source/video_grouper/task_processors/download_processor.py:
// one worker, one file at a time, streaming bytes from the camera
// collaborator to local storage and recording state transitions before and
// after the I/O.
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mblakley/video-grouper/camera"
	"github.com/mblakley/video-grouper/dirstate"
	"github.com/mblakley/video-grouper/log"
	"github.com/mblakley/video-grouper/task"
)

// VideoEnqueuer is the narrow handle to the Video Processor stage (Design
// Note: route cross-component references through an explicit queue handle,
// not a stored singleton reference).
type VideoEnqueuer interface {
	AddWork(t task.Task) error
}

type Processor struct {
	cam   camera.Camera
	state *dirstate.Store
	video VideoEnqueuer
}

func NewProcessor(cam camera.Camera, state *dirstate.Store, video VideoEnqueuer) *Processor {
	return &Processor{cam: cam, state: state, video: video}
}

// Process executes one download task (§4.3 steps 1-5). Errors are logged
// and swallowed by the caller (queueproc.ProcessFunc contract); this
// function's return value only controls the log line queueproc emits.
func (p *Processor) Process(ctx context.Context, t task.Task) error {
	groupDir := filepath.Dir(t.LocalPath)

	if _, err := p.state.Update(groupDir, func(s *dirstate.State) error {
		rec := s.EnsureFile(t.LocalPath)
		rec.Status = dirstate.FileDownloading
		rec.RemotePath = t.RemotePath
		return nil
	}); err != nil {
		return fmt.Errorf("marking %s downloading: %w", t.LocalPath, err)
	}

	log.Log(filepath.Base(groupDir), "starting download", "remote_path", t.RemotePath, "local_path", t.LocalPath)

	if err := p.download(ctx, t); err != nil {
		log.LogError(filepath.Base(groupDir), "download failed", err, "local_path", t.LocalPath)
		if _, stateErr := p.state.Update(groupDir, func(s *dirstate.State) error {
			rec := s.EnsureFile(t.LocalPath)
			rec.Status = dirstate.FileDownloadFailed
			rec.LastError = err.Error()
			return nil
		}); stateErr != nil {
			log.LogError(filepath.Base(groupDir), "error recording download failure", stateErr)
		}
		return err
	}

	if _, err := p.state.Update(groupDir, func(s *dirstate.State) error {
		s.EnsureFile(t.LocalPath).Status = dirstate.FileDownloaded
		return nil
	}); err != nil {
		return fmt.Errorf("marking %s downloaded: %w", t.LocalPath, err)
	}
	log.Log(filepath.Base(groupDir), "download complete", "local_path", t.LocalPath)

	if err := p.video.AddWork(task.NewConvertTask(t.LocalPath)); err != nil {
		log.LogError(filepath.Base(groupDir), "error enqueuing convert task", err, "local_path", t.LocalPath)
	}
	return nil
}

// download streams t.RemotePath to t.LocalPath, creating the group
// directory first (§4.3 step 1) and verifying the written size matches
// what the camera reported.
func (p *Processor) download(ctx context.Context, t task.Task) error {
	groupDir := filepath.Dir(t.LocalPath)
	if err := os.MkdirAll(groupDir, 0o755); err != nil {
		return fmt.Errorf("creating group dir %s: %w", groupDir, err)
	}

	f, err := os.Create(t.LocalPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", t.LocalPath, err)
	}
	defer f.Close()

	if err := p.cam.DownloadFile(ctx, t.RemotePath, f); err != nil {
		return fmt.Errorf("downloading %s: %w", t.RemotePath, err)
	}

	if t.FileSizeBytes > 0 {
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat %s: %w", t.LocalPath, err)
		}
		if info.Size() != t.FileSizeBytes {
			return fmt.Errorf("size mismatch for %s: got %d, camera reported %d", t.LocalPath, info.Size(), t.FileSizeBytes)
		}
	}
	return nil
}
