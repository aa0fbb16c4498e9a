package video

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mblakley/video-grouper/config"
	"github.com/mblakley/video-grouper/dirstate"
	"github.com/mblakley/video-grouper/log"
	"github.com/mblakley/video-grouper/task"
)

// UploadEnqueuer is the narrow handle the Video Processor enqueues its
// follow-up work through: Combine and Trim tasks as well as Upload tasks, so
// it must route by queue (the orchestrator wires in its TaskRouter).
type UploadEnqueuer interface {
	AddWork(t task.Task) error
}

// Notifier is the narrow handle to the NTFY collaborator; SendGameEnd fires
// when Trim completes (a signal the Python original emits alongside the
// trimmed artifact, per task_processors/tasks/ntfy/game_end_task.py).
type Notifier interface {
	SendGameEnd(groupDir string) error
}

// Processor is the Video Processor stage (§4.4): it dispatches Convert,
// Combine, and Trim tasks by Type, the way download.Processor dispatches a
// single task kind but generalized to three. The ffmpeg/ffprobe-backed
// functions are held as fields, not called directly, so tests can swap in
// fakes without a real transcoder on PATH.
type Processor struct {
	state  *dirstate.Store
	upload UploadEnqueuer
	notify Notifier

	convert func(ctx context.Context, davPath string) (string, error)
	combine func(ctx context.Context, groupDir string, mp4Files []string) (string, error)
	trim    func(ctx context.Context, groupDir string, mi config.MatchInfo) (string, bool, error)
}

func NewProcessor(state *dirstate.Store, upload UploadEnqueuer, notify Notifier) *Processor {
	return &Processor{
		state:   state,
		upload:  upload,
		notify:  notify,
		convert: Convert,
		combine: Combine,
		trim:    Trim,
	}
}

// Process implements queueproc.ProcessFunc, routing by t.Type.
func (p *Processor) Process(ctx context.Context, t task.Task) error {
	switch t.Type {
	case task.TypeConvert:
		return p.processConvert(ctx, t)
	case task.TypeCombine:
		return p.processCombine(ctx, t)
	case task.TypeTrim:
		return p.processTrim(ctx, t)
	default:
		return fmt.Errorf("video processor: unsupported task type %q", t.Type)
	}
}

func (p *Processor) processConvert(ctx context.Context, t task.Task) error {
	groupDir := filepath.Dir(t.FilePath)

	out, err := p.convert(ctx, t.FilePath)
	if err != nil {
		log.LogError(filepath.Base(groupDir), "convert failed", err, "file_path", t.FilePath)
		if _, stateErr := p.state.Update(groupDir, func(s *dirstate.State) error {
			rec := s.EnsureFile(t.FilePath)
			rec.Status = dirstate.FileConvertFailed
			rec.LastError = err.Error()
			return nil
		}); stateErr != nil {
			log.LogError(filepath.Base(groupDir), "error recording convert failure", stateErr)
		}
		return err
	}

	st, err := p.state.Update(groupDir, func(s *dirstate.State) error {
		s.EnsureFile(t.FilePath).Status = dirstate.FileConverted
		return nil
	})
	if err != nil {
		return fmt.Errorf("marking %s converted: %w", t.FilePath, err)
	}
	log.Log(filepath.Base(groupDir), "convert complete", "file_path", t.FilePath, "mp4_path", out)

	if st.AllConverted() {
		if err := p.upload.AddWork(task.NewCombineTask(groupDir)); err != nil {
			log.LogError(filepath.Base(groupDir), "error enqueuing combine task", err)
		}
	}
	return nil
}

func (p *Processor) processCombine(ctx context.Context, t task.Task) error {
	groupDir := t.GroupDir

	st, err := p.state.Read(groupDir)
	if err != nil {
		return fmt.Errorf("reading state for %s: %w", groupDir, err)
	}
	if !st.AllConverted() {
		return fmt.Errorf("combine %s: not every file is converted", groupDir)
	}

	var mp4Files []string
	for localPath, rec := range st.Files {
		if rec.Skip {
			continue
		}
		mp4Files = append(mp4Files, mp4Path(localPath))
	}

	if _, err := p.combine(ctx, groupDir, mp4Files); err != nil {
		log.LogError(filepath.Base(groupDir), "combine failed", err)
		if _, stateErr := p.state.Update(groupDir, func(s *dirstate.State) error {
			s.Status = dirstate.GroupFailed
			return nil
		}); stateErr != nil {
			log.LogError(filepath.Base(groupDir), "error recording combine failure", stateErr)
		}
		return err
	}

	if _, err := p.state.Update(groupDir, func(s *dirstate.State) error {
		s.Status = dirstate.GroupCombined
		return nil
	}); err != nil {
		return fmt.Errorf("marking %s combined: %w", groupDir, err)
	}
	log.Log(filepath.Base(groupDir), "combine complete")

	mi, err := config.LoadMatchInfo(filepath.Join(groupDir, "match_info.ini"))
	if err != nil || !mi.ReadyToTrim() {
		return nil
	}
	if err := p.upload.AddWork(task.NewTrimTask(groupDir, mi.StartTimeOffset, mi.EndTimeOffset)); err != nil {
		log.LogError(filepath.Base(groupDir), "error enqueuing trim task", err)
	}
	return nil
}

func (p *Processor) processTrim(ctx context.Context, t task.Task) error {
	groupDir := t.GroupDir

	mi, err := config.LoadMatchInfo(filepath.Join(groupDir, "match_info.ini"))
	if err != nil {
		return fmt.Errorf("loading match info for %s: %w", groupDir, err)
	}
	if t.StartOffset != "" {
		mi.StartTimeOffset = t.StartOffset
	}
	if t.EndOffset != "" {
		mi.EndTimeOffset = t.EndOffset
	}

	out, alreadyDone, err := p.trim(ctx, groupDir, mi)
	if err != nil {
		log.LogError(filepath.Base(groupDir), "trim failed", err)
		if _, stateErr := p.state.Update(groupDir, func(s *dirstate.State) error {
			s.Status = dirstate.GroupFailed
			return nil
		}); stateErr != nil {
			log.LogError(filepath.Base(groupDir), "error recording trim failure", stateErr)
		}
		return err
	}
	if alreadyDone {
		log.Log(filepath.Base(groupDir), "trim already complete, skipping", "output", out)
	} else {
		log.Log(filepath.Base(groupDir), "trim complete", "output", out)
	}

	if _, err := p.state.Update(groupDir, func(s *dirstate.State) error {
		s.Status = dirstate.GroupTrimmed
		return nil
	}); err != nil {
		return fmt.Errorf("marking %s trimmed: %w", groupDir, err)
	}

	if p.notify != nil {
		if err := p.notify.SendGameEnd(groupDir); err != nil {
			log.LogError(filepath.Base(groupDir), "error sending game-end notification", err)
		}
	}

	if err := p.upload.AddWork(task.NewUploadTask(groupDir)); err != nil {
		log.LogError(filepath.Base(groupDir), "error enqueuing upload task", err)
	}
	return nil
}
