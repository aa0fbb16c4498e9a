// Package auditor implements the State Auditor (§4.6): the recovery path on
// restart and the single authority that converts on-disk state.json truth
// back into queue work. Per-stage workers never re-enqueue themselves;
// everything that falls through a happy path (a crash mid-convert, a human
// who hasn't answered an NTFY prompt yet, a stale download) is picked back
// up here. Grounded on original_source/video_grouper/video_grouper_app.py's
// periodic reconciliation loop (there called as part of the main poll
// cycle), generalized into its own worker the way the teacher splits
// concerns into one file per collaborator.
package auditor

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/mblakley/video-grouper/config"
	"github.com/mblakley/video-grouper/dirstate"
	"github.com/mblakley/video-grouper/log"
	"github.com/mblakley/video-grouper/task"
)

// groupDirLayout matches camera.groupDirLayout and video.groupDirLayout: a
// group directory's name is its start time.
const groupDirLayout = "2006.01.02-15.04.05"

// staleDownloadAge is how long a file can sit at FileDownloading before the
// Auditor assumes its writer died and re-emits the download (§4.6: "file in
// downloading with no fresh writer").
const staleDownloadAge = 5 * time.Minute

// Enqueuer is the narrow handle to a stage's work queue.
type Enqueuer interface {
	AddWork(t task.Task) error
}

// Auditor periodically scans every group directory under storagePath and
// re-injects whatever task the persisted state implies is missing.
type Auditor struct {
	storagePath string
	interval    time.Duration
	state       *dirstate.Store

	download Enqueuer
	video    Enqueuer
	upload   Enqueuer

	now func() time.Time
}

func NewAuditor(storagePath string, interval time.Duration, state *dirstate.Store, download, video, upload Enqueuer) *Auditor {
	if interval <= 0 {
		interval = time.Duration(config.DefaultPollIntervalSeconds) * time.Second
	}
	return &Auditor{
		storagePath: storagePath,
		interval:    interval,
		state:       state,
		download:    download,
		video:       video,
		upload:      upload,
		now:         time.Now,
	}
}

// Run loops until ctx is cancelled, sweeping once per interval.
func (a *Auditor) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		a.Sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep runs one reconciliation pass over every group directory. Errors
// reading an individual group are logged and skipped; a corrupt or missing
// state.json for one group must not stop the rest of the sweep.
func (a *Auditor) Sweep(ctx context.Context) {
	entries, err := os.ReadDir(a.storagePath)
	if err != nil {
		log.LogError("auditor", "reading storage root", err)
		return
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(groupDirLayout, e.Name()); err != nil {
			continue // not a group directory
		}
		groupDir := filepath.Join(a.storagePath, e.Name())
		a.auditGroup(groupDir)
	}
}

func (a *Auditor) auditGroup(groupDir string) {
	st, err := a.state.Read(groupDir)
	if err != nil {
		log.LogError("auditor", "reading state", err, "group_dir", groupDir)
		return
	}

	for localPath, rec := range st.Files {
		a.auditFile(groupDir, localPath, rec)
	}

	switch st.Status {
	case dirstate.GroupPending, dirstate.GroupDownloading, dirstate.GroupDownloaded:
		if st.AllConverted() {
			a.enqueue(a.video, task.NewCombineTask(groupDir))
		}
	case dirstate.GroupCombined:
		a.auditCombined(groupDir)
	case dirstate.GroupTrimmed:
		a.enqueue(a.upload, task.NewUploadTask(groupDir))
	}
}

// auditFile covers the two per-file rows of the §4.6 table: a file still at
// downloaded, and a download stuck mid-flight. Convert is re-emitted on the
// downloaded status alone; whether an .mp4 sibling already exists on disk is
// not checked.
func (a *Auditor) auditFile(groupDir, localPath string, rec *dirstate.FileRecord) {
	switch rec.Status {
	case dirstate.FileDownloaded:
		a.enqueue(a.video, task.NewConvertTask(localPath))
	case dirstate.FileDownloading:
		if a.isStale(localPath) {
			log.Log("auditor", "re-emitting stale download", "local_path", localPath)
			a.enqueue(a.download, task.NewDownloadTask(rec.RemotePath, localPath, time.Time{}, time.Time{}, 0))
		}
	}
}

// isStale reports whether localPath's mtime is old enough that its writer
// is presumed dead. A missing file (never created, or removed) counts as
// stale too, since there is nothing currently writing it.
func (a *Auditor) isStale(localPath string) bool {
	info, err := os.Stat(localPath)
	if err != nil {
		return true
	}
	return a.now().Sub(info.ModTime()) > staleDownloadAge
}

// auditCombined handles the `combined` row: emit Trim once match_info is
// ready. It does not look for an existing trimmed output; video.Trim itself
// returns early when an output of the expected duration is already present.
func (a *Auditor) auditCombined(groupDir string) {
	mi, err := config.LoadMatchInfo(filepath.Join(groupDir, "match_info.ini"))
	if err != nil || !mi.ReadyToTrim() {
		return // no match_info yet, or incomplete; nothing to do until a human fills it in
	}
	a.enqueue(a.video, task.NewTrimTask(groupDir, mi.StartTimeOffset, mi.EndTimeOffset))
}

func (a *Auditor) enqueue(q Enqueuer, t task.Task) {
	if q == nil {
		return
	}
	if err := q.AddWork(t); err != nil {
		log.LogError("auditor", "error enqueuing task", err, "task_type", string(t.Type))
	}
}
