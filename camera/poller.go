package camera

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mblakley/video-grouper/log"
	"github.com/mblakley/video-grouper/task"
)

// groupDirLayout formats a group directory name from its start time (§3).
const groupDirLayout = "2006.01.02-15.04.05"

// GroupProximity is the §3 rule: recordings whose gap is within this many
// seconds belong to the same group.
const GroupProximity = 5 * time.Second

// Enqueuer is the narrow interface the Poller needs from the Download
// Processor (Design Note: route via an explicit task-queue handle rather
// than a singleton reference).
type Enqueuer interface {
	AddWork(t task.Task) error
}

// Poller is the Camera Poller stage (§4.2).
type Poller struct {
	cam         Camera
	state       *StateStore
	storagePath string
	interval    time.Duration
	downloads   Enqueuer

	disconnected bool
}

func NewPoller(cam Camera, storagePath string, interval time.Duration, downloads Enqueuer) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Poller{
		cam:         cam,
		state:       NewStateStore(storagePath),
		storagePath: storagePath,
		interval:    interval,
		downloads:   downloads,
	}
}

// Run ticks at the configured interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick executes one poll iteration (§4.2 steps 1-5). Any camera error aborts
// the tick and leaves the watermark unchanged; the next tick retries.
func (p *Poller) tick(ctx context.Context) {
	if err := p.cam.CheckAvailability(ctx); err != nil {
		if !p.disconnected {
			p.disconnected = true
			if err := p.state.AppendEvent(EventDisconnected, err.Error()); err != nil {
				log.LogNoGroup("error recording disconnect event", "err", err)
			}
		}
		return
	}
	if p.disconnected {
		p.disconnected = false
		if err := p.state.AppendEvent(EventConnected, ""); err != nil {
			log.LogNoGroup("error recording connect event", "err", err)
		}
	}

	sf, err := p.state.Load()
	if err != nil {
		log.LogNoGroup("error loading camera state", "err", err)
		return
	}

	recordings, err := p.cam.ListRecordings(ctx, sf.LastSeenEndTime)
	if err != nil {
		log.LogNoGroup("error listing recordings", "err", err)
		return
	}
	if len(recordings) == 0 {
		return
	}

	sort.Slice(recordings, func(i, j int) bool { return recordings[i].Start.Before(recordings[j].Start) })

	groupDir := sf.LastGroupDir
	groupEnd := sf.LastGroupEnd
	watermark := sf.LastSeenEndTime

	for _, rec := range recordings {
		if groupDir == "" || rec.Start.Sub(groupEnd) > GroupProximity {
			groupDir = filepath.Join(p.storagePath, rec.Start.Format(groupDirLayout))
		}

		localPath := filepath.Join(groupDir, filepath.Base(rec.RemotePath))
		if _, err := os.Stat(localPath); err == nil {
			groupEnd = rec.End
			continue
		}

		t := task.NewDownloadTask(rec.RemotePath, localPath, rec.Start, rec.End, rec.SizeBytes)
		if err := p.downloads.AddWork(t); err != nil {
			log.LogNoGroup("error enqueuing download task", "local_path", localPath, "err", err)
			continue
		}
		log.Log(filepath.Base(groupDir), "enqueued download task", "remote_path", rec.RemotePath)

		groupEnd = rec.End
		if rec.End.After(watermark) {
			watermark = rec.End
		}
	}

	if err := p.state.SetGrouping(groupDir, groupEnd); err != nil {
		log.LogNoGroup("error persisting grouping state", "err", err)
	}
	if err := p.state.SetWatermark(watermark); err != nil {
		log.LogNoGroup("error persisting watermark", "err", err)
	}
}
