// Package orchestrator implements the Orchestrator (§4.7): it owns
// configuration, constructs every processor, wires them to one another
// through a TaskRouter, and exposes initialize()/shutdown(). Grounded on
// the teacher's cmd/http-server/http-server.go for "one function builds
// everything the process needs", generalized from an HTTP router
// construction to the full worker-and-queue topology this pipeline needs,
// using golang.org/x/sync/errgroup the way the teacher's pipeline package
// coordinates concurrent stages.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mblakley/video-grouper/auditor"
	"github.com/mblakley/video-grouper/backup"
	"github.com/mblakley/video-grouper/camera"
	"github.com/mblakley/video-grouper/config"
	"github.com/mblakley/video-grouper/dirstate"
	"github.com/mblakley/video-grouper/download"
	"github.com/mblakley/video-grouper/log"
	"github.com/mblakley/video-grouper/notify"
	"github.com/mblakley/video-grouper/queueproc"
	"github.com/mblakley/video-grouper/task"
	"github.com/mblakley/video-grouper/upload"
	"github.com/mblakley/video-grouper/video"
)

// Orchestrator owns every long-lived component of the pipeline (§4.7).
type Orchestrator struct {
	cfg config.Config
	cam camera.Camera

	state    *dirstate.Store
	router   *TaskRouter
	notify   *notify.Client
	backup   *backup.Mirror
	playlist *upload.PlaylistMap

	poller  *camera.Poller
	auditor *auditor.Auditor

	downloadQueue *queueproc.Processor
	videoQueue    *queueproc.Processor
	uploadQueue   *queueproc.Processor

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New constructs an Orchestrator. It refuses to start if cfg names an
// unrecognized camera type (§4.7); cam is the already-constructed
// collaborator for that type (§1 Non-goals: this package never speaks a
// vendor protocol itself).
func New(cfg config.Config, cam camera.Camera) (*Orchestrator, error) {
	if err := camera.ValidateType(cfg.Camera.Type); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	state := dirstate.NewStore()
	playlist := upload.NewPlaylistMap(cfg.StoragePath)
	notifyClient := notify.NewClient(cfg.NTFY)
	mirror, err := backup.NewMirror(cfg.Backup)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: constructing backup mirror: %w", err)
	}

	router := NewTaskRouter()

	downloadProc := download.NewProcessor(cam, state, router)
	downloadQueue := queueproc.New("download", filepath.Join(cfg.StoragePath, "download_queue_state.json"), downloadProc.Process)

	videoProc := video.NewProcessor(state, router, notifyClient)
	videoQueue := queueproc.New("video", filepath.Join(cfg.StoragePath, "video_queue_state.json"), videoProc.Process)

	uploadProc := upload.NewProcessor(cfg, state, playlist, notifyClient, mirror)
	uploadQueue := queueproc.New("upload", filepath.Join(cfg.StoragePath, "upload_queue_state.json"), uploadProc.Process)

	router.Register(task.QueueDownload, downloadQueue)
	router.Register(task.QueueVideo, videoQueue)
	router.Register(task.QueueUpload, uploadQueue)

	interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	poller := camera.NewPoller(cam, cfg.StoragePath, interval, router)
	aud := auditor.NewAuditor(cfg.StoragePath, interval, state, router, router, router)

	return &Orchestrator{
		cfg:           cfg,
		cam:           cam,
		state:         state,
		router:        router,
		notify:        notifyClient,
		backup:        mirror,
		playlist:      playlist,
		poller:        poller,
		auditor:       aud,
		downloadQueue: downloadQueue,
		videoQueue:    videoQueue,
		uploadQueue:   uploadQueue,
	}, nil
}

// State exposes the Directory State Store for the admin HTTP surface's
// /state/*group endpoint.
func (o *Orchestrator) State() *dirstate.Store {
	return o.state
}

// Initialize starts every worker and discovery loop (§4.7). It returns once
// all of them are running; Shutdown reverses it.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if err := o.downloadQueue.Start(); err != nil {
		return fmt.Errorf("starting download queue: %w", err)
	}
	if err := o.videoQueue.Start(); err != nil {
		return fmt.Errorf("starting video queue: %w", err)
	}
	if err := o.uploadQueue.Start(); err != nil {
		return fmt.Errorf("starting upload queue: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		o.poller.Run(gctx)
		return nil
	})
	g.Go(func() error {
		err := o.auditor.Run(gctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	o.group = g

	log.LogNoGroup("orchestrator initialized")
	return nil
}

// Shutdown signals every worker, waits for them in reverse dependency
// order (upload depends on video depends on download; the discovery loops
// feed download), and closes the camera collaborator (§4.7).
func (o *Orchestrator) Shutdown() error {
	if o.cancel != nil {
		o.cancel()
	}
	if o.group != nil {
		if err := o.group.Wait(); err != nil {
			log.LogError("orchestrator", "discovery loop exited with error", err)
		}
	}

	o.uploadQueue.Stop()
	o.videoQueue.Stop()
	o.downloadQueue.Stop()

	if closer, ok := o.cam.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("closing camera: %w", err)
		}
	}
	log.LogNoGroup("orchestrator shut down")
	return nil
}
