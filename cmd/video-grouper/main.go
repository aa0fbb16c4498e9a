// Command video-grouper runs the long-running IP-camera recording
// ingestion/processing pipeline as a single process (§6 "Command-line
// surface"). Grounded on the teacher's main.go for its flag-parsing,
// glog bootstrap, and signal-driven errgroup shutdown shape, stripped
// down from catalyst-api's cluster/balancer/VOD bring-up to this
// pipeline's single orchestrator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/mblakley/video-grouper/admin"
	"github.com/mblakley/video-grouper/config"
	"github.com/mblakley/video-grouper/log"
	"github.com/mblakley/video-grouper/orchestrator"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = flag.Set("logtostderr", "true")

	configPath := flag.String("config", "", "path to config.ini; if unset, searches cwd/binary-dir/parent/./video_grouper/")
	version := flag.Bool("version", false, "print application version and exit")
	flag.Parse()

	if *version {
		fmt.Println("video-grouper (development build)")
		return 0
	}

	path := *configPath
	if path == "" {
		var err error
		path, err = config.Find()
		if err != nil {
			glog.Errorf("locating config.ini: %v", err)
			return 1
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		glog.Errorf("loading config.ini: %v", err)
		return 1
	}

	cam, err := newCamera(cfg.Camera)
	if err != nil {
		glog.Errorf("constructing camera collaborator: %v", err)
		return 1
	}

	o, err := orchestrator.New(cfg, cam)
	if err != nil {
		glog.Errorf("constructing orchestrator: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := o.Initialize(ctx); err != nil {
		glog.Errorf("starting orchestrator: %v", err)
		return 1
	}

	go func() {
		h := &admin.Handlers{State: o.State()}
		if err := admin.ListenAndServe(cfg.Admin.Port, h); err != nil {
			log.LogError("admin", "admin HTTP server exited", err)
		}
	}()

	<-ctx.Done()
	glog.Info("caught shutdown signal, stopping cleanly")

	if err := o.Shutdown(); err != nil {
		glog.Errorf("shutting down orchestrator: %v", err)
		return 1
	}

	glog.Info("shutdown complete")
	return 0
}
