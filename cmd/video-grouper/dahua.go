package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mblakley/video-grouper/camera"
	"github.com/mblakley/video-grouper/config"
)

// unimplementedCamera satisfies camera.Camera for every recognized
// config.CameraConfig.Type without speaking any vendor protocol, per this
// module's Non-goal of implementing camera vendor protocols (§1): those are
// pluggable collaborators behind this narrow contract, supplied by whatever
// deployment wires a real one in. Every recognized type currently resolves
// to this placeholder; a real github.com/livepeer/go-tools-style HTTP/ONVIF
// client is future work tracked outside this module.
type unimplementedCamera struct {
	camType string
}

func newCamera(cfg config.CameraConfig) (camera.Camera, error) {
	if err := camera.ValidateType(cfg.Type); err != nil {
		return nil, err
	}
	return &unimplementedCamera{camType: cfg.Type}, nil
}

func (c *unimplementedCamera) CheckAvailability(ctx context.Context) error {
	return fmt.Errorf("camera type %q recognized but not implemented; wire a real camera.Camera adapter", c.camType)
}

func (c *unimplementedCamera) ListRecordings(ctx context.Context, since time.Time) ([]camera.Recording, error) {
	return nil, fmt.Errorf("camera type %q recognized but not implemented", c.camType)
}

func (c *unimplementedCamera) DownloadFile(ctx context.Context, remotePath string, w io.Writer) error {
	return fmt.Errorf("camera type %q recognized but not implemented", c.camType)
}
