// Package camera defines the camera collaborator contract and the Camera
// Poller stage (§4.2). The core never speaks a vendor protocol directly
// (§1 Non-goals); Camera is implemented by a pluggable vendor adapter (the
// Python original's DahuaCamera is the reference shape, per
// original_source/video_grouper/task_processors/tasks/download/dahua_download_task.py).
package camera

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Recording is one entry returned by ListRecordings (§6 Camera contract).
type Recording struct {
	RemotePath string
	Start      time.Time
	End        time.Time
	Duration   time.Duration
	SizeBytes  int64
}

// Camera is the collaborator contract the core consumes (§6). It is
// single-owner: the Poller and the Download Processor must not overlap
// camera sessions (§5).
type Camera interface {
	// CheckAvailability reports whether the camera currently answers.
	CheckAvailability(ctx context.Context) error
	// ListRecordings returns recordings ending strictly after since.
	ListRecordings(ctx context.Context, since time.Time) ([]Recording, error)
	// DownloadFile streams remotePath to w. Implementations should not
	// buffer the whole file in memory.
	DownloadFile(ctx context.Context, remotePath string, w io.Writer) error
}

// KnownTypes enumerates the camera.Type values the Orchestrator will start
// with (§4.7: "refuses to start if the configured camera type is unknown").
// Per this package's Non-goal of implementing vendor protocols, these are
// recognized identifiers, not constructible adapters; the concrete
// camera.Camera for a recognized type is supplied by whichever caller wires
// the pluggable collaborator (§1).
var KnownTypes = map[string]bool{
	"dahua": true,
}

// ValidateType reports an error if camType is not among KnownTypes.
func ValidateType(camType string) error {
	if !KnownTypes[camType] {
		return fmt.Errorf("unknown camera type %q", camType)
	}
	return nil
}
