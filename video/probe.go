// Package video implements the Video Processor stage (§4.4): Convert,
// Combine, and Trim tasks executed against the ffmpeg/ffprobe collaborators.
// Grounded on the teacher's video/probe.go (backoff-wrapped ffprobe) and
// pipeline/ffmpeg.go (exec.Command invocation style), translating
// original_source/video_grouper/video_grouper.py's ffmpeg command lines.
package video

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	ffprobe "gopkg.in/vansante/go-ffprobe.v2"
)

// DurationTolerance is the "small tolerance" (§3) for comparing a .dav's
// duration against its .mp4 counterpart, and a trimmed artifact's duration
// against the requested offsets.
const DurationTolerance = 500 * time.Millisecond

// Probe returns the duration of the media file at path. ffprobe sometimes
// reports zero on a file the transcoder just closed, so the caller retries
// (see VerifyMP4Duration); Probe itself makes a single attempt.
func Probe(ctx context.Context, path string) (time.Duration, error) {
	data, err := ffprobe.ProbeURL(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("probing %s: %w", path, err)
	}
	seconds := data.Format.DurationSeconds
	if seconds <= 0 {
		return 0, fmt.Errorf("probing %s: zero duration", path)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// probeWithRetry retries Probe up to 2 extra times with backoff (§4.4,
// "retried up to 2 times with backoff"), because the transcoder sometimes
// reports zero on a just-closed file.
func probeWithRetry(ctx context.Context, path string) (time.Duration, error) {
	var dur time.Duration
	operation := func() error {
		d, err := Probe(ctx, path)
		if err != nil {
			return err
		}
		dur = d
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, 2), ctx))
	return dur, err
}

// VerifyMP4Duration holds iff both files exist, both probe successfully,
// and their durations agree within DurationTolerance (§3, §4.4 Convert
// post-condition).
func VerifyMP4Duration(ctx context.Context, davPath, mp4Path string) error {
	davDur, err := probeWithRetry(ctx, davPath)
	if err != nil {
		return fmt.Errorf("probing source %s: %w", davPath, err)
	}
	mp4Dur, err := probeWithRetry(ctx, mp4Path)
	if err != nil {
		return fmt.Errorf("probing converted %s: %w", mp4Path, err)
	}
	diff := davDur - mp4Dur
	if diff < 0 {
		diff = -diff
	}
	if diff > DurationTolerance {
		return fmt.Errorf("duration mismatch: %s=%s %s=%s", davPath, davDur, mp4Path, mp4Dur)
	}
	return nil
}
