package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const combinedFileName = "combined.mp4"

// manifestFileName is the concat demuxer's file list (§4.4 Combine: "build
// an ordered concatenation manifest").
const manifestFileName = "output.txt"

// Combine concatenates a group's .mp4 files, sorted by the start-time
// embedded in their filenames, into group_dir/combined.mp4 via a
// stream-copy concat (§4.4 Combine). Mirrors
// original_source/video_grouper/video_grouper.py's concat demuxer usage.
// Any pre-existing manifest and combined file are removed first.
func Combine(ctx context.Context, groupDir string, mp4Files []string) (string, error) {
	if len(mp4Files) == 0 {
		return "", fmt.Errorf("combine %s: no mp4 files", groupDir)
	}

	sorted := append([]string(nil), mp4Files...)
	sort.Strings(sorted)

	manifestPath := filepath.Join(groupDir, manifestFileName)
	combinedPath := filepath.Join(groupDir, combinedFileName)

	_ = os.Remove(manifestPath)
	_ = os.Remove(combinedPath)

	f, err := os.Create(manifestPath)
	if err != nil {
		return "", fmt.Errorf("creating combine manifest %s: %w", manifestPath, err)
	}
	for _, mp4 := range sorted {
		if _, err := fmt.Fprintf(f, "file '%s'\n", filepath.Base(mp4)); err != nil {
			f.Close()
			return "", fmt.Errorf("writing combine manifest %s: %w", manifestPath, err)
		}
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing combine manifest %s: %w", manifestPath, err)
	}

	var stderr bytes.Buffer
	err = ffmpeg.Input(manifestPath, ffmpeg.KwArgs{
		"f":    "concat",
		"safe": "0",
	}).
		Output(combinedPath, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().WithErrorOutput(&stderr).Run()
	if err != nil {
		return "", fmt.Errorf("combining %s [%s]: %w", groupDir, stderr.String(), err)
	}

	if _, err := os.Stat(combinedPath); err != nil {
		return "", fmt.Errorf("combine %s: output missing: %w", groupDir, err)
	}
	return combinedPath, nil
}
