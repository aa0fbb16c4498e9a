package video

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// mp4Path returns the .mp4 counterpart of a .dav source path.
func mp4Path(davPath string) string {
	if idx := strings.LastIndex(davPath, "."); idx >= 0 {
		return davPath[:idx] + ".mp4"
	}
	return davPath + ".mp4"
}

// Convert transcodes davPath's video stream copy, audio to a lossless
// container, producing its .mp4 counterpart (§4.4 Convert). It mirrors
// original_source/video_grouper/video_grouper.py's
// `ffmpeg -i X.dav -vcodec copy -acodec alac X.mp4`.
func Convert(ctx context.Context, davPath string) (string, error) {
	out := mp4Path(davPath)

	var stderr bytes.Buffer
	err := ffmpeg.Input(davPath).
		Output(out, ffmpeg.KwArgs{
			"vcodec":  "copy",
			"acodec":  "alac",
			"threads": "0",
		}).
		OverWriteOutput().WithErrorOutput(&stderr).Run()
	if err != nil {
		return "", fmt.Errorf("converting %s [%s]: %w", davPath, stderr.String(), err)
	}

	if err := VerifyMP4Duration(ctx, davPath, out); err != nil {
		return "", err
	}
	return out, nil
}
