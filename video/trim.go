package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mblakley/video-grouper/config"
)

// groupDirLayout matches camera.groupDirLayout: a group directory's name
// encodes its start time (§3).
const groupDirLayout = "2006.01.02-15.04.05"

// TrimOutputPath computes the §4.4 Trim output path:
// group_dir/<YYYY.MM.DD - MyTeam vs Opp (loc)>/<myteam-opp-loc-MM-DD-YYYY-raw.mp4>.
func TrimOutputPath(groupDir string, mi config.MatchInfo) (string, error) {
	start, err := time.Parse(groupDirLayout, filepath.Base(groupDir))
	if err != nil {
		return "", fmt.Errorf("parsing group start time from %s: %w", groupDir, err)
	}

	subdir := fmt.Sprintf("%s - %s vs %s (%s)", start.Format("2006.01.02"), mi.MyTeamName, mi.OpponentTeamName, mi.Location)
	filename := fmt.Sprintf("%s-%s-%s-%s-raw.mp4",
		slugify(mi.MyTeamName), slugify(mi.OpponentTeamName), slugify(mi.Location), start.Format("01-02-2006"))
	return filepath.Join(groupDir, subdir, filename), nil
}

func slugify(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}

// Trim produces the final trimmed artifact from group_dir/combined.mp4
// (§4.4 Trim). If the output already exists with a duration matching
// endOffset-startOffset within DurationTolerance, the trim is skipped and
// reported as already-complete (idempotence: "prevents re-queuing trims for
// already-trimmed groups").
func Trim(ctx context.Context, groupDir string, mi config.MatchInfo) (outPath string, alreadyDone bool, err error) {
	combinedPath := filepath.Join(groupDir, combinedFileName)
	if _, err := os.Stat(combinedPath); err != nil {
		return "", false, fmt.Errorf("trim %s: combined.mp4 missing: %w", groupDir, err)
	}

	start, err := config.ParseOffset(mi.StartTimeOffset)
	if err != nil {
		return "", false, err
	}

	var wantDuration time.Duration
	hasEnd := mi.EndTimeOffset != ""
	if hasEnd {
		end, err := config.ParseOffset(mi.EndTimeOffset)
		if err != nil {
			return "", false, err
		}
		wantDuration = end - start
	}

	out, err := TrimOutputPath(groupDir, mi)
	if err != nil {
		return "", false, err
	}

	if info, statErr := os.Stat(out); statErr == nil && info.Size() > 0 && hasEnd {
		if dur, probeErr := probeWithRetry(ctx, out); probeErr == nil {
			diff := dur - wantDuration
			if diff < 0 {
				diff = -diff
			}
			if diff <= DurationTolerance {
				return out, true, nil
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", false, fmt.Errorf("creating trim output dir for %s: %w", groupDir, err)
	}

	kwargs := ffmpeg.KwArgs{
		"ss":      formatOffset(start),
		"c":       "copy",
		"threads": "0",
		"async":   "1",
	}
	if hasEnd {
		kwargs["to"] = formatOffset(start + wantDuration)
	}

	var stderr bytes.Buffer
	runErr := ffmpeg.Input(combinedPath).
		Output(out, kwargs).
		OverWriteOutput().WithErrorOutput(&stderr).Run()
	if runErr != nil {
		return "", false, fmt.Errorf("trimming %s [%s]: %w", groupDir, stderr.String(), runErr)
	}
	return out, false, nil
}

func formatOffset(d time.Duration) string {
	total := int64(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
