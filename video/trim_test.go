package video

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mblakley/video-grouper/config"
)

func TestTrimOutputPath(t *testing.T) {
	groupDir := filepath.Join(t.TempDir(), "2026.07.30-10.00.00")
	mi := config.MatchInfo{MyTeamName: "Comets", OpponentTeamName: "Rival FC", Location: "Home Field"}

	out, err := TrimOutputPath(groupDir, mi)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(groupDir, "2026.07.30 - Comets vs Rival FC (Home Field)", "comets-rival-fc-home-field-07-30-2026-raw.mp4"), out)
}

func TestTrimOutputPathRejectsUnparsableGroupDir(t *testing.T) {
	_, err := TrimOutputPath("/storage/not-a-timestamp", config.MatchInfo{})
	require.Error(t, err)
}

func TestFormatOffset(t *testing.T) {
	require.Equal(t, "00:01:05", formatOffset(65*time.Second))
	require.Equal(t, "01:02:03", formatOffset(time.Hour+2*time.Minute+3*time.Second))
}

func TestTrimFailsWithoutCombinedFile(t *testing.T) {
	groupDir := filepath.Join(t.TempDir(), "2026.07.30-10.00.00")
	require.NoError(t, os.MkdirAll(groupDir, 0o755))

	mi := config.MatchInfo{MyTeamName: "Comets", OpponentTeamName: "Rival FC", Location: "Home Field", StartTimeOffset: "01:00"}
	_, _, err := Trim(context.Background(), groupDir, mi)
	require.ErrorContains(t, err, "combined.mp4 missing")
}
