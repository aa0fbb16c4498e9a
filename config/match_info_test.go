package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeMatchInfo(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "match_info.ini")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadMatchInfoReadyToTrim(t *testing.T) {
	path := writeMatchInfo(t, `[MATCH]
my_team_name = Thunder
opponent_team_name = Lightning
location = Field 3
start_time_offset = 00:05:00
end_time_offset = 01:35:00
`)
	mi, err := LoadMatchInfo(path)
	require.NoError(t, err)
	require.True(t, mi.ReadyToTrim())
	require.Equal(t, "Thunder", mi.MyTeamName)
}

func TestLoadMatchInfoNotReadyWithoutLocation(t *testing.T) {
	path := writeMatchInfo(t, `[MATCH]
my_team_name = Thunder
opponent_team_name = Lightning
start_time_offset = 00:05:00
`)
	mi, err := LoadMatchInfo(path)
	require.NoError(t, err)
	require.False(t, mi.ReadyToTrim())
}

func TestParseOffset(t *testing.T) {
	d, err := ParseOffset("01:35:00")
	require.NoError(t, err)
	require.Equal(t, time.Hour+35*time.Minute, d)

	d, err = ParseOffset("05:00")
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, d)

	_, err = ParseOffset("garbage")
	require.Error(t, err)
}
