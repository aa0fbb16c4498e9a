package config

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// MatchInfo is the per-group, human-filled document (§3). Section name
// mirrors the Python original's match_info_config["MATCH"].
type MatchInfo struct {
	MyTeamName       string
	OpponentTeamName string
	Location         string
	StartTimeOffset  string
	EndTimeOffset    string
	TotalDuration    string
}

// LoadMatchInfo parses match_info.ini at path.
func LoadMatchInfo(path string) (MatchInfo, error) {
	f, err := ini.Load(path)
	if err != nil {
		return MatchInfo{}, fmt.Errorf("loading %s: %w", path, err)
	}
	sec := f.Section("MATCH")
	return MatchInfo{
		MyTeamName:       sec.Key("my_team_name").String(),
		OpponentTeamName: sec.Key("opponent_team_name").String(),
		Location:         sec.Key("location").String(),
		StartTimeOffset:  sec.Key("start_time_offset").String(),
		EndTimeOffset:    sec.Key("end_time_offset").String(),
		TotalDuration:    sec.Key("total_duration").String(),
	}, nil
}

// ReadyToTrim reports whether the four required fields (§3) are filled in.
func (m MatchInfo) ReadyToTrim() bool {
	return m.MyTeamName != "" && m.OpponentTeamName != "" && m.Location != "" && m.StartTimeOffset != ""
}

// ParseOffset accepts mm:ss or hh:mm:ss and returns the equivalent duration.
func ParseOffset(offset string) (time.Duration, error) {
	var h, m, s int
	switch n := countColons(offset); n {
	case 1:
		if _, err := fmt.Sscanf(offset, "%d:%d", &m, &s); err != nil {
			return 0, fmt.Errorf("parsing offset %q: %w", offset, err)
		}
	case 2:
		if _, err := fmt.Sscanf(offset, "%d:%d:%d", &h, &m, &s); err != nil {
			return 0, fmt.Errorf("parsing offset %q: %w", offset, err)
		}
	default:
		return 0, fmt.Errorf("offset %q must be mm:ss or hh:mm:ss", offset)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
}

func countColons(s string) int {
	n := 0
	for _, r := range s {
		if r == ':' {
			n++
		}
	}
	return n
}
