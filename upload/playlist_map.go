package upload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// playlistMapFileName persists the human-supplied playlist name per team
// (§4.5 step 2: "resolve playlist name via an in-process playlist map keyed
// by my_team_name"), so it survives a restart once a human has answered an
// NTFY request_playlist_name prompt.
const playlistMapFileName = "playlist_names.json"

// PlaylistMap maps a team name to the playlist name a human has chosen for
// it, persisted at storagePath/playlist_names.json.
type PlaylistMap struct {
	path string
	mu   sync.Mutex
}

func NewPlaylistMap(storagePath string) *PlaylistMap {
	return &PlaylistMap{path: filepath.Join(storagePath, playlistMapFileName)}
}

func (m *PlaylistMap) load() (map[string]string, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.path, err)
	}
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", m.path, err)
	}
	return names, nil
}

// Lookup returns the playlist name configured for teamName, or "" if none.
func (m *PlaylistMap) Lookup(teamName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names, err := m.load()
	if err != nil {
		return "", err
	}
	return names[teamName], nil
}

// Set records teamName's chosen playlist name (called once a human
// responds to a request_playlist_name prompt).
func (m *PlaylistMap) Set(teamName, playlistName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	names, err := m.load()
	if err != nil {
		return err
	}
	names[teamName] = playlistName
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling playlist map: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	return os.Rename(tmp, m.path)
}

// resolveName substitutes "{my_team_name}" in a config name-format template.
func resolveName(format, teamName string) string {
	return strings.ReplaceAll(format, "{my_team_name}", teamName)
}
