package dirstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/sync/singleflight"

	"github.com/mblakley/video-grouper/log"
)

const stateFileName = "state.json"

// stateSchema guards the durable-queue invariant (§8) against a half-written
// or corrupted state.json surviving a crash: loaded JSON is validated
// against this shape before being trusted, the way the teacher's
// handlers/json_schema.go compiles its request schemas once at startup.
var stateSchema = compileStateSchema()

func compileStateSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(`{
		"type": "object",
		"required": ["status", "files"],
		"properties": {
			"status": {"type": "string"},
			"files": {
				"type": "object",
				"additionalProperties": {
					"type": "object",
					"required": ["status"],
					"properties": {
						"status": {"type": "string"},
						"skip": {"type": "boolean"},
						"last_error": {"type": "string"},
						"remote_path": {"type": "string"}
					}
				}
			},
			"youtube_playlist_name": {"type": "string"}
		}
	}`))
	if err != nil {
		panic(err) // fix schema text
	}
	return schema
}

// Store is the Directory State Store (§2, §5): per-group state.json access
// serialized behind an in-process mutex per group and a cross-process
// FileLock, with concurrent reads of the same group collapsed via
// singleflight.
type Store struct {
	mu     sync.Mutex
	groups map[string]*sync.Mutex
	reads  singleflight.Group
}

func NewStore() *Store {
	return &Store{groups: map[string]*sync.Mutex{}}
}

func (s *Store) groupMutex(groupDir string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.groups[groupDir]
	if !ok {
		m = &sync.Mutex{}
		s.groups[groupDir] = m
	}
	return m
}

func statePath(groupDir string) string {
	return filepath.Join(groupDir, stateFileName)
}

// Read loads a group's state.json, validating it against stateSchema.
// Concurrent reads of the same group share one disk read via singleflight.
func (s *Store) Read(groupDir string) (*State, error) {
	v, err, _ := s.reads.Do(groupDir, func() (interface{}, error) {
		return s.readFromDisk(groupDir)
	})
	if err != nil {
		return nil, err
	}
	// Return a copy so callers mutating the result don't corrupt the value
	// shared with other singleflight callers.
	st := *v.(*State)
	filesCopy := make(map[string]*FileRecord, len(st.Files))
	for k, rec := range st.Files {
		r := *rec
		filesCopy[k] = &r
	}
	st.Files = filesCopy
	return &st, nil
}

func (s *Store) readFromDisk(groupDir string) (*State, error) {
	path := statePath(groupDir)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	result, err := stateSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("invalid state.json %s: %v", path, result.Errors())
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", path, err)
	}
	if st.Files == nil {
		st.Files = map[string]*FileRecord{}
	}
	return &st, nil
}

// Update reads the current state, applies fn, and writes the result back
// atomically. It is the sole write path for state.json: callers never
// write directly. The in-process mutex and FileLock together satisfy §5's
// "at most one producer writes state.json of a given group at a time".
func (s *Store) Update(groupDir string, fn func(*State) error) (*State, error) {
	if err := os.MkdirAll(groupDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating group dir %s: %w", groupDir, err)
	}

	mu := s.groupMutex(groupDir)
	mu.Lock()
	defer mu.Unlock()

	lock := NewFileLock(statePath(groupDir))
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.LogNoGroup("error releasing state.json lock", "group_dir", groupDir, "err", err)
		}
	}()

	st, err := s.readFromDisk(groupDir)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	if err := s.write(groupDir, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) write(groupDir string, st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling state for %s: %w", groupDir, err)
	}
	path := statePath(groupDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", tmp, path, err)
	}
	return nil
}
