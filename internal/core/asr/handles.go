package asr

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Handle is the durable record of an in-flight long-running recognition. It
// carries everything needed to resume polling after a restart.
type Handle struct {
	OperationName string `json:"operation_name"`
	ObjectURI     string `json:"object_uri"`
}

// HandleStore persists at most one Handle per meeting across restarts.
type HandleStore interface {
	Get(meetingID int32) (Handle, bool, error)
	Put(meetingID int32, h Handle) error
	Remove(meetingID int32) error
	ListAll() (map[int32]Handle, error)
}

// FileHandleStore keeps handles in a single JSON file, rewritten whole on
// every mutation. The file is small (one entry per in-flight job) so the
// simplicity wins over anything incremental.
type FileHandleStore struct {
	mu   sync.Mutex
	path string
}

func NewFileHandleStore(path string) *FileHandleStore {
	return &FileHandleStore{path: path}
}

func (s *FileHandleStore) Get(meetingID int32) (Handle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return Handle{}, false, err
	}
	h, ok := all[key(meetingID)]
	return h, ok, nil
}

func (s *FileHandleStore) Put(meetingID int32, h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return err
	}
	all[key(meetingID)] = h
	return s.save(all)
}

func (s *FileHandleStore) Remove(meetingID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := all[key(meetingID)]; !ok {
		return nil
	}
	delete(all, key(meetingID))
	return s.save(all)
}

func (s *FileHandleStore) ListAll() (map[int32]Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make(map[int32]Handle, len(all))
	for k, h := range all {
		id, err := strconv.ParseInt(k, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("handle store: bad meeting id %q", k)
		}
		out[int32(id)] = h
	}
	return out, nil
}

func (s *FileHandleStore) load() (map[string]Handle, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Handle{}, nil
	}
	if err != nil {
		return nil, err
	}
	all := map[string]Handle{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &all); err != nil {
			return nil, fmt.Errorf("handle store %s: %w", s.path, err)
		}
	}
	return all, nil
}

func (s *FileHandleStore) save(all map[string]Handle) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func key(meetingID int32) string {
	return strconv.FormatInt(int64(meetingID), 10)
}
