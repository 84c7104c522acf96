package binding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the binding file name inside the data directory.
const FileName = "steam_binding.json"

// FileBackend stores snapshots as a JSON document on local disk.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend writing to path.
func NewFileBackend(path string) *FileBackend { return &FileBackend{path: path} }

// Path returns the file location.
func (f *FileBackend) Path() string { return f.path }

// Load reads the file. A missing, unreadable or corrupt file yields an empty
// snapshot; the last two are logged.
func (f *FileBackend) Load(ctx context.Context) (Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("failed to read bindings", slog.String("path", f.path), slog.Any("err", err))
		}
		return Snapshot{}, nil
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		slog.Error("failed to parse bindings", slog.String("path", f.path), slog.Any("err", err))
		return Snapshot{}, nil
	}
	return snap, nil
}

// Save writes the snapshot atomically via a temp file and rename.
func (f *FileBackend) Save(ctx context.Context, s Snapshot) error {
	if s.Users == nil {
		s.Users = map[string]string{}
	}
	if s.Groups == nil {
		s.Groups = map[string]map[string]string{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal bindings: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".steam_binding-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write bindings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace bindings file: %w", err)
	}
	return nil
}

// DecodeSnapshot parses either the current {"users","groups"} document or the
// legacy flat {"chatId": "steamId"} map, which becomes users with no groups.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Snapshot{}, err
	}
	// A legacy entry is a string; an object under "users" or "groups" marks
	// the current format even when the other key is absent.
	if isObject(probe["users"]) || isObject(probe["groups"]) {
		var s Snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return Snapshot{}, err
		}
		if s.Users == nil {
			s.Users = map[string]string{}
		}
		if s.Groups == nil {
			s.Groups = map[string]map[string]string{}
		}
		for g, members := range s.Groups {
			if members == nil {
				s.Groups[g] = map[string]string{}
			}
		}
		return s, nil
	}
	users := make(map[string]string, len(probe))
	for k, raw := range probe {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return Snapshot{}, fmt.Errorf("legacy entry %q: %w", k, err)
		}
		users[k] = v
	}
	return Snapshot{Users: users, Groups: map[string]map[string]string{}}, nil
}

func isObject(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '{'
}
