// Package history keeps the most recent run reports on disk so that later
// invocations can show them. Access is serialized across processes with a
// file lock.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"

	"github.com/probekit/backendcheck/internal/harness"
)

const (
	// FileName is the history file inside the store directory.
	FileName = "history.json"

	// FileVersion is the current history schema version.
	FileVersion = 1

	// LockTimeout bounds how long an operation waits for the lock before
	// proceeding without it.
	LockTimeout = 100 * time.Millisecond
)

// Entry is one stored run.
type Entry struct {
	Report   *harness.Report `json:"report"`
	ExitCode int             `json:"exit_code"`
}

// File is the on-disk layout. Runs are ordered oldest first.
type File struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Runs      []Entry   `json:"runs"`
}

// Store reads and writes the history file under one directory.
type Store struct {
	dir   string
	limit int
}

// NewStore creates a store in dir keeping at most limit runs.
// A non-positive limit keeps a single run.
func NewStore(dir string, limit int) *Store {
	if limit < 1 {
		limit = 1
	}
	return &Store{dir: dir, limit: limit}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the full path to the history file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

func (s *Store) lockPath() string {
	return filepath.Join(s.dir, ".lock")
}

type fileLock struct {
	flock *flock.Flock
}

// acquireLock takes the directory lock. It returns a nil lock and no error
// when LockTimeout expires; callers then proceed unlocked.
func (s *Store) acquireLock() (*fileLock, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return nil, err
	}

	fl := flock.New(s.lockPath())

	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, nil
		}
		return nil, err
	}
	if !locked {
		return nil, nil
	}

	return &fileLock{flock: fl}, nil
}

func (fl *fileLock) release() error {
	if fl == nil || fl.flock == nil {
		return nil
	}
	return fl.flock.Unlock()
}

func (s *Store) withLock(fn func() error) error {
	lock, err := s.acquireLock()
	if err != nil {
		return err
	}
	if lock != nil {
		defer func() { _ = lock.release() }()
	}
	return fn()
}

// loadUnsafe reads the file without locking. A missing or corrupt file reads
// as empty history.
func (s *Store) loadUnsafe() (*File, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &File{Version: FileVersion}, nil
		}
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return &File{Version: FileVersion}, nil
	}
	return &f, nil
}

func (s *Store) saveUnsafe(f *File) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}

	f.Version = FileVersion
	f.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	// Unique temp name so unlocked writers never share a file.
	tmpPath := fmt.Sprintf("%s.%d.%d.tmp", s.Path(), os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	// os.Rename does not replace an existing file on Windows.
	if runtime.GOOS == "windows" {
		_ = os.Remove(s.Path())
	}

	if err := os.Rename(tmpPath, s.Path()); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// Append stores rep as the newest run, dropping the oldest runs beyond the limit.
func (s *Store) Append(rep *harness.Report) error {
	return s.withLock(func() error {
		f, err := s.loadUnsafe()
		if err != nil {
			return err
		}

		f.Runs = append(f.Runs, Entry{Report: rep, ExitCode: rep.ExitCode()})
		if over := len(f.Runs) - s.limit; over > 0 {
			f.Runs = f.Runs[over:]
		}
		return s.saveUnsafe(f)
	})
}

// List returns stored runs, newest first.
func (s *Store) List() ([]Entry, error) {
	var runs []Entry
	err := s.withLock(func() error {
		f, err := s.loadUnsafe()
		if err != nil {
			return err
		}
		runs = make([]Entry, 0, len(f.Runs))
		for i := len(f.Runs) - 1; i >= 0; i-- {
			runs = append(runs, f.Runs[i])
		}
		return nil
	})
	return runs, err
}

// Last returns the newest run. ok is false when nothing is stored.
func (s *Store) Last() (entry Entry, ok bool, err error) {
	runs, err := s.List()
	if err != nil || len(runs) == 0 {
		return Entry{}, false, err
	}
	return runs[0], true, nil
}

// Clear removes the history file.
func (s *Store) Clear() error {
	return s.withLock(func() error {
		err := os.Remove(s.Path())
		if os.IsNotExist(err) {
			return nil
		}
		return err
	})
}
