// Package state provides the persistent task-record store: a mutex-guarded
// map from task id to lifecycle record, serialized in full to a single
// human-editable YAML file on every mutation. The store is the single
// source of truth for whether a task is done, failed, or waiting on a
// human, and it is what makes the whole system resumable across restarts.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/forgeworks/forge/internal/errors"
)

// Record is the persisted lifecycle state of one task. One record per
// task; created on first observation, updated in place, never deleted by
// the orchestrator.
type Record struct {
	Title       string     `yaml:"title"`
	Status      Status     `yaml:"status"`
	Branch      string     `yaml:"branch,omitempty"`
	StartedAt   *time.Time `yaml:"started_at,omitempty"`
	CompletedAt *time.Time `yaml:"completed_at,omitempty"`
	Error       string     `yaml:"error,omitempty"`
}

type stateFile struct {
	Tasks map[string]*Record `yaml:"tasks"`
}

// Store is the persistent state store. All access is serialized by an
// internal mutex; callers never touch the backing file directly.
type Store struct {
	mu    sync.Mutex
	path  string
	tasks map[string]*Record
}

// Load reads the state file at path, creating an empty store if the file
// does not exist. An unreadable or unparseable file is a fatal condition:
// correctness depends on being able to trust the store.
func Load(path string) (*Store, error) {
	tasks := make(map[string]*Record)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.NewStateError("failed to read state file", err).WithPath(path)
		}
	} else {
		var sf stateFile
		if err := yaml.Unmarshal(data, &sf); err != nil {
			return nil, errors.NewStateError("failed to parse state file", errors.ErrStateCorrupted).WithPath(path)
		}
		if sf.Tasks != nil {
			tasks = sf.Tasks
		}
	}

	return &Store{path: path, tasks: tasks}, nil
}

// save serializes the full map and atomically overwrites the backing file.
// Callers must hold s.mu.
func (s *Store) save() error {
	data, err := yaml.Marshal(stateFile{Tasks: s.tasks})
	if err != nil {
		return errors.NewStateError("failed to marshal state", err).WithPath(s.path)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewStateError("failed to create state directory", err).WithPath(s.path)
	}

	if err := atomicWriteFile(s.path, data, 0644); err != nil {
		return errors.NewStateError("failed to write state file", err).WithPath(s.path)
	}
	return nil
}

// Get returns a copy of the record for id, or nil if none exists.
func (s *Store) Get(id string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[id]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

// SetStatus transitions a task to the given status, creating the record on
// first observation.
func (s *Store) SetStatus(id, title string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[id]
	if !ok {
		rec = &Record{Title: title, Status: StatusPending}
		s.tasks[id] = rec
	}
	rec.Status = status
	return s.save()
}

// SetStarted stamps the task's start time.
func (s *Store) SetStarted(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.tasks[id]; ok {
		now := time.Now().UTC()
		rec.StartedAt = &now
		return s.save()
	}
	return nil
}

// SetBranch records the branch a task's changes live on.
func (s *Store) SetBranch(id, branch string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.tasks[id]; ok {
		rec.Branch = branch
		return s.save()
	}
	return nil
}

// SetSuccess marks a task fully integrated and stamps its completion time.
func (s *Store) SetSuccess(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.tasks[id]; ok {
		rec.Status = StatusSuccess
		rec.Error = ""
		now := time.Now().UTC()
		rec.CompletedAt = &now
		return s.save()
	}
	return nil
}

// SetError marks a task failed with a human-readable reason and stamps its
// completion time.
func (s *Store) SetError(id, reason string) error {
	return s.setFailure(id, StatusError, reason)
}

// SetTestFailure marks a task as having failed its test gate, with output.
func (s *Store) SetTestFailure(id, output string) error {
	return s.setFailure(id, StatusTestFailure, output)
}

func (s *Store) setFailure(id string, status Status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.tasks[id]; ok {
		rec.Status = status
		rec.Error = reason
		now := time.Now().UTC()
		rec.CompletedAt = &now
		return s.save()
	}
	return nil
}

// ResetToPending returns a task to the pending status and clears any prior
// error. Idempotent; used exclusively by the clarification-answer flow.
func (s *Store) ResetToPending(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.tasks[id]; ok {
		rec.Status = StatusPending
		rec.Error = ""
		rec.CompletedAt = nil
		return s.save()
	}
	return nil
}

// IsTerminal reports whether id has a record in a terminal status.
func (s *Store) IsTerminal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[id]
	return ok && rec.Status.IsTerminal()
}

// IsProcessed reports whether id has already reached the success terminal.
func (s *Store) IsProcessed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[id]
	return ok && rec.Status == StatusSuccess
}

// Resumable returns the ids of tasks eligible for reprocessing after a
// restart.
func (s *Store) Resumable() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, rec := range s.tasks {
		if rec.Status.IsResumable() {
			ids = append(ids, id)
		}
	}
	return ids
}

// NeedsClarification returns the ids of tasks paused on human input.
func (s *Store) NeedsClarification() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, rec := range s.tasks {
		if rec.Status == StatusNeedsClarification {
			ids = append(ids, id)
		}
	}
	return ids
}

// All returns a copy of every record, keyed by task id.
func (s *Store) All() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Record, len(s.tasks))
	for id, rec := range s.tasks {
		out[id] = *rec
	}
	return out
}

// Summary holds per-bucket task counts for the status view.
type Summary struct {
	Pending    int
	InProgress int
	Completed  int
	Waiting    int
	Failed     int
}

func (s Summary) String() string {
	return fmt.Sprintf("pending=%d, in_progress=%d, completed=%d, waiting=%d, failed=%d",
		s.Pending, s.InProgress, s.Completed, s.Waiting, s.Failed)
}

// Total returns the number of tracked tasks.
func (s Summary) Total() int {
	return s.Pending + s.InProgress + s.Completed + s.Waiting + s.Failed
}

// Summary returns counts of tasks per status bucket.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum Summary
	for _, rec := range s.tasks {
		switch rec.Status {
		case StatusPending:
			sum.Pending++
		case StatusTriaging, StatusExecuting:
			sum.InProgress++
		case StatusSuccess:
			sum.Completed++
		case StatusNeedsClarification:
			sum.Waiting++
		case StatusTestFailure, StatusError:
			sum.Failed++
		}
	}
	return sum
}

// atomicWriteFile writes data to a temporary file in the target directory
// and renames it into place, so the state file is never observed in a
// partially-written form.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
