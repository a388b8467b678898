// Package filestore is the flat-file storage backend: the whole account
// table lives in one JSON document keyed by username, read into memory at
// startup and rewritten in full on every mutation.
//
// Two layers of locking keep the read-modify-write cycles safe: a process
// mutex serializes concurrent requests, and a flock on the data directory
// keeps a second server process from writing the same files. Writes go
// through filex.WriteFileAtomic so a crash never leaves a truncated table.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/dayplanner/internal/common"
	"github.com/dmitrijs2005/dayplanner/internal/filex"
	"github.com/dmitrijs2005/dayplanner/internal/server/models"
	"github.com/dmitrijs2005/dayplanner/internal/server/repositories/tasks"
	"github.com/gofrs/flock"
)

const (
	accountsFile = "accounts.json"
	legacyCSV    = "tasks.csv"
	lockFile     = "store.lock"
)

// accountRecord is the on-disk shape of one account. The username is the
// map key, not a field.
type accountRecord struct {
	PasswordHash string        `json:"password_hash"`
	Email        string        `json:"email"`
	Tasks        []models.Task `json:"tasks"`
}

// Store implements both accounts.Repository and tasks.Repository.
type Store struct {
	mu       sync.Mutex
	path     string
	flock    *flock.Flock
	accounts map[string]*accountRecord
}

// New opens (or creates) the store under dir, acquires the cross-process
// lock, loads the account table, and migrates legacy records: tasks stored
// in the old per-account schema get fresh IDs, and an old global tasks.csv
// is imported under models.GlobalOwner and renamed so it is only imported
// once.
func New(dir string) (*Store, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}

	fl := flock.New(filepath.Join(abs, lockFile))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock store: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("store in %s is locked by another process", abs)
	}

	s := &Store{
		path:     abs,
		flock:    fl,
		accounts: make(map[string]*accountRecord),
	}

	if err := s.load(); err != nil {
		_ = fl.Unlock()
		return nil, err
	}

	return s, nil
}

// Close releases the cross-process lock.
func (s *Store) Close() error {
	return s.flock.Unlock()
}

func (s *Store) load() error {
	data, err := os.ReadFile(filepath.Join(s.path, accountsFile))
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read account table: %w", err)
		}
	} else if err := json.Unmarshal(data, &s.accounts); err != nil {
		return fmt.Errorf("parse account table: %w", err)
	}

	changed := false
	for _, rec := range s.accounts {
		if assignMissingIDs(rec.Tasks) {
			changed = true
		}
	}

	imported, err := s.importLegacyCSV()
	if err != nil {
		return err
	}

	if changed || imported {
		if err := s.persist(); err != nil {
			return err
		}
	}

	return nil
}

// assignMissingIDs gives legacy rows (ID 0 after schema migration) the next
// free IDs, preserving their order. Reports whether anything changed.
func assignMissingIDs(ts []models.Task) bool {
	var next int64
	for _, t := range ts {
		if t.ID > next {
			next = t.ID
		}
	}

	changed := false
	for i := range ts {
		if ts[i].ID == 0 {
			next++
			ts[i].ID = next
			changed = true
		}
	}
	return changed
}

// persist rewrites the whole account table. Caller holds s.mu (or is still
// inside New).
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode account table: %w", err)
	}

	if err := filex.WriteFileAtomic(filepath.Join(s.path, accountsFile), data, 0o600); err != nil {
		return fmt.Errorf("persist account table: %w", err)
	}

	return nil
}

func (s *Store) record(owner string) (*accountRecord, error) {
	rec, ok := s.accounts[owner]
	if !ok {
		if owner != models.GlobalOwner {
			return nil, common.ErrNotFound
		}
		// The global collection springs into existence on first use.
		rec = &accountRecord{}
		s.accounts[owner] = rec
	}
	return rec, nil
}

// --- accounts.Repository ---

func (s *Store) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Username]; ok {
		return nil, common.ErrUsernameTaken
	}

	rec := &accountRecord{
		PasswordHash: account.PasswordHash,
		Email:        account.Email,
		Tasks:        append([]models.Task(nil), account.Tasks...),
	}
	s.accounts[account.Username] = rec

	if err := s.persist(); err != nil {
		delete(s.accounts, account.Username)
		return nil, err
	}

	return account.Clone(), nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.accounts[username]
	if !ok {
		return nil, common.ErrNotFound
	}

	a := &models.Account{
		Username:     username,
		PasswordHash: rec.PasswordHash,
		Email:        rec.Email,
		Tasks:        append([]models.Task(nil), rec.Tasks...),
	}
	return a, nil
}

func (s *Store) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.accounts[username]
	if !ok {
		return common.ErrNotFound
	}

	prev := rec.PasswordHash
	rec.PasswordHash = passwordHash

	if err := s.persist(); err != nil {
		rec.PasswordHash = prev
		return err
	}

	return nil
}

// --- tasks.Repository ---

func (s *Store) ListByOwner(ctx context.Context, owner string) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.record(owner)
	if err != nil {
		return nil, err
	}

	return append([]models.Task(nil), rec.Tasks...), nil
}

func (s *Store) Append(ctx context.Context, owner string, task models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.record(owner)
	if err != nil {
		return nil, err
	}

	var max int64
	for _, t := range rec.Tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	task.ID = max + 1

	rec.Tasks = append(rec.Tasks, task)

	if err := s.persist(); err != nil {
		rec.Tasks = rec.Tasks[:len(rec.Tasks)-1]
		return nil, err
	}

	return &task, nil
}

func (s *Store) Delete(ctx context.Context, owner string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.record(owner)
	if err != nil {
		return err
	}

	idx := -1
	for i, t := range rec.Tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return common.ErrNotFound
	}

	prev := rec.Tasks
	rec.Tasks = append(append([]models.Task(nil), prev[:idx]...), prev[idx+1:]...)

	if err := s.persist(); err != nil {
		rec.Tasks = prev
		return err
	}

	return nil
}

func (s *Store) UpdateFields(ctx context.Context, owner string, id int64, completed *bool, note *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.record(owner)
	if err != nil {
		return err
	}

	idx := -1
	for i, t := range rec.Tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return common.ErrNotFound
	}

	prev := rec.Tasks[idx]
	if completed != nil {
		rec.Tasks[idx].Completed = *completed
	}
	if note != nil {
		rec.Tasks[idx].Note = *note
	}

	if err := s.persist(); err != nil {
		rec.Tasks[idx] = prev
		return err
	}

	return nil
}

func (s *Store) ApplyView(ctx context.Context, owner string, edits []tasks.ViewEdit) error {
	if len(edits) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.record(owner)
	if err != nil {
		return err
	}

	byID := make(map[int64]tasks.ViewEdit, len(edits))
	for _, e := range edits {
		byID[e.ID] = e
	}

	prev := append([]models.Task(nil), rec.Tasks...)
	for i := range rec.Tasks {
		// Edits for IDs not in the collection are skipped, and tasks
		// missing from the snapshot keep their current fields.
		if e, ok := byID[rec.Tasks[i].ID]; ok {
			rec.Tasks[i].Completed = e.Completed
			rec.Tasks[i].Note = e.Note
		}
	}

	if err := s.persist(); err != nil {
		rec.Tasks = prev
		return err
	}

	return nil
}
