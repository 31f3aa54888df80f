package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/models"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/session"
)

// DefaultSessionPath returns ~/.hoactl/session.yaml.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".hoactl", "session.yaml")
	}
	return filepath.Join(home, ".hoactl", "session.yaml")
}

type profileFile struct {
	Profiles map[string]models.Session `yaml:"profiles"`
}

// FileStore is a session.Store keeping one session per profile in a YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(_ context.Context, profile string, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	f.Profiles[profile] = sess
	return s.write(f)
}

func (s *FileStore) Get(_ context.Context, profile string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return models.Session{}, err
	}
	sess, ok := f.Profiles[profile]
	if !ok {
		return models.Session{}, session.ErrNotFound
	}
	return sess, nil
}

// Delete removes a profile. A missing file or profile is not an error.
func (s *FileStore) Delete(_ context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := f.Profiles[profile]; !ok {
		return nil
	}
	delete(f.Profiles, profile)
	return s.write(f)
}

func (s *FileStore) load() (*profileFile, error) {
	f := &profileFile{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.Profiles = map[string]models.Session{}
			return f, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if f.Profiles == nil {
		f.Profiles = map[string]models.Session{}
	}
	return f, nil
}

// write replaces the file atomically. The file holds bearer tokens, so it is
// only readable by the owner.
func (s *FileStore) write(f *profileFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
