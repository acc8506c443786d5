package api

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Session is what a client keeps after logging in.
type Session struct {
	Token string        `json:"token"`
	User  UserTransport `json:"user"`
}

func (s Session) IsZero() bool {
	return s.Token == ""
}

// SessionStore persists the session of a client between calls. Load returns a zero Session when nothing is stored.
type SessionStore interface {
	Load() (Session, error)
	Save(session Session) error
	Clear() error
}

type MemorySessionStore struct {
	mu      sync.RWMutex
	session Session
}

func (s *MemorySessionStore) Load() (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, nil
}

func (s *MemorySessionStore) Save(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	return nil
}

func (s *MemorySessionStore) Clear() error {
	return s.Save(Session{})
}

// FileSessionStore keeps the session in a json file readable only by its owner.
type FileSessionStore struct {
	Path string
	mu   sync.Mutex
}

func (s *FileSessionStore) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := Session{}
	b, err := ioutil.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return session, nil
	}
	if err != nil {
		return session, errors.Wrap(err, "failed to read session file")
	}
	if err := json.Unmarshal(b, &session); err != nil {
		return Session{}, errors.Wrap(err, "failed to decode session file")
	}
	return session, nil
}

func (s *FileSessionStore) Save(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return errors.Wrap(err, "failed to create session directory")
	}
	tmp := s.Path + ".tmp"
	if err := ioutil.WriteFile(tmp, b, 0600); err != nil {
		return errors.Wrap(err, "failed to write session file")
	}
	return errors.Wrap(os.Rename(tmp, s.Path), "failed to write session file")
}

func (s *FileSessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove session file")
	}
	return nil
}
