package remote

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/emilythestrangee/newsboard/internal/models"
)

// Session carries the viewer's token for the lifetime of the client. It is
// started by a successful login or signup and ended by Logout or by an
// Unauthorized answer to CurrentViewer. When a token file is configured the
// token also survives process restarts.
type Session struct {
	mu     sync.RWMutex
	token  string
	viewer *models.User
	file   string
}

func NewSession() *Session {
	return &Session{}
}

// LoadSession restores a token saved in path. A missing file yields an empty
// session.
func LoadSession(path string) (*Session, error) {
	s := &Session{file: path}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	s.token = strings.TrimSpace(string(data))
	return s, nil
}

func (s *Session) Begin(token string, viewer models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.viewer = &viewer
	if s.file == "" {
		return nil
	}
	if err := os.WriteFile(s.file, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("save token file: %w", err)
	}
	return nil
}

// SetViewer records the identity behind the current token.
func (s *Session) SetViewer(viewer models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		s.viewer = &viewer
	}
}

func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.viewer = nil
	if s.file != "" {
		_ = os.Remove(s.file)
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Viewer returns the identity behind the token, if it is known yet.
func (s *Session) Viewer() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.viewer == nil {
		return models.User{}, false
	}
	return *s.viewer, true
}
