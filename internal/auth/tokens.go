package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go-flavourcraft/internal/models"

	log "github.com/sirupsen/logrus"
)

// FileStore persists the bearer token as a JSON file on disk. It satisfies
// the api.TokenProvider interface; Invalidate removes the file so a stale
// credential never outlives a 401.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

// NewFileStore creates a token store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Token reads the stored access token. A missing file is not an error, it
// just means nobody is logged in.
func (s *FileStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", s.Path, err)
	}

	var token models.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return "", fmt.Errorf("parsing token file %s: %w", s.Path, err)
	}
	return token.AccessToken, nil
}

// Save writes the token to disk, creating parent directories as needed.
// The file is chmod 0600, it holds a live credential.
func (s *FileStore) Save(token models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating token directory %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0600); err != nil {
		return fmt.Errorf("writing token file %s: %w", s.Path, err)
	}
	log.Debugf("Saved token to %s", s.Path)
	return nil
}

// Invalidate deletes the stored token. Removing an already-missing file is
// fine, the end state is the same.
func (s *FileStore) Invalidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token file %s: %w", s.Path, err)
	}
	if err == nil {
		log.Debugf("Removed stored token file %s", s.Path)
	}
	return nil
}

// StaticToken serves a fixed token, typically from the FLAVOURCRAFT_TOKEN
// environment variable. Invalidate is a no-op since there is nothing stored.
type StaticToken string

func (s StaticToken) Token() (string, error) {
	return string(s), nil
}

func (s StaticToken) Invalidate() error {
	return nil
}
