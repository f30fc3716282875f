// Package session persists the working state of a cooking session, the
// pantry and the photos picked for it, so consecutive command invocations
// operate on the same batch.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-flavourcraft/internal/database"
	"go-flavourcraft/internal/models"

	log "github.com/sirupsen/logrus"
)

// sessionKey is the single database key holding the session blob.
const sessionKey = "session"

// State is everything a session carries between invocations.
type State struct {
	Pantry  []string               `json:"pantry"`
	Assets  []models.UploadedAsset `json:"assets"`
	SavedAt int64                  `json:"savedAt"`
}

// Store reads and writes session state in the local database.
type Store struct {
	db *database.DB
}

// NewStore wraps an open database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Load returns the saved session. A database without one yields an empty
// state, not an error, so a fresh install behaves like a cleared session.
func (s *Store) Load() (State, error) {
	data, err := s.db.Get([]byte(sessionKey))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("error reading session state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("error unmarshalling session state: %w", err)
	}
	log.Debugf("Loaded session with %d pantry item(s) and %d photo(s)", len(state.Pantry), len(state.Assets))
	return state, nil
}

// Save stamps and stores the session state.
func (s *Store) Save(state State) error {
	state.SavedAt = time.Now().Unix()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error marshalling session state: %w", err)
	}
	if err := s.db.Put([]byte(sessionKey), data); err != nil {
		return err
	}
	log.Debugf("Saved session with %d pantry item(s) and %d photo(s)", len(state.Pantry), len(state.Assets))
	return nil
}

// Clear removes the saved session. Clearing an absent session succeeds.
func (s *Store) Clear() error {
	err := s.db.Delete([]byte(sessionKey))
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("error clearing session state: %w", err)
	}
	log.Info("Session cleared")
	return nil
}
