package recipes

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-flavourcraft/internal/database"
	"go-flavourcraft/internal/models"

	log "github.com/sirupsen/logrus"
)

// recipeKeyPrefix namespaces recipe entries so they can share the database
// with session state and sync markers.
const recipeKeyPrefix = "r_"

// ErrNotCached is returned when a recipe has no entry in the disk cache.
var ErrNotCached = errors.New("recipe not cached")

// DiskCache persists recipes in the local database so history and favorites
// stay readable offline. It satisfies the service's Cache interface.
type DiskCache struct {
	db *database.DB
}

// NewDiskCache wraps an open database.
func NewDiskCache(db *database.DB) *DiskCache {
	return &DiskCache{db: db}
}

func recipeKey(id string) []byte {
	return []byte(recipeKeyPrefix + id)
}

// PutRecipe stores a recipe together with its provenance and fetch time.
func (c *DiskCache) PutRecipe(recipe models.GeneratedRecipe, source string) error {
	if recipe.ID == "" {
		return errors.New("cannot cache a recipe without an id")
	}

	entry := models.CacheEntry{
		Recipe:   recipe,
		SyncedAt: time.Now().Unix(),
		Source:   source,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("error marshalling cache entry for %s: %w", recipe.ID, err)
	}

	log.Debugf("Caching recipe %s (source: %s)", recipe.ID, source)
	return c.db.Put(recipeKey(recipe.ID), data)
}

// GetRecipe loads a cached recipe by id.
func (c *DiskCache) GetRecipe(id string) (models.CacheEntry, error) {
	data, err := c.db.Get(recipeKey(id))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.CacheEntry{}, ErrNotCached
		}
		return models.CacheEntry{}, err
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return models.CacheEntry{}, fmt.Errorf("error unmarshalling cache entry for %s: %w", id, err)
	}
	return entry, nil
}

// DeleteRecipe removes a cached recipe. Deleting an uncached id is not an
// error.
func (c *DiskCache) DeleteRecipe(id string) error {
	err := c.db.Delete(recipeKey(id))
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	return nil
}

// Recipes returns every cached entry, newest sync first. Entries that fail
// to decode are skipped with a warning so one corrupt record cannot hide
// the rest.
func (c *DiskCache) Recipes() ([]models.CacheEntry, error) {
	var entries []models.CacheEntry
	err := c.db.Fold(func(key []byte, value []byte) error {
		keyStr := string(key)
		if len(keyStr) <= len(recipeKeyPrefix) || keyStr[:len(recipeKeyPrefix)] != recipeKeyPrefix {
			return nil
		}

		var entry models.CacheEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			log.WithError(err).Warnf("Skipping undecodable cache entry %s", keyStr)
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning recipe cache: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SyncedAt > entries[j].SyncedAt
	})
	return entries, nil
}

// Purge drops every cached recipe and both view sync markers. Session state
// under its own key is left alone.
func (c *DiskCache) Purge() (int, error) {
	deleted, err := c.db.DeleteByPrefix(recipeKeyPrefix)
	if err != nil {
		return deleted, err
	}
	for _, view := range []string{"history", "favorites"} {
		if err := c.db.DeleteSyncedPage(view); err != nil {
			return deleted, err
		}
	}
	log.Infof("Purged %d cached recipe(s)", deleted)
	return deleted, nil
}
