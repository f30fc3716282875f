package database

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"git.mills.io/prologic/bitcask"
	log "github.com/sirupsen/logrus" // Use logrus aliased as log
)

// ErrNotFound is returned when a key is not found in the database.
var ErrNotFound = errors.New("key not found")

// gzipMagicBytes are the first two bytes of a gzip file.
var gzipMagicBytes = []byte{0x1f, 0x8b}

// DB wraps the bitcask database instance and provides helper methods.
type DB struct {
	db           *bitcask.Bitcask
	sync.RWMutex // Embed mutex for concurrent access control
}

// Open initializes and returns a DB instance.
func Open(path string) (*DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	dbInstance, err := bitcask.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bitcask database at %s: %w", path, err)
	}
	log.Infof("Database opened successfully at %s", path)
	return &DB{db: dbInstance}, nil
}

// Lock acquires a write lock.
func (d *DB) Lock() {
	d.RWMutex.Lock()
}

// Unlock releases a write lock.
func (d *DB) Unlock() {
	d.RWMutex.Unlock()
}

// RLock acquires a read lock.
func (d *DB) RLock() {
	d.RWMutex.RLock()
}

// RUnlock releases a read lock.
func (d *DB) RUnlock() {
	d.RWMutex.RUnlock()
}

// Close safely closes the database connection.
func (d *DB) Close() error {
	log.Info("Closing database...")
	// Acquire write lock to ensure no operations are in progress during close
	d.Lock()
	defer d.Unlock()
	return d.db.Close()
}

// Has checks if a key exists in the database.
func (d *DB) Has(key []byte) bool {
	d.RLock()
	defer d.RUnlock()
	return d.db.Has(key)
}

// Get retrieves the value associated with a key and decompresses it if necessary.
func (d *DB) Get(key []byte) ([]byte, error) {
	d.RLock()
	value, err := d.db.Get(key)
	d.RUnlock()

	if err != nil {
		if errors.Is(err, bitcask.ErrKeyNotFound) {
			return nil, ErrNotFound // Return our specific package error
		}
		return nil, fmt.Errorf("error getting key %s: %w", string(key), err)
	}

	// Stored values may predate compression, so sniff before inflating
	return decompressIfGzipped(value)
}

// Put compresses and stores a key-value pair in the database.
func (d *DB) Put(key []byte, value []byte) error {
	compressedValue, err := compressGzip(value, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("error compressing value for key %s: %w", string(key), err)
	}

	d.Lock()
	err = d.db.Put(key, compressedValue)
	d.Unlock()
	if err != nil {
		return fmt.Errorf("error putting compressed key %s: %w", string(key), err)
	}
	return nil
}

// Delete removes a key from the database.
func (d *DB) Delete(key []byte) error {
	d.Lock()
	err := d.db.Delete(key)
	d.Unlock()
	if err != nil {
		if errors.Is(err, bitcask.ErrKeyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("error deleting key %s: %w", string(key), err)
	}
	return nil
}

// Fold iterates over all key-value pairs, decompresses the value,
// and calls the provided function.
func (d *DB) Fold(fn func(key []byte, value []byte) error) error {
	d.RLock()
	defer d.RUnlock()

	err := d.db.Fold(func(key []byte) error {
		// Keep the main read lock for the duration of Fold
		rawValue, err := d.db.Get(key)
		if err != nil {
			log.WithError(err).Warnf("Fold: Error getting value for key %s", string(key))
			return nil // Skip this key rather than aborting the fold
		}

		value, err := decompressIfGzipped(rawValue)
		if err != nil {
			log.WithError(err).Warnf("Fold: Error decompressing value for key %s", string(key))
			return nil
		}

		return fn(key, value)
	})

	return err
}

// Keys returns a channel of all keys in the database.
// Read from the channel until it is closed.
// Note: This holds a read lock during iteration, so do not call write
// operations until the channel is drained.
func (d *DB) Keys() <-chan []byte {
	d.RLock()
	keysChan := d.db.Keys()
	monitoredChan := make(chan []byte)

	go func() {
		defer d.RUnlock() // Release once the channel is fully consumed or closed
		for key := range keysChan {
			monitoredChan <- key
		}
		close(monitoredChan)
	}()

	return monitoredChan
}

// DeleteByPrefix removes every key starting with the given prefix and
// returns how many were deleted. Keys are collected first so deletion does
// not race the iteration locks.
func (d *DB) DeleteByPrefix(prefix string) (int, error) {
	var matched [][]byte
	err := d.Fold(func(key []byte, value []byte) error {
		if strings.HasPrefix(string(key), prefix) {
			matched = append(matched, append([]byte(nil), key...))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("error scanning keys with prefix %s: %w", prefix, err)
	}

	deleted := 0
	for _, key := range matched {
		if err := d.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// --- Compression Helpers ---

// decompressIfGzipped decompresses the value if it is gzipped.
func decompressIfGzipped(value []byte) ([]byte, error) {
	if bytes.HasPrefix(value, gzipMagicBytes) {
		bReader := bytes.NewReader(value)
		gReader, err := gzip.NewReader(bReader)
		if err != nil {
			log.WithError(err).Warnf("Error creating gzip reader for value, returning raw data.")
			return value, nil // Return raw data on decompression error
		}
		defer gReader.Close()

		decompressedValue, err := io.ReadAll(gReader)
		if err != nil {
			log.WithError(err).Warnf("Error decompressing value, returning raw data.")
			return value, nil
		}
		return decompressedValue, nil
	}

	// If no gzip header, return the value as is
	return value, nil
}

// compressGzip compresses the value using gzip with the specified compression level.
func compressGzip(value []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	gWriter, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("error creating gzip writer for value: %w", err)
	}
	_, err = gWriter.Write(value)
	if err != nil {
		_ = gWriter.Close() // Attempt to close writer even on error
		return nil, fmt.Errorf("error writing compressed data for value: %w", err)
	}
	err = gWriter.Close() // Close *must* be called to flush buffers
	if err != nil {
		return nil, fmt.Errorf("error closing gzip writer for value: %w", err)
	}

	return buf.Bytes(), nil
}

// --- Sync State Helpers ---

// GetSyncedPage retrieves the last fully synced page for a listing view
// ("history" or "favorites"). Defaults to 0 when nothing was synced yet.
func (d *DB) GetSyncedPage(view string) (int, error) {
	key := []byte("sync_page_" + view)
	pageBytes, err := d.Get(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("error reading sync state for %s: %w", view, err)
	}

	page, err := strconv.Atoi(string(pageBytes))
	if err != nil {
		return 0, fmt.Errorf("error parsing saved page number '%s': %w", string(pageBytes), err)
	}
	log.WithField("view", view).Debugf("Retrieved synced page: %d", page)
	return page, nil
}

// SetSyncedPage saves the last fully synced page for a listing view.
func (d *DB) SetSyncedPage(view string, page int) error {
	key := []byte("sync_page_" + view)
	if err := d.Put(key, []byte(strconv.Itoa(page))); err != nil {
		return err // Put already wraps error
	}
	log.WithField("view", view).Debugf("Set synced page to: %d", page)
	return nil
}

// DeleteSyncedPage removes the saved page marker for a listing view.
func (d *DB) DeleteSyncedPage(view string) error {
	err := d.Delete([]byte("sync_page_" + view))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("error deleting sync state for %s: %w", view, err)
	}
	log.WithField("view", view).Info("Deleted synced page marker")
	return nil // Treat a missing key as success
}
