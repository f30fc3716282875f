// Package exporter saves recipe photos from their CDN descriptors to local
// disk, skipping photos that are already present.
package exporter

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go-flavourcraft/internal/helpers"

	log "github.com/sirupsen/logrus"
)

// Custom Exporter Errors
var (
	ErrHttpStatus  = errors.New("unexpected HTTP status code")
	ErrFileSystem  = errors.New("filesystem error") // Covers create, remove, rename
	ErrHttpRequest = errors.New("HTTP request creation/execution error")
)

// Exporter handles downloading photo variants with progress reporting.
type Exporter struct {
	client *http.Client
	token  string
}

// NewExporter creates a new Exporter instance. The token is optional; CDN
// URLs are usually public but signed delivery setups need the bearer.
func NewExporter(client *http.Client, token string) *Exporter {
	if client == nil {
		client = &http.Client{
			Timeout: 5 * time.Minute,
		}
	}
	return &Exporter{
		client: client,
		token:  token,
	}
}

// findExistingPhotoFile checks the directory for a non-empty file whose base
// name matches, regardless of extension. CDN responses can rename a photo
// via Content-Disposition, so an exact-path stat is not enough to detect a
// previous export.
func findExistingPhotoFile(dirPath string, baseNameWithoutExt string) (foundPath string, exists bool, err error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil // Directory doesn't exist, so file doesn't exist
		}
		return "", false, fmt.Errorf("reading directory %s: %w", dirPath, err)
	}

	log.Debugf("Scanning directory %s for base name '%s'...", dirPath, baseNameWithoutExt)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		entryName := entry.Name()
		entryBaseName := strings.TrimSuffix(entryName, filepath.Ext(entryName))
		if !strings.EqualFold(entryBaseName, baseNameWithoutExt) {
			continue
		}

		fullPath := filepath.Join(dirPath, entryName)
		info, err := entry.Info()
		if err != nil {
			log.WithError(err).Warnf("Could not stat candidate file %s", fullPath)
			continue
		}
		if info.Size() == 0 {
			log.Debugf("Ignoring empty candidate file %s", fullPath)
			continue
		}
		log.Debugf("Base name match found: %s", fullPath)
		return fullPath, true, nil
	}

	log.Debugf("No existing file matching base name '%s' in %s", baseNameWithoutExt, dirPath)
	return "", false, nil
}

// ExportPhoto downloads a photo from the given URL to the target filepath.
// It skips photos that already exist and honors a filename supplied via the
// Content-Disposition header. Returns the final filepath used (or empty
// string on failure) and an error if one occurred.
func (e *Exporter) ExportPhoto(targetFilepath string, url string) (string, error) {
	targetDir := filepath.Dir(targetFilepath)
	initialBaseName := filepath.Base(targetFilepath)
	initialBaseNameWithoutExt := strings.TrimSuffix(initialBaseName, filepath.Ext(initialBaseName))

	// --- Initial Check for Existing File ---
	foundPath, exists, errCheck := findExistingPhotoFile(targetDir, initialBaseNameWithoutExt)
	if errCheck != nil {
		log.WithError(errCheck).Errorf("Error during initial check for existing file matching %s in %s", initialBaseNameWithoutExt, targetDir)
		return "", fmt.Errorf("%w: initial check for existing file: %v", ErrFileSystem, errCheck)
	}
	if exists {
		log.Infof("Found existing photo matching '%s': %s. Skipping export.", initialBaseNameWithoutExt, foundPath)
		return foundPath, nil
	}
	// --- End Initial Check ---

	// Ensure target directory exists before creating temp file
	if !helpers.CheckAndMakeDir(targetDir) {
		return "", fmt.Errorf("%w: failed to create target directory %s", ErrFileSystem, targetDir)
	}

	tempFile, err := os.CreateTemp(targetDir, initialBaseName+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: creating temporary file %s: %w", ErrFileSystem, targetFilepath, err)
	}
	shouldCleanupTemp := true
	defer func() {
		if shouldCleanupTemp {
			log.Debugf("Cleaning up temporary file via defer: %s", tempFile.Name())
			if removeErr := os.Remove(tempFile.Name()); removeErr != nil {
				log.WithError(removeErr).Warnf("Failed to remove temporary file %s during defer cleanup", tempFile.Name())
			}
		}
	}()

	log.Infof("Attempting to export photo from URL: %s", url)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating export request for %s: %v", ErrHttpRequest, url, err)
	}
	if e.token != "" {
		log.Debug("Adding Authorization header to export request.")
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		log.WithError(err).Errorf("Error performing export request from %s", url)
		return "", fmt.Errorf("%w: performing request for %s: %v", ErrHttpRequest, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("Error exporting photo: Received status code %d from %s", resp.StatusCode, url)
		return "", fmt.Errorf("%w: received status %d from %s", ErrHttpStatus, resp.StatusCode, url)
	}

	// --- Filename Handling from Content-Disposition ---
	contentDisposition := resp.Header.Get("Content-Disposition")
	potentialApiFilename := ""
	if contentDisposition != "" {
		_, params, err := mime.ParseMediaType(contentDisposition)
		if err == nil && params["filename"] != "" {
			potentialApiFilename = params["filename"]
			log.Infof("Received filename from Content-Disposition: %s", potentialApiFilename)
		} else if strings.HasPrefix(contentDisposition, "inline") && params["filename"] == "" {
			// Inline delivery without a filename is the normal CDN case
			log.Debugf("Content-Disposition is '%s' (no filename), using constructed filename.", contentDisposition)
		} else {
			log.WithError(err).Warnf("Could not parse Content-Disposition header: %s", contentDisposition)
		}
	}

	finalFilepath := targetFilepath
	if potentialApiFilename != "" {
		finalFilepath = filepath.Join(targetDir, potentialApiFilename)
	}

	// --- Check Existence of FINAL Path ---
	if finalFilepath != targetFilepath {
		finalBaseName := filepath.Base(finalFilepath)
		finalBaseNameWithoutExt := strings.TrimSuffix(finalBaseName, filepath.Ext(finalBaseName))
		foundPathFinal, existsFinal, errCheckFinal := findExistingPhotoFile(targetDir, finalBaseNameWithoutExt)
		if errCheckFinal != nil {
			return "", fmt.Errorf("%w: final check for existing file: %v", ErrFileSystem, errCheckFinal)
		}
		if existsFinal {
			log.Infof("Found existing photo matching final name '%s': %s. Export not needed.", finalBaseNameWithoutExt, foundPathFinal)
			return foundPathFinal, nil
		}
	}
	// --- End Final Path Check ---

	size, _ := strconv.ParseUint(resp.Header.Get("Content-Length"), 10, 64)

	counter := &helpers.CounterWriter{
		Writer: tempFile,
		Total:  0,
	}

	log.Infof("Exporting to %s (Target: %s, Size: %s)...", tempFile.Name(), finalFilepath, helpers.BytesToSize(size))
	_, err = io.Copy(counter, resp.Body)
	if err != nil {
		log.WithError(err).Errorf("Error writing temporary file %s", tempFile.Name())
		return "", fmt.Errorf("%w: writing temporary file %s: %v", ErrFileSystem, tempFile.Name(), err)
	}

	// Close the file before renaming
	if err := tempFile.Close(); err != nil {
		log.WithError(err).Errorf("Failed to close temp file %s before rename", tempFile.Name())
		return "", fmt.Errorf("%w: closing temp file %s: %w", ErrFileSystem, tempFile.Name(), err)
	}

	log.Debugf("Renaming temp file %s to %s", tempFile.Name(), finalFilepath)
	if err = os.Rename(tempFile.Name(), finalFilepath); err != nil {
		log.WithError(err).Errorf("Error renaming temporary file %s to %s", tempFile.Name(), finalFilepath)
		return "", fmt.Errorf("%w: renaming temporary file %s to %s: %v", ErrFileSystem, tempFile.Name(), finalFilepath, err)
	}

	shouldCleanupTemp = false
	log.Infof("Successfully exported %s (%s)", finalFilepath, helpers.BytesToSize(counter.Total))

	return finalFilepath, nil
}
