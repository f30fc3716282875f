package uploader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go-flavourcraft/internal/api"
	"go-flavourcraft/internal/helpers"
	"go-flavourcraft/internal/ingredients"
	"go-flavourcraft/internal/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrBatchInFlight is returned when a second batch operation starts while an
// upload is still running. There is exactly one in-flight flag for the whole
// batch, never one per file.
var ErrBatchInFlight = errors.New("a batch upload is already in progress")

const (
	// MaxBatchFiles is the most photos one generation accepts.
	MaxBatchFiles = 5
	// MaxFileBytes is the per-file size cap, matching the backend's limit.
	MaxFileBytes = 10 << 20
)

// BatchUploader is the slice of the API client the coordinator needs.
type BatchUploader interface {
	UploadBatch(ctx context.Context, files []api.UploadFile) (models.BatchUploadResponse, error)
}

// BatchResult summarizes a successful batch upload.
type BatchResult struct {
	Detected []string // ingredient names the server reported, in server order
	Added    int      // how many of those were new to the pantry
	Assets   []models.UploadedAsset
}

// Coordinator owns the photo batch for one generation. It filters picked
// files down to usable images, uploads them all in a single request, merges
// detected ingredients into the pantry and pairs returned descriptors with
// files by array position. All upload failures are batch failures; no file
// ever succeeds alone.
type Coordinator struct {
	mu               sync.Mutex
	client           BatchUploader
	pantry           *ingredients.Set
	estimator        ProgressEstimator
	assets           []*models.UploadedAsset
	uploading        bool
	progress         int
	progressInterval time.Duration
	onProgress       func(int)
}

// NewCoordinator creates a coordinator around the given client and pantry.
func NewCoordinator(client BatchUploader, pantry *ingredients.Set) *Coordinator {
	return &Coordinator{
		client:           client,
		pantry:           pantry,
		estimator:        NewSimulatedEstimator(),
		progressInterval: 300 * time.Millisecond,
	}
}

// SetEstimator swaps the progress simulation.
func (c *Coordinator) SetEstimator(e ProgressEstimator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.estimator = e
}

// SetProgressInterval changes how often the simulated progress advances.
func (c *Coordinator) SetProgressInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.progressInterval = d
	}
}

// OnProgress registers a callback invoked with each progress value. The
// callback runs outside the coordinator lock.
func (c *Coordinator) OnProgress(fn func(int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onProgress = fn
}

// AddFiles inspects the picked paths and keeps the usable images. Files that
// are not images, exceed the size cap, duplicate an already-picked photo or
// overflow the batch limit are skipped with a warning, never turned into an
// error. Returns the accepted assets and the number skipped.
func (c *Coordinator) AddFiles(paths []string) ([]models.UploadedAsset, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uploading {
		return nil, 0, ErrBatchInFlight
	}

	seen := make(map[string]struct{}, len(c.assets))
	for _, a := range c.assets {
		seen[a.Fingerprint] = struct{}{}
	}

	var accepted []models.UploadedAsset
	skipped := 0
	for _, path := range paths {
		if len(c.assets) >= MaxBatchFiles {
			log.Warnf("Skipping %s: batch already holds %d photos", path, MaxBatchFiles)
			skipped++
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			log.WithError(err).Warnf("Skipping %s: cannot stat file", path)
			skipped++
			continue
		}
		if info.Size() > MaxFileBytes {
			log.Warnf("Skipping %s: %s exceeds the %s per-file limit",
				path, helpers.BytesToSize(uint64(info.Size())), helpers.BytesToSize(uint64(MaxFileBytes)))
			skipped++
			continue
		}

		contentType, err := helpers.SniffContentType(path)
		if err != nil {
			log.WithError(err).Warnf("Skipping %s: cannot sniff content type", path)
			skipped++
			continue
		}
		if !helpers.IsSupportedImage(contentType) {
			log.Warnf("Skipping %s: %s is not a supported image type", path, contentType)
			skipped++
			continue
		}

		width, height, err := helpers.ImageDimensions(path)
		if err != nil {
			log.WithError(err).Warnf("Skipping %s: unreadable image", path)
			skipped++
			continue
		}

		fingerprint, err := helpers.FileFingerprint(path)
		if err != nil {
			log.WithError(err).Warnf("Skipping %s: cannot fingerprint file", path)
			skipped++
			continue
		}
		if _, dup := seen[fingerprint]; dup {
			log.Warnf("Skipping %s: identical photo already picked", path)
			skipped++
			continue
		}
		seen[fingerprint] = struct{}{}

		asset := &models.UploadedAsset{
			ID:          uuid.NewString(),
			SourcePath:  path,
			FileName:    filepath.Base(path),
			SizeBytes:   uint64(info.Size()),
			ContentType: contentType,
			Width:       width,
			Height:      height,
			Fingerprint: fingerprint,
			Status:      models.AssetStatusPending,
		}
		c.assets = append(c.assets, asset)
		accepted = append(accepted, cloneAsset(asset))
		log.Debugf("Picked %s (%s, %dx%d)", asset.FileName, contentType, width, height)
	}

	return accepted, skipped, nil
}

// UploadBatch sends every pending (or previously failed) photo in a single
// multipart request. While it runs, the simulated progress ticks upward below
// 100; only a real success snaps it to 100. On failure every file in the
// batch is marked failed and the transport error is returned untouched.
func (c *Coordinator) UploadBatch(ctx context.Context) (BatchResult, error) {
	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return BatchResult{}, ErrBatchInFlight
	}

	var batch []*models.UploadedAsset
	for _, a := range c.assets {
		if a.Status == models.AssetStatusPending || a.Status == models.AssetStatusFailed {
			batch = append(batch, a)
		}
	}
	if len(batch) == 0 {
		c.mu.Unlock()
		return BatchResult{}, api.NewValidationError("no pending photos to upload")
	}

	c.uploading = true
	c.progress = 0
	c.estimator.Reset()
	for _, a := range batch {
		a.Status = models.AssetStatusUploading
	}
	onProgress := c.onProgress
	interval := c.progressInterval
	estimator := c.estimator
	c.mu.Unlock()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := estimator.Advance()
				c.mu.Lock()
				c.progress = p
				c.mu.Unlock()
				if onProgress != nil {
					onProgress(p)
				}
			}
		}
	}()

	files, handles, err := openBatchFiles(batch)
	var resp models.BatchUploadResponse
	if err == nil {
		resp, err = c.client.UploadBatch(ctx, files)
		closeFiles(handles)
	}

	close(done)
	wg.Wait()

	c.mu.Lock()
	c.uploading = false

	if err != nil {
		for _, a := range batch {
			a.Status = models.AssetStatusFailed
		}
		c.progress = 0
		c.estimator.Reset()
		c.mu.Unlock()
		log.WithError(err).Errorf("Batch upload of %d photo(s) failed", len(batch))
		return BatchResult{}, err
	}

	added := c.pantry.Merge(resp.Ingredients)
	// Descriptors pair with files by position in the arrays, nothing else
	// links them.
	for i := range batch {
		batch[i].Status = models.AssetStatusUploaded
		if i < len(resp.ImageDescriptors) {
			descriptor := resp.ImageDescriptors[i]
			batch[i].Descriptor = &descriptor
		}
	}
	c.progress = 100
	result := BatchResult{
		Detected: append([]string(nil), resp.Ingredients...),
		Added:    added,
		Assets:   cloneAssets(batch),
	}
	c.mu.Unlock()

	if onProgress != nil {
		onProgress(100)
	}
	log.Infof("Uploaded %d photo(s), server detected %d ingredient(s) (%d new)", len(batch), len(result.Detected), added)
	return result, nil
}

// RemoveAsset drops a photo from the batch by identity: the local asset id or
// the descriptor's public id, never a list position. Returns true if a photo
// was removed.
func (c *Coordinator) RemoveAsset(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uploading || id == "" {
		return false
	}
	for i, a := range c.assets {
		if a.ID == id || (a.Descriptor != nil && a.Descriptor.PublicID == id) {
			c.assets = append(c.assets[:i], c.assets[i+1:]...)
			log.Debugf("Removed photo %s from batch", a.FileName)
			return true
		}
	}
	return false
}

// Assets returns a snapshot of the batch in pick order.
func (c *Coordinator) Assets() []models.UploadedAsset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAssets(c.assets)
}

// Descriptors returns the image descriptors of uploaded photos, in pick
// order.
func (c *Coordinator) Descriptors() []models.ImageURLs {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.ImageURLs
	for _, a := range c.assets {
		if a.Descriptor != nil {
			out = append(out, *a.Descriptor)
		}
	}
	return out
}

// PrimaryDescriptor returns the descriptor attached to the generated recipe:
// the first uploaded photo that has one. Nil when nothing is uploaded yet.
func (c *Coordinator) PrimaryDescriptor() *models.ImageURLs {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, a := range c.assets {
		if a.Descriptor != nil {
			descriptor := *a.Descriptor
			return &descriptor
		}
	}
	return nil
}

// Uploading reports whether a batch is currently in flight.
func (c *Coordinator) Uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploading
}

// Progress returns the current progress value, simulated until completion.
func (c *Coordinator) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Restore replaces the batch with previously persisted assets, for resuming a
// session.
func (c *Coordinator) Restore(assets []models.UploadedAsset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uploading {
		return ErrBatchInFlight
	}
	c.assets = nil
	for i := range assets {
		asset := cloneAsset(&assets[i])
		c.assets = append(c.assets, &asset)
	}
	return nil
}

// Clear drops every photo from the batch.
func (c *Coordinator) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uploading {
		return ErrBatchInFlight
	}
	c.assets = nil
	c.progress = 0
	c.estimator.Reset()
	return nil
}

func openBatchFiles(batch []*models.UploadedAsset) ([]api.UploadFile, []*os.File, error) {
	files := make([]api.UploadFile, 0, len(batch))
	handles := make([]*os.File, 0, len(batch))
	for _, asset := range batch {
		f, err := os.Open(asset.SourcePath)
		if err != nil {
			closeFiles(handles)
			return nil, nil, fmt.Errorf("error opening %s: %w", asset.SourcePath, err)
		}
		handles = append(handles, f)
		files = append(files, api.UploadFile{
			FileName:    asset.FileName,
			ContentType: asset.ContentType,
			Reader:      f,
		})
	}
	return files, handles, nil
}

func closeFiles(handles []*os.File) {
	for _, f := range handles {
		if err := f.Close(); err != nil {
			log.WithError(err).Warnf("Error closing %s", f.Name())
		}
	}
}

func cloneAsset(a *models.UploadedAsset) models.UploadedAsset {
	out := *a
	if a.Descriptor != nil {
		descriptor := *a.Descriptor
		out.Descriptor = &descriptor
	}
	return out
}

func cloneAssets(assets []*models.UploadedAsset) []models.UploadedAsset {
	out := make([]models.UploadedAsset, 0, len(assets))
	for _, a := range assets {
		out = append(out, cloneAsset(a))
	}
	return out
}
