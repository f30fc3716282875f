package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gosuri/uilive"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-flavourcraft/internal/exporter"
	"go-flavourcraft/internal/models"
	"go-flavourcraft/internal/recipes"
)

// runPhotos orchestrates exporting the photos of cached recipes.
func runPhotos(cmd *cobra.Command, args []string) {
	recipeID := viper.GetString("photos.recipe_id")
	variant := viper.GetString("photos.variant")
	targetDir := viper.GetString("photos.output_dir")
	numWorkers := viper.GetInt("photos.concurrency")

	// Flag > config > default
	if variant == "" {
		variant = globalConfig.PhotoVariant
	}
	if variant == "" {
		variant = models.VariantFull
	}
	if !allowedPhotoVariants[variant] {
		log.Fatalf("Invalid variant %q (expected full, medium or thumb)", variant)
	}
	if numWorkers <= 0 {
		numWorkers = globalConfig.Concurrency
	}
	if numWorkers <= 0 {
		numWorkers = 4
	}
	log.Infof("Using photo export concurrency level: %d", numWorkers)

	// Default output dir if not provided
	if targetDir == "" {
		if globalConfig.SavePath == "" {
			log.Fatal("Required configuration 'SavePath' is not set and --output-dir flag was not provided.")
		}
		targetDir = filepath.Join(globalConfig.SavePath, "photos")
		log.Infof("Output directory not specified, using default: %s", targetDir)
	}

	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}
	defer db.Close()

	entries, err := recipes.NewDiskCache(db).Recipes()
	if err != nil {
		log.WithError(err).Fatal("Failed to read the cache")
	}
	if recipeID != "" {
		var match []models.CacheEntry
		for _, entry := range entries {
			if entry.Recipe.ID == recipeID {
				match = append(match, entry)
				break
			}
		}
		if len(match) == 0 {
			log.Fatalf("Recipe %s is not cached locally. Fetch it first with 'flavourcraft show %s --remote'.", recipeID, recipeID)
		}
		entries = match
	}
	if len(entries) == 0 {
		log.Info("No cached recipes to export photos from.")
		return
	}

	// --- Exporter Setup ---
	exportClient := &http.Client{
		Transport: globalHttpTransport,
		Timeout:   0,
	}
	token, err := newTokenStore().Token()
	if err != nil {
		log.Debug("No stored token, exporting without authentication.")
		token = ""
	}
	photoExporter := exporter.NewExporter(exportClient, token)

	// --- Target Directory ---
	log.Infof("Ensuring base target directory exists: %s", targetDir)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		log.WithError(err).Fatalf("Failed to create base target directory: %s", targetDir)
	}

	// --- Export Workers ---
	var wg sync.WaitGroup
	jobs := make(chan photoJob, len(entries))
	writer := uilive.New()
	writer.Start()

	var successCount int64
	var failureCount int64

	log.Infof("Starting %d photo export workers...", numWorkers)
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go photoExportWorker(w, jobs, photoExporter, &wg, writer, &successCount, &failureCount, targetDir)
	}

	// --- Queue Jobs ---
	queuedCount := 0
	skippedCount := 0
	for _, entry := range entries {
		descriptor := entry.Recipe.ImageURLs
		if descriptor == nil || !descriptor.Complete() {
			log.Debugf("Recipe %s has no usable photo descriptor, skipping.", entry.Recipe.ID)
			skippedCount++
			continue
		}
		jobs <- photoJob{
			RecipeID: entry.Recipe.ID,
			Title:    entry.Recipe.Recipe.Title,
			URL:      descriptor.VariantURL(variant),
			Variant:  variant,
		}
		queuedCount++
	}
	close(jobs)
	log.Infof("Queued %d photo job(s), skipped %d recipe(s) without photos.", queuedCount, skippedCount)

	// --- Wait for Completion ---
	wg.Wait()
	writer.Stop()

	// --- Final Report ---
	finalSuccessCount := atomic.LoadInt64(&successCount)
	finalFailureCount := atomic.LoadInt64(&failureCount)

	if finalFailureCount > 0 {
		log.Warn("Some photo exports failed. Check logs for details.")
	}

	fmt.Println("----- Photo Export Summary -----")
	fmt.Printf(" Target Base Directory: %s\n", targetDir)
	fmt.Printf(" Cached Recipes: %d\n", len(entries))
	fmt.Printf(" Photos Queued: %d\n", queuedCount)
	fmt.Printf(" Skipped (no photo): %d\n", skippedCount)
	fmt.Printf(" Successfully Exported: %d\n", finalSuccessCount)
	fmt.Printf(" Failed: %d\n", finalFailureCount)
	fmt.Println("--------------------------------")
}
