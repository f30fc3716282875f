package cmd

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go-flavourcraft/internal/exporter"
	"go-flavourcraft/internal/helpers"

	"github.com/gosuri/uilive"
	log "github.com/sirupsen/logrus"
)

// Represents a single photo export task
type photoJob struct {
	RecipeID string
	Title    string
	URL      string
	Variant  string
}

// photoExportWorker handles the export of a single recipe photo.
func photoExportWorker(id int, jobs <-chan photoJob, photoExporter *exporter.Exporter, wg *sync.WaitGroup, writer *uilive.Writer, successCounter *int64, failureCounter *int64, baseOutputDir string) {
	defer wg.Done()
	log.Debugf("Photo worker %d starting", id)
	for job := range jobs {

		// --- Construct Target Path --- START ---
		// One subdirectory per recipe, named after its title
		recipeSlug := helpers.ConvertToSlug(job.Title)
		if recipeSlug == "" {
			recipeSlug = "untitled"
		}
		targetSubDir := filepath.Join(baseOutputDir, recipeSlug)

		// Filename: {recipeID}-{variant}{ext}. The variant URLs of one photo
		// share a base name, so the variant has to be part of the filename.
		ext := ".jpg"
		if parsed, urlErr := url.Parse(job.URL); urlErr == nil {
			if urlExt := filepath.Ext(parsed.Path); urlExt != "" {
				ext = urlExt
			}
		} else {
			log.WithError(urlErr).Warnf("Worker %d: Could not parse photo URL %s for recipe %s", id, job.URL, job.RecipeID)
		}
		filename := fmt.Sprintf("%s-%s%s", job.RecipeID, job.Variant, ext)
		targetPath := filepath.Join(targetSubDir, filename)
		// --- Construct Target Path --- END ---

		fmt.Fprintf(writer.Newline(), "Worker %d: Exporting %s...\n", id, filename)
		startTime := time.Now()

		finalPath, exportErr := photoExporter.ExportPhoto(targetPath, job.URL)
		if exportErr != nil {
			log.WithError(exportErr).Errorf("Worker %d: Failed to export photo for recipe %s from %s", id, job.RecipeID, job.URL)
			fmt.Fprintf(writer.Newline(), "Worker %d: Error exporting %s: %v\n", id, filename, exportErr)
			atomic.AddInt64(failureCounter, 1)
			continue
		}

		duration := time.Since(startTime)
		log.Infof("Worker %d: Exported %s in %v", id, finalPath, duration)
		fmt.Fprintf(writer.Newline(), "Worker %d: Success exporting %s (%v)\n", id, filepath.Base(finalPath), duration.Round(time.Millisecond))
		atomic.AddInt64(successCounter, 1)
	}
	log.Debugf("Photo worker %d finished", id)
	fmt.Fprintf(writer.Newline(), "Worker %d: Finished photo job processing.\n", id)
}
