package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gosuri/uilive"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-flavourcraft/internal/api"
	"go-flavourcraft/internal/helpers"
	"go-flavourcraft/internal/session"
)

// runSnap stages the given photos and uploads the batch unless --stage-only.
func runSnap(cmd *cobra.Command, args []string) {
	stageOnly := viper.GetBool("snap.stage_only")
	clearBatch := viper.GetBool("snap.clear")

	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}
	defer db.Close()

	sessionStore := session.NewStore(db)
	state, err := sessionStore.Load()
	if err != nil {
		log.WithError(err).Warn("Could not load previous session, starting fresh")
	}

	pantry, coordinator := restoreSession(newApiClient(), state)

	if clearBatch {
		if err := coordinator.Clear(); err != nil {
			log.WithError(err).Fatal("Failed to clear the staged batch")
		}
		saveSession(sessionStore, pantry, coordinator)
		log.Info("Staged photo batch discarded.")
		return
	}

	if len(args) > 0 {
		accepted, skipped, err := coordinator.AddFiles(args)
		if err != nil {
			log.WithError(err).Fatal("Could not stage photos")
		}
		if skipped > 0 {
			log.Warnf("Skipped %d non-image file(s)", skipped)
		}
		for _, asset := range accepted {
			log.Infof("Staged %s (%s, %dx%d)", asset.FileName, helpers.BytesToSize(asset.SizeBytes), asset.Width, asset.Height)
		}
	}

	staged := coordinator.Assets()
	if len(staged) == 0 {
		log.Fatal("No photos staged. Pass one or more image files to snap.")
	}

	if stageOnly {
		saveSession(sessionStore, pantry, coordinator)
		fmt.Printf("Staged %d photo(s). Run 'flavourcraft snap' to upload the batch.\n", len(staged))
		return
	}

	// --- Upload With Live Progress --- START ---
	progressWriter := uilive.New()
	progressWriter.Start()
	coordinator.OnProgress(func(p int) {
		fmt.Fprintf(progressWriter, "Analyzing photos... %d%%\n", p)
	})

	result, err := coordinator.UploadBatch(context.Background())
	progressWriter.Stop()
	// --- Upload With Live Progress --- END ---

	// A failed batch stays staged so a later plain snap retries it
	saveSession(sessionStore, pantry, coordinator)

	if err != nil {
		if api.IsValidationError(err) {
			log.WithError(err).Fatal("Nothing to upload")
		}
		log.WithError(err).Fatal("Batch upload failed, photos remain staged for retry")
	}

	fmt.Printf("\nDetected %d ingredient(s) (%d new):\n", len(result.Detected), result.Added)
	for _, name := range result.Detected {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Printf("Pantry now holds %d ingredient(s).\n\n", pantry.Len())

	// --- Descriptor Summary --- START ---
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSIZE\tDIMENSIONS\tPUBLIC ID")
	for _, asset := range result.Assets {
		publicID := "-"
		if asset.Descriptor != nil {
			publicID = asset.Descriptor.PublicID
		}
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\n", asset.FileName, helpers.BytesToSize(asset.SizeBytes), asset.Width, asset.Height, publicID)
	}
	w.Flush()
	// --- Descriptor Summary --- END ---
}

// runSnapRemove drops one photo from the staged batch. The argument matches
// either the local asset id or, after upload, the descriptor's public id.
func runSnapRemove(cmd *cobra.Command, args []string) {
	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}
	defer db.Close()

	sessionStore := session.NewStore(db)
	state, err := sessionStore.Load()
	if err != nil {
		log.WithError(err).Warn("Could not load previous session")
	}

	pantry, coordinator := restoreSession(newApiClient(), state)
	if !coordinator.RemoveAsset(args[0]) {
		log.Fatalf("No staged photo matches %q", args[0])
	}
	saveSession(sessionStore, pantry, coordinator)
	log.Infof("Removed %s from the batch (%d photo(s) remain)", args[0], len(coordinator.Assets()))
}
