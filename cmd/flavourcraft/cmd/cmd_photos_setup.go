package cmd

import (
	"github.com/spf13/viper"

	"go-flavourcraft/internal/models"
)

// Allowed values for the photo variant parameter
var allowedPhotoVariants = map[string]bool{
	models.VariantFull:   true,
	models.VariantMedium: true,
	models.VariantThumb:  true,
}

func init() {
	// photosCmd is defined in photos.go
	rootCmd.AddCommand(photosCmd)

	// --- Flags for Photos Command ---
	photosCmd.Flags().String("recipe-id", "", "Export the photo of a single cached recipe.")
	photosCmd.Flags().String("variant", "", "Photo variant to export (full, medium, thumb). Overrides config.")
	photosCmd.Flags().StringP("output-dir", "o", "", "Directory to save photos (default: [SavePath]/photos).")
	// Define a local variable for the photos command's concurrency flag
	var photoConcurrency int
	photosCmd.Flags().IntVarP(&photoConcurrency, "concurrency", "c", 0, "Number of concurrent photo downloads (0 uses the config value).")

	// Bind flags to Viper
	viper.BindPFlag("photos.recipe_id", photosCmd.Flags().Lookup("recipe-id"))
	viper.BindPFlag("photos.variant", photosCmd.Flags().Lookup("variant"))
	viper.BindPFlag("photos.output_dir", photosCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("photos.concurrency", photosCmd.Flags().Lookup("concurrency"))
}
