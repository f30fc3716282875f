package cmd

import (
	"github.com/spf13/cobra"
)

// photosCmd represents the photos command
var photosCmd = &cobra.Command{
	Use:   "photos",
	Short: "Export ingredient photos of cached recipes to disk",
	Long: `Downloads the ingredient photos attached to cached recipes into a folder
per recipe. By default every cached recipe with a photo is exported; use
--recipe-id to export a single one.

Examples:
  # Export the full-size photo of every cached recipe
  flavourcraft photos

  # Thumbnails of one recipe, four at a time, into ./thumbs
  flavourcraft photos --recipe-id abc123 --variant thumb -c 4 -o thumbs`,
	Run: runPhotos,
}
