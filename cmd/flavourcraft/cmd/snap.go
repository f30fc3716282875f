package cmd

import (
	"github.com/spf13/cobra"
)

// snapCmd represents the snap command
var snapCmd = &cobra.Command{
	Use:   "snap <photo> [photo...]",
	Short: "Upload ingredient photos and detect what is in them",
	Long: `Stages one or more ingredient photos and uploads them as a single batch.
The server detects the ingredients in the photos and the detected names are
merged into your pantry. Non-image files are skipped with a warning. A batch
holds at most 5 photos of up to 10 MiB each (jpeg, png or webp).

Examples:
  # Upload two photos and merge the detected ingredients into the pantry
  flavourcraft snap fridge.jpg counter.png

  # Stage photos now, upload later with a plain 'flavourcraft snap'
  flavourcraft snap fridge.jpg --stage-only
  flavourcraft snap`,
	Run: runSnap,
}

// snapRemoveCmd represents the snap remove subcommand
var snapRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a photo from the batch by asset id or public id",
	Args:  cobra.ExactArgs(1),
	Run:   runSnapRemove,
}
