package cmd

import (
	"github.com/spf13/viper"
)

func init() {
	// snapCmd and snapRemoveCmd are defined in snap.go
	rootCmd.AddCommand(snapCmd)
	snapCmd.AddCommand(snapRemoveCmd)

	// --- Flags for Snap Command ---
	snapCmd.Flags().Bool("stage-only", false, "Stage the photos without uploading; a later 'snap' uploads the batch.")
	snapCmd.Flags().Bool("clear", false, "Discard the staged batch instead of uploading.")

	// Bind flags to Viper
	viper.BindPFlag("snap.stage_only", snapCmd.Flags().Lookup("stage-only"))
	viper.BindPFlag("snap.clear", snapCmd.Flags().Lookup("clear"))
}
