package cmd

import (
	"github.com/spf13/cobra"
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a recipe from the pantry",
	Long: `Builds a recipe request from the session pantry (plus any extra
ingredients given with --ingredient) and asks the server to generate a recipe.
The generated recipe becomes the current recipe and is cached and indexed
locally. The primary uploaded photo is attached unless --no-image is set.

Examples:
  # Generate from whatever is in the pantry
  flavourcraft generate

  # A quick vegetarian italian dinner, pantry plus some basics
  flavourcraft generate --cuisine italian --diet vegetarian --time 30 -i "olive oil" -i salt`,
	Run: runGenerate,
}

// Persistent flags for logging level and format
var logLevel string
var logFormat string // e.g., "text", "json"
