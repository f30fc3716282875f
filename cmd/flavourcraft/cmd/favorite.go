package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-flavourcraft/internal/api"
)

// favoriteCmd represents the favorite command
var favoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Toggle a recipe's favorite status",
	Long: `Flips the favorite flag of a recipe. The server is updated first; the
local cache only follows a successful toggle, so a failed call leaves
everything as it was. Toggling twice restores the original state.`,
	Args: cobra.ExactArgs(1),
	Run:  runFavorite,
}

func init() {
	rootCmd.AddCommand(favoriteCmd)
}

func runFavorite(cmd *cobra.Command, args []string) {
	id := args[0]

	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}
	defer db.Close()

	service, _, closeIndex := newRecipeService(db)
	defer closeIndex()

	recipe, err := service.ToggleFavorite(context.Background(), id)
	if err != nil {
		if api.IsValidationError(err) {
			log.WithError(err).Fatal("Invalid recipe id")
		}
		log.WithError(err).Fatalf("Could not toggle favorite on recipe %s", id)
	}

	if recipe.IsFavorite {
		fmt.Printf("Recipe %s (%s) is now a favorite.\n", recipe.ID, recipe.Recipe.Title)
	} else {
		fmt.Printf("Recipe %s (%s) is no longer a favorite.\n", recipe.ID, recipe.Recipe.Title)
	}
}
