package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-flavourcraft/internal/api"
)

// favoritesCmd represents the favorites command
var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Browse your favorite recipes",
	Long: `Pages through the server-side favorites list with the same paging
semantics as history: page 1 replaces the local view, later pages append.`,
	Run: runFavorites,
}

// favoritesRemoveCmd represents the favorites remove subcommand
var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Unfavorite a recipe and drop it from the favorites list",
	Args:  cobra.ExactArgs(1),
	Run:   runFavoritesRemove,
}

func init() {
	rootCmd.AddCommand(favoritesCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)

	favoritesCmd.Flags().Int("page", 1, "Page number to fetch (1-based).")
	favoritesCmd.Flags().Int("page-size", 0, "Recipes per page (0 uses the config PageSize).")

	viper.BindPFlag("favorites.page", favoritesCmd.Flags().Lookup("page"))
	viper.BindPFlag("favorites.page_size", favoritesCmd.Flags().Lookup("page-size"))
}

func runFavorites(cmd *cobra.Command, args []string) {
	page := viper.GetInt("favorites.page")
	pageSize := viper.GetInt("favorites.page_size")
	if pageSize <= 0 {
		pageSize = globalConfig.PageSize
	}

	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}
	defer db.Close()

	service, store, closeIndex := newRecipeService(db)
	defer closeIndex()

	_, hasMore, err := service.LoadFavoritesPage(context.Background(), page, pageSize)
	if err != nil {
		if api.IsValidationError(err) {
			log.WithError(err).Fatal("Invalid paging parameters")
		}
		log.WithError(err).Fatalf("Failed to load favorites page %d", page)
	}
	if err := db.SetSyncedPage("favorites", page); err != nil {
		log.WithError(err).Warn("Could not record the synced favorites page")
	}

	view := store.Favorites()
	if len(view) == 0 {
		fmt.Println("No favorite recipes yet. Mark one with 'flavourcraft favorite <id>'.")
		return
	}

	printRecipeTable(view)
	fmt.Printf("\nShowing %d of %d favorite(s).", len(view), store.FavoritesTotal())
	if hasMore {
		fmt.Printf(" More available: --page %d.", page+1)
	}
	fmt.Println()
}

// runFavoritesRemove unfavorites the recipe remote first, then drops it from
// the local favorites view. A failed server call changes nothing.
func runFavoritesRemove(cmd *cobra.Command, args []string) {
	id := args[0]

	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}
	defer db.Close()

	service, _, closeIndex := newRecipeService(db)
	defer closeIndex()

	if err := service.RemoveFromFavoritesView(context.Background(), id); err != nil {
		log.WithError(err).Fatalf("Could not remove recipe %s from favorites", id)
	}
	fmt.Printf("Recipe %s removed from favorites.\n", id)
}
