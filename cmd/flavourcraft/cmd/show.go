package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-flavourcraft/internal/recipes"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a cached recipe in full",
	Long: `Prints one recipe from the offline cache. With --remote the recipe is
re-fetched from the server first and the cache refreshed.`,
	Args: cobra.ExactArgs(1),
	Run:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("remote", false, "Re-fetch the recipe from the server instead of reading the cache.")
	viper.BindPFlag("show.remote", showCmd.Flags().Lookup("remote"))
}

func runShow(cmd *cobra.Command, args []string) {
	id := args[0]
	remote := viper.GetBool("show.remote")

	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}
	defer db.Close()

	if remote {
		service, _, closeIndex := newRecipeService(db)
		defer closeIndex()

		recipe, err := service.Refresh(context.Background(), id)
		if err != nil {
			log.WithError(err).Fatalf("Could not fetch recipe %s", id)
		}
		printRecipe(recipe)
		return
	}

	cache := recipes.NewDiskCache(db)
	entry, err := cache.GetRecipe(id)
	if err != nil {
		if errors.Is(err, recipes.ErrNotCached) {
			log.Fatalf("Recipe %s is not cached locally. Use --remote to fetch it.", id)
		}
		log.WithError(err).Fatalf("Could not read recipe %s from the cache", id)
	}

	printRecipe(entry.Recipe)
	fmt.Printf("Cached %s via %s.\n", time.Unix(entry.SyncedAt, 0).Format("2006-01-02 15:04"), entry.Source)
}
