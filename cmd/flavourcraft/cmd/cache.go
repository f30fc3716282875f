package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	index "go-flavourcraft/index"
	"go-flavourcraft/internal/recipes"
)

// cacheCmd represents the base command for offline cache operations
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the offline recipe cache",
	Long:  `Perform operations like viewing, purging, or reindexing the locally cached recipes.`,
	// No Run function for the base cache command itself
}

// cacheViewCmd represents the command to list cached recipes
var cacheViewCmd = &cobra.Command{
	Use:   "view",
	Short: "List every recipe in the offline cache",
	Run:   runCacheView,
}

// cachePurgeCmd represents the command to empty the cache
var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every cached recipe and the search index",
	Long: `Deletes all cached recipes, the recorded sync positions and the search
index. The session (pantry and staged photos) is kept.`,
	Run: runCachePurge,
}

// cacheReindexCmd represents the command to rebuild the search index
var cacheReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from the cached recipes",
	Run:   runCacheReindex,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheViewCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheReindexCmd)

	cachePurgeCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
	viper.BindPFlag("cache.purge_yes", cachePurgeCmd.Flags().Lookup("yes"))
}

func runCacheView(cmd *cobra.Command, args []string) {
	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}
	defer db.Close()

	entries, err := recipes.NewDiskCache(db).Recipes()
	if err != nil {
		log.WithError(err).Fatal("Failed to read the cache")
	}
	if len(entries) == 0 {
		fmt.Println("The cache is empty.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tFAV\tSOURCE\tSYNCED")
	for _, entry := range entries {
		fav := ""
		if entry.Recipe.IsFavorite {
			fav = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			entry.Recipe.ID,
			truncate(entry.Recipe.Recipe.Title, 40),
			fav,
			entry.Source,
			time.Unix(entry.SyncedAt, 0).Format("2006-01-02 15:04"))
	}
	w.Flush()
	fmt.Printf("\n%d cached recipe(s).\n", len(entries))
}

func runCachePurge(cmd *cobra.Command, args []string) {
	skipConfirm := viper.GetBool("cache.purge_yes")

	if !skipConfirm {
		fmt.Print("Delete every cached recipe and the search index? (y/N): ")
		reader := bufio.NewReader(os.Stdin)
		confirm, _ := reader.ReadString('\n')
		confirm = strings.TrimSpace(strings.ToLower(confirm))
		if confirm != "y" {
			log.Info("Purge cancelled by user.")
			return
		}
	}

	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}
	defer db.Close()

	deleted, err := recipes.NewDiskCache(db).Purge()
	if err != nil {
		log.WithError(err).Fatal("Failed to purge the cache")
	}

	// A purged cache with a live index would keep returning ghost hits
	if err := index.DeleteIndex(resolveIndexPath()); err != nil {
		log.WithError(err).Warn("Cache purged but the search index could not be removed")
	}

	fmt.Printf("Purged %d cached recipe(s). Session pantry and staged photos are untouched.\n", deleted)
}

func runCacheReindex(cmd *cobra.Command, args []string) {
	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}
	defer db.Close()

	entries, err := recipes.NewDiskCache(db).Recipes()
	if err != nil {
		log.WithError(err).Fatal("Failed to read the cache")
	}

	indexPath := resolveIndexPath()
	if err := index.DeleteIndex(indexPath); err != nil {
		log.WithError(err).Fatal("Could not remove the old search index")
	}

	bleveIndex, err := index.OpenOrCreateIndex(indexPath)
	if err != nil {
		log.WithError(err).Fatal("Could not create a fresh search index")
	}
	defer func() {
		if err := bleveIndex.Close(); err != nil {
			log.WithError(err).Warn("Error closing search index")
		}
	}()

	indexed := 0
	for _, entry := range entries {
		if err := index.IndexItem(bleveIndex, index.FromRecipe(entry.Recipe, entry.Source)); err != nil {
			log.WithError(err).Warnf("Failed to index recipe %s", entry.Recipe.ID)
			continue
		}
		indexed++
	}
	fmt.Printf("Reindexed %d of %d cached recipe(s).\n", indexed, len(entries))
}
