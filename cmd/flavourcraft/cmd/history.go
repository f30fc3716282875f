package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-flavourcraft/internal/api"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse your recipe history",
	Long: `Pages through the server-side recipe history. Page 1 replaces the local
view, later pages append to it, so walking pages builds up the full list.
Every fetched recipe lands in the offline cache. With --all the command keeps
fetching pages until the server runs out (capped by MaxPages in the config).`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("page", 1, "Page number to fetch (1-based).")
	historyCmd.Flags().Int("page-size", 0, "Recipes per page (0 uses the config PageSize).")
	historyCmd.Flags().Bool("all", false, "Walk every page until the server reports no more.")

	viper.BindPFlag("history.page", historyCmd.Flags().Lookup("page"))
	viper.BindPFlag("history.page_size", historyCmd.Flags().Lookup("page-size"))
	viper.BindPFlag("history.all", historyCmd.Flags().Lookup("all"))
}

func runHistory(cmd *cobra.Command, args []string) {
	page := viper.GetInt("history.page")
	pageSize := viper.GetInt("history.page_size")
	walkAll := viper.GetBool("history.all")

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

	ctx := context.Background()
	hasMore := false

	if walkAll {
		maxPages := globalConfig.MaxPages
		lastPage := 0
		for current := 1; ; current++ {
			_, more, err := service.LoadHistoryPage(ctx, current, pageSize)
			if err != nil {
				log.WithError(err).Fatalf("Failed to load history page %d", current)
			}
			lastPage = current
			if !more {
				break
			}
			if maxPages > 0 && current >= maxPages {
				log.Warnf("Stopping after %d page(s), MaxPages cap reached", maxPages)
				hasMore = true
				break
			}
			if globalConfig.ApiDelayMs > 0 {
				time.Sleep(time.Duration(globalConfig.ApiDelayMs) * time.Millisecond)
			}
		}
		if err := db.SetSyncedPage("history", lastPage); err != nil {
			log.WithError(err).Warn("Could not record the synced history page")
		}
	} else {
		_, more, err := service.LoadHistoryPage(ctx, page, pageSize)
		if err != nil {
			if api.IsValidationError(err) {
				log.WithError(err).Fatal("Invalid paging parameters")
			}
			log.WithError(err).Fatalf("Failed to load history page %d", page)
		}
		hasMore = more
		if err := db.SetSyncedPage("history", page); err != nil {
			log.WithError(err).Warn("Could not record the synced history page")
		}
	}

	view := store.History()
	if len(view) == 0 {
		fmt.Println("No recipes in your history yet. Generate one with 'flavourcraft generate'.")
		return
	}

	printRecipeTable(view)
	fmt.Printf("\nShowing %d of %d recipe(s).", len(view), store.HistoryTotal())
	if hasMore {
		fmt.Printf(" More available: --page %d or --all.", page+1)
	}
	fmt.Println()
}
