package cmd

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-flavourcraft/internal/database"
	"go-flavourcraft/internal/ingredients"
	"go-flavourcraft/internal/session"
)

// pantryCmd represents the base command for pantry operations
var pantryCmd = &cobra.Command{
	Use:   "pantry",
	Short: "View and curate the working set of ingredients",
	Long: `The pantry is the local working set of ingredient names that recipe
generation draws from. It grows from detected photo uploads and manual adds,
and it survives between invocations. All pantry operations are offline.`,
	Run: runPantryView, // Bare 'pantry' lists the ingredients
}

// pantryAddCmd represents the command to add ingredients by hand
var pantryAddCmd = &cobra.Command{
	Use:   "add <name> [name...]",
	Short: "Add ingredient names to the pantry",
	Args:  cobra.MinimumNArgs(1),
	Run:   runPantryAdd,
}

// pantryRemoveCmd represents the command to remove ingredients
var pantryRemoveCmd = &cobra.Command{
	Use:   "remove <name> [name...]",
	Short: "Remove ingredient names from the pantry (exact match)",
	Args:  cobra.MinimumNArgs(1),
	Run:   runPantryRemove,
}

// pantryClearCmd represents the command to empty the pantry
var pantryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every ingredient from the pantry",
	Run:   runPantryClear,
}

func init() {
	rootCmd.AddCommand(pantryCmd)
	pantryCmd.AddCommand(pantryAddCmd)
	pantryCmd.AddCommand(pantryRemoveCmd)
	pantryCmd.AddCommand(pantryClearCmd)
}

// loadPantrySession opens the database and returns the session store, its
// current state and the pantry rebuilt from it. Callers own closing the db.
func loadPantrySession() (*database.DB, *session.Store, session.State, *ingredients.Set) {
	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}

	store := session.NewStore(db)
	state, err := store.Load()
	if err != nil {
		log.WithError(err).Warn("Could not load previous session, starting fresh")
	}

	pantry := ingredients.NewSet()
	pantry.Merge(state.Pantry)
	return db, store, state, pantry
}

// savePantry persists the pantry back into the session, leaving the staged
// photo batch untouched.
func savePantry(store *session.Store, state session.State, pantry *ingredients.Set) {
	state.Pantry = pantry.Items()
	if err := store.Save(state); err != nil {
		log.WithError(err).Fatal("Failed to save the pantry")
	}
}

func runPantryView(cmd *cobra.Command, args []string) {
	db, _, _, pantry := loadPantrySession()
	defer db.Close()

	items := pantry.Items()
	if len(items) == 0 {
		fmt.Println("Pantry is empty. Add ingredients with 'flavourcraft snap' or 'flavourcraft pantry add'.")
		return
	}

	fmt.Printf("Pantry (%d ingredient(s)):\n", len(items))
	for _, name := range items {
		fmt.Printf("  - %s\n", name)
	}
}

func runPantryAdd(cmd *cobra.Command, args []string) {
	db, store, state, pantry := loadPantrySession()
	defer db.Close()

	added := 0
	for _, raw := range args {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if pantry.Add(name) {
			added++
		} else {
			log.Debugf("Ingredient %q already in pantry", name)
		}
	}

	savePantry(store, state, pantry)
	fmt.Printf("Added %d ingredient(s). Pantry now holds %d.\n", added, pantry.Len())
}

func runPantryRemove(cmd *cobra.Command, args []string) {
	db, store, state, pantry := loadPantrySession()
	defer db.Close()

	removed := 0
	for _, raw := range args {
		name := strings.TrimSpace(raw)
		if pantry.Remove(name) {
			removed++
		} else {
			log.Warnf("Ingredient %q not found in pantry (names are case sensitive)", name)
		}
	}

	savePantry(store, state, pantry)
	fmt.Printf("Removed %d ingredient(s). Pantry now holds %d.\n", removed, pantry.Len())
}

func runPantryClear(cmd *cobra.Command, args []string) {
	db, store, state, pantry := loadPantrySession()
	defer db.Close()

	count := pantry.Len()
	pantry.Clear()
	savePantry(store, state, pantry)
	fmt.Printf("Cleared %d ingredient(s) from the pantry.\n", count)
}
