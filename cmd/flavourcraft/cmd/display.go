package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"go-flavourcraft/internal/models"
)

// truncate shortens a string for table display.
func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// printRecipe renders one recipe in full to stdout.
func printRecipe(recipe models.GeneratedRecipe) {
	content := recipe.Recipe

	fmt.Printf("\n--- %s ---\n", content.Title)
	fmt.Printf("ID: %s\n", recipe.ID)
	if content.Difficulty != "" {
		fmt.Printf("Difficulty: %s\n", content.Difficulty)
	}
	if content.EstimatedTime != "" {
		fmt.Printf("Estimated time: %s\n", content.EstimatedTime)
	}
	if content.Servings > 0 {
		fmt.Printf("Servings: %d\n", content.Servings)
	}
	if recipe.IsFavorite {
		fmt.Println("Favorite: yes")
	}
	if recipe.CreatedAt != "" {
		fmt.Printf("Created: %s\n", recipe.CreatedAt)
	}

	if len(recipe.IngredientsUsed) > 0 {
		fmt.Println("\nIngredients:")
		for _, name := range recipe.IngredientsUsed {
			fmt.Printf("  - %s\n", name)
		}
	}

	if len(content.Steps) > 0 {
		fmt.Println("\nSteps:")
		for i, step := range content.Steps {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
	}

	if len(content.Tips) > 0 {
		fmt.Println("\nTips:")
		for _, tip := range content.Tips {
			fmt.Printf("  * %s\n", tip)
		}
	}

	if recipe.ImageURLs != nil && recipe.ImageURLs.URL != "" {
		fmt.Printf("\nPhoto: %s\n", recipe.ImageURLs.URL)
	}
	fmt.Println()
}

// printRecipeTable renders a compact listing of recipes.
func printRecipeTable(recipes []models.GeneratedRecipe) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDIFFICULTY\tTIME\tFAV\tCREATED")
	for _, r := range recipes {
		fav := ""
		if r.IsFavorite {
			fav = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, truncate(r.Recipe.Title, 40), r.Recipe.Difficulty, r.Recipe.EstimatedTime, fav, r.CreatedAt)
	}
	w.Flush()
}
