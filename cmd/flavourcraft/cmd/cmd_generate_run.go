package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-flavourcraft/internal/api"
	"go-flavourcraft/internal/ingredients"
	"go-flavourcraft/internal/recipes"
	"go-flavourcraft/internal/session"
)

// runGenerate builds the generation request from the pantry and flags, submits
// it, prints the recipe, and records it as the current recipe.
func runGenerate(cmd *cobra.Command, args []string) {
	extraIngredients := viper.GetStringSlice("generate.ingredient")
	dietary := viper.GetStringSlice("generate.diet")
	cuisine := viper.GetString("generate.cuisine")
	cookingTime := viper.GetInt("generate.time")
	difficulty := viper.GetString("generate.difficulty")
	noImage := viper.GetBool("generate.no_image")

	// Flag > config > server default
	if cuisine == "" {
		cuisine = globalConfig.CuisineType
	}
	if cookingTime <= 0 {
		cookingTime = globalConfig.CookingTimeMinutes
	}
	if difficulty == "" {
		difficulty = globalConfig.Difficulty
	}
	if len(dietary) == 0 {
		dietary = globalConfig.DietaryPreferences
	}
	if difficulty != "" && !allowedDifficulties[difficulty] {
		log.Warnf("Unknown difficulty %q (expected easy, medium or hard), the server will ignore it", difficulty)
	}

	db, err := openDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to open local database")
	}
	defer db.Close()

	sessionStore := session.NewStore(db)
	state, err := sessionStore.Load()
	if err != nil {
		log.WithError(err).Warn("Could not load previous session")
	}
	pantry, coordinator := restoreSession(newApiClient(), state)

	// The extras join the request only, the stored pantry stays as-is
	requestSet := ingredients.NewSet()
	requestSet.Merge(pantry.Items())
	requestSet.Merge(extraIngredients)

	params := recipes.GenerateParams{
		Ingredients: requestSet.Items(),
		Dietary:     dietary,
		Cuisine:     cuisine,
		CookingTime: cookingTime,
		Difficulty:  difficulty,
	}
	if !noImage {
		params.Images = coordinator.PrimaryDescriptor()
	}

	service, _, closeIndex := newRecipeService(db)
	defer closeIndex()

	log.Infof("Generating a recipe from %d ingredient(s)...", len(params.Ingredients))
	recipe, err := service.Generate(context.Background(), params)
	if err != nil {
		if api.IsValidationError(err) {
			log.WithError(err).Fatal("Nothing to cook with. Add ingredients via 'flavourcraft snap' or 'flavourcraft pantry add'.")
		}
		log.WithError(err).Fatal("Recipe generation failed")
	}

	printRecipe(recipe)
	log.Infof("Recipe %s saved as the current recipe.", recipe.ID)
}
