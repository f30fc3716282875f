package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-flavourcraft/internal/models"
)

// Allowed values for the difficulty parameter
var allowedDifficulties = map[string]bool{
	models.DifficultyEasy:   true,
	models.DifficultyMedium: true,
	models.DifficultyHard:   true,
}

func init() {
	// generateCmd itself is defined in generate.go. Go execution order makes
	// sure it exists by the time this init runs, both files share a package.
	rootCmd.AddCommand(generateCmd)

	// Add persistent flags to rootCmd so they apply to all commands
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Logging format (text, json)")

	// Hook to configure logging before any command runs
	cobra.OnInitialize(initLogging)

	// Define flags specific to the generate command
	generateCmd.Flags().StringSliceP("ingredient", "i", []string{}, "Extra ingredient(s) for this request only, additive to the pantry.")
	generateCmd.Flags().StringSlice("diet", []string{}, "Dietary preference(s) (e.g. vegetarian, gluten-free). Overrides config.")
	generateCmd.Flags().String("cuisine", "", "Cuisine type (e.g. italian, thai). Overrides config.")
	generateCmd.Flags().Int("time", 0, "Target cooking time in minutes. Overrides config.")
	generateCmd.Flags().String("difficulty", "", "Difficulty (easy, medium, hard). Overrides config.")
	generateCmd.Flags().Bool("no-image", false, "Do not attach the primary uploaded photo to the request.")

	// Bind flags to Viper
	viper.BindPFlag("generate.ingredient", generateCmd.Flags().Lookup("ingredient"))
	viper.BindPFlag("generate.diet", generateCmd.Flags().Lookup("diet"))
	viper.BindPFlag("generate.cuisine", generateCmd.Flags().Lookup("cuisine"))
	viper.BindPFlag("generate.time", generateCmd.Flags().Lookup("time"))
	viper.BindPFlag("generate.difficulty", generateCmd.Flags().Lookup("difficulty"))
	viper.BindPFlag("generate.no_image", generateCmd.Flags().Lookup("no-image"))
}

// initLogging configures logrus based on persistent flags
func initLogging() {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.WithError(err).Warnf("Invalid log level '%s', using default 'info'", logLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)

	switch logFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		log.Warnf("Invalid log format '%s', using default 'text'", logFormat)
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	log.Infof("Logging configured: Level=%s, Format=%s", log.GetLevel(), logFormat)
}
