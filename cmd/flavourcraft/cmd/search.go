package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the cached recipes",
	Long: `Full-text search over every locally cached recipe. The query uses Bleve
query string syntax, so field-scoped terms work too.

Examples:
  flavourcraft search tomato
  flavourcraft search "+ingredients:chicken +difficulty:easy"
  flavourcraft search "+favorite:T pasta"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSearchLogic(resolveIndexPath(), strings.Join(args, " "), viper.GetInt("search.limit"))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("limit", "l", 10, "Maximum number of hits to print.")
	viper.BindPFlag("search.limit", searchCmd.Flags().Lookup("limit"))
}
