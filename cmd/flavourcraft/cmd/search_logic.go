package cmd

import (
	"fmt"

	index "go-flavourcraft/index"

	"github.com/blevesearch/bleve/v2"
	log "github.com/sirupsen/logrus"
)

// runSearchLogic executes the search against the index at indexPath.
func runSearchLogic(indexPath string, query string, limit int) {
	log.Debugf("runSearchLogic called with indexPath: %s, query: %s", indexPath, query)

	if query == "" {
		log.Error("Search query cannot be empty.")
		return
	}

	// Use Open instead of OpenOrCreateIndex to avoid creating an index
	// during search
	bleveIndex, err := bleve.Open(indexPath)
	if err != nil {
		if err == bleve.ErrorIndexPathDoesNotExist {
			log.Errorf("Search index not found at %s. Cache some recipes first (generate, history, show --remote).", indexPath)
		} else {
			log.Errorf("Failed to open search index at %s: %v", indexPath, err)
		}
		return
	}
	defer func() {
		if err := bleveIndex.Close(); err != nil {
			log.Errorf("Error closing search index: %v", err)
		}
	}()

	searchResults, err := index.SearchIndex(bleveIndex, query, limit)
	if err != nil {
		log.Errorf("Error performing search: %v", err)
		return
	}

	log.Debugf("Search finished. Hits: %d, Total: %d, Took: %s",
		len(searchResults.Hits),
		searchResults.Total,
		searchResults.Took)

	if searchResults.Total == 0 {
		fmt.Println("No recipes found matching your query.")
		return
	}

	fmt.Println("--- Search Results ---")
	for i, hit := range searchResults.Hits {
		title, _ := hit.Fields["title"].(string)
		fmt.Printf("[%d] %s (Score: %.2f)\n", i+1, hit.ID, hit.Score)
		if title != "" {
			fmt.Printf("  Title: %s\n", title)
		}
		if difficulty, ok := hit.Fields["difficulty"].(string); ok && difficulty != "" {
			fmt.Printf("  Difficulty: %s\n", difficulty)
		}
		if estimated, ok := hit.Fields["estimatedTime"].(string); ok && estimated != "" {
			fmt.Printf("  Time: %s\n", estimated)
		}
		if favorite, ok := hit.Fields["favorite"].(bool); ok && favorite {
			fmt.Println("  Favorite: yes")
		}
		fmt.Println("---")
	}
	fmt.Printf("%d of %d matching recipe(s) shown. Use 'flavourcraft show <id>' for the full recipe.\n",
		len(searchResults.Hits), searchResults.Total)
}
