package index

import (
	"log"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"go-flavourcraft/internal/models"
)

const defaultIndexPath = "flavourcraft.bleve"

// Item represents an indexed recipe.
// By default, all fields defined here are indexed and searchable using their
// lowercase JSON tag names (e.g., query '+ingredients:tomato' or
// '+difficulty:easy').
type Item struct {
	ID            string   `json:"id"`                      // Recipe id assigned by the server
	Type          string   `json:"type"`                    // Currently always "recipe"
	Title         string   `json:"title"`                   // Recipe title
	Ingredients   []string `json:"ingredients,omitempty"`   // Ingredients the generator actually used
	Steps         []string `json:"steps,omitempty"`         // Preparation steps
	Tips          []string `json:"tips,omitempty"`          // Optional serving or prep tips
	Difficulty    string   `json:"difficulty,omitempty"`    // easy, medium or hard
	EstimatedTime string   `json:"estimatedTime,omitempty"` // Human-readable duration from the server
	Servings      float64  `json:"servings,omitempty"`      // Numeric so range queries work
	Favorite      bool     `json:"favorite"`                // Mirror of the server-side flag
	Source        string   `json:"source,omitempty"`        // Which surface last cached it
	CreatedAt     string   `json:"createdAt,omitempty"`     // RFC 3339 creation time
	ImageURL      string   `json:"imageUrl,omitempty"`      // Full-size photo URL, if any
	Username      string   `json:"username,omitempty"`      // Owning user, if the server sent it
}

// FromRecipe converts a cached recipe into its indexable form.
func FromRecipe(recipe models.GeneratedRecipe, source string) Item {
	item := Item{
		ID:            recipe.ID,
		Type:          "recipe",
		Title:         recipe.Recipe.Title,
		Ingredients:   recipe.IngredientsUsed,
		Steps:         recipe.Recipe.Steps,
		Tips:          recipe.Recipe.Tips,
		Difficulty:    strings.ToLower(recipe.Recipe.Difficulty),
		EstimatedTime: recipe.Recipe.EstimatedTime,
		Servings:      float64(recipe.Recipe.Servings),
		Favorite:      recipe.IsFavorite,
		Source:        source,
		CreatedAt:     recipe.CreatedAt,
		Username:      recipe.Username,
	}
	if recipe.ImageURLs != nil {
		item.ImageURL = recipe.ImageURLs.URL
	}
	return item
}

// OpenOrCreateIndex opens an existing Bleve index or creates a new one if it doesn't exist.
func OpenOrCreateIndex(indexPath string) (bleve.Index, error) {
	if indexPath == "" {
		indexPath = defaultIndexPath
	}

	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		log.Printf("Creating new index at: %s", indexPath)
		mapping := bleve.NewIndexMapping()
		// Customize mapping here if needed (e.g., for specific fields)
		index, err = bleve.New(indexPath, mapping)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err // Other error opening index
	} else {
		log.Printf("Opened existing index at: %s", indexPath)
	}
	return index, nil
}

// IndexItem adds or updates an item in the Bleve index.
func IndexItem(index bleve.Index, item Item) error {
	return index.Index(item.ID, item)
}

// SearchIndex performs a search query against the index. A positive limit
// caps the number of hits returned, zero keeps Bleve's default.
func SearchIndex(index bleve.Index, query string, limit int) (*bleve.SearchResult, error) {
	searchQuery := bleve.NewQueryStringQuery(query)
	searchRequest := bleve.NewSearchRequest(searchQuery)
	searchRequest.Fields = []string{"*"} // Request all stored fields
	if limit > 0 {
		searchRequest.Size = limit
	}
	searchResults, err := index.Search(searchRequest)
	if err != nil {
		return nil, err
	}
	return searchResults, nil
}

// DeleteItem removes a recipe from the index. Unknown ids are a no-op.
func DeleteItem(index bleve.Index, id string) error {
	return index.Delete(id)
}

// DeleteIndex removes the index directory. Use with caution!
func DeleteIndex(indexPath string) error {
	if indexPath == "" {
		indexPath = defaultIndexPath
	}
	log.Printf("Attempting to delete index at: %s", indexPath)
	return os.RemoveAll(indexPath)
}
