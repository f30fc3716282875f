package recipes

import (
	"strings"

	"go-flavourcraft/internal/api"
	"go-flavourcraft/internal/models"

	log "github.com/sirupsen/logrus"
)

// RequestBuilder assembles the sparse generation payload. Every optional
// field is omitted from the wire entirely unless it carries a usable value;
// the server fills its own defaults for anything absent.
type RequestBuilder struct {
	ingredients []string
	dietary     []string
	cuisine     string
	cookingTime int
	difficulty  string
	images      *models.ImageURLs
}

// NewRequestBuilder creates an empty builder.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{}
}

// Ingredients sets the ingredient list. Entries are trimmed at build time.
func (b *RequestBuilder) Ingredients(names []string) *RequestBuilder {
	b.ingredients = names
	return b
}

// DietaryPreferences sets the dietary preference list.
func (b *RequestBuilder) DietaryPreferences(prefs []string) *RequestBuilder {
	b.dietary = prefs
	return b
}

// Cuisine sets the cuisine type.
func (b *RequestBuilder) Cuisine(cuisine string) *RequestBuilder {
	b.cuisine = cuisine
	return b
}

// CookingTime sets the target cooking time in minutes.
func (b *RequestBuilder) CookingTime(minutes int) *RequestBuilder {
	b.cookingTime = minutes
	return b
}

// Difficulty sets the requested difficulty.
func (b *RequestBuilder) Difficulty(difficulty string) *RequestBuilder {
	b.difficulty = difficulty
	return b
}

// Images sets the descriptor of the primary uploaded photo.
func (b *RequestBuilder) Images(urls *models.ImageURLs) *RequestBuilder {
	b.images = urls
	return b
}

// Build validates and assembles the request:
//   - ingredients are trimmed and empties dropped; none left is a
//     ValidationError raised before any network call
//   - cuisine is included only when non-empty after trimming
//   - cooking time is included only when positive; there is no client-side
//     cap, the server clamps excessive values itself
//   - dietary preferences are trimmed, empties dropped, and the whole field
//     omitted when nothing remains
//   - an unknown difficulty is dropped silently, not rejected
//   - the image descriptor is included only when all four of its fields are
//     present, otherwise it is left off entirely
func (b *RequestBuilder) Build() (models.GenerationRequest, error) {
	var request models.GenerationRequest

	for _, name := range b.ingredients {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			request.Ingredients = append(request.Ingredients, trimmed)
		}
	}
	if len(request.Ingredients) == 0 {
		return models.GenerationRequest{}, api.NewValidationError("at least one ingredient is required")
	}

	if cuisine := strings.TrimSpace(b.cuisine); cuisine != "" {
		request.CuisineType = cuisine
	}

	if b.cookingTime > 0 {
		request.CookingTime = b.cookingTime
	}

	for _, pref := range b.dietary {
		if trimmed := strings.TrimSpace(pref); trimmed != "" {
			request.DietaryPreferences = append(request.DietaryPreferences, trimmed)
		}
	}

	switch b.difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		request.Difficulty = b.difficulty
	case "":
	default:
		log.Debugf("Dropping unknown difficulty %q from request", b.difficulty)
	}

	if b.images != nil {
		if b.images.Complete() {
			images := *b.images
			request.ImageURLs = &images
		} else {
			log.Debug("Dropping incomplete image descriptor from request")
		}
	}

	return request, nil
}
