package recipes

import (
	"context"
	"fmt"

	"go-flavourcraft/internal/api"
	"go-flavourcraft/internal/models"

	log "github.com/sirupsen/logrus"
)

// Backend is the slice of the API client the service needs.
type Backend interface {
	GenerateRecipe(ctx context.Context, request models.GenerationRequest) (models.GeneratedRecipe, error)
	GetRecipe(ctx context.Context, id string) (models.GeneratedRecipe, error)
	RecipeHistory(ctx context.Context, page, pageSize int) (models.RecipeHistoryResponse, error)
	FavoriteRecipes(ctx context.Context, page, pageSize int) (models.RecipeHistoryResponse, error)
	ToggleFavorite(ctx context.Context, id string) error
}

// Cache persists recipes locally so they survive restarts and stay readable
// offline. Source records which surface last wrote the entry.
type Cache interface {
	PutRecipe(recipe models.GeneratedRecipe, source string) error
}

// Indexer feeds recipes into the local search index.
type Indexer interface {
	IndexRecipe(recipe models.GeneratedRecipe, source string) error
}

// GenerateParams carries everything the generate flow collects before
// building the request.
type GenerateParams struct {
	Ingredients []string
	Dietary     []string
	Cuisine     string
	CookingTime int
	Difficulty  string
	Images      *models.ImageURLs
}

// Service orchestrates recipe operations against the API and keeps the store,
// the disk cache and the search index in step. The server always owns the
// truth; local state only changes after a remote call succeeds.
type Service struct {
	client Backend
	store  *Store
	cache  Cache
	index  Indexer
}

// NewService creates a service over the given backend and store.
func NewService(client Backend, store *Store) *Service {
	return &Service{client: client, store: store}
}

// SetCache attaches the local persistence sink. Optional.
func (s *Service) SetCache(cache Cache) {
	s.cache = cache
}

// SetIndexer attaches the search index sink. Optional.
func (s *Service) SetIndexer(index Indexer) {
	s.index = index
}

// persist writes a recipe to the cache and the index. Both sinks are best
// effort, a failure is logged and never fails the operation that produced
// the recipe.
func (s *Service) persist(recipe models.GeneratedRecipe, source string) {
	if s.cache != nil {
		if err := s.cache.PutRecipe(recipe, source); err != nil {
			log.WithError(err).Warnf("Failed to cache recipe %s", recipe.ID)
		}
	}
	if s.index != nil {
		if err := s.index.IndexRecipe(recipe, source); err != nil {
			log.WithError(err).Warnf("Failed to index recipe %s", recipe.ID)
		}
	}
}

// Generate builds the sparse request from params, submits it and records the
// result as the current recipe. Validation failures surface before any
// network call.
func (s *Service) Generate(ctx context.Context, params GenerateParams) (models.GeneratedRecipe, error) {
	request, err := NewRequestBuilder().
		Ingredients(params.Ingredients).
		DietaryPreferences(params.Dietary).
		Cuisine(params.Cuisine).
		CookingTime(params.CookingTime).
		Difficulty(params.Difficulty).
		Images(params.Images).
		Build()
	if err != nil {
		return models.GeneratedRecipe{}, err
	}

	log.Infof("Requesting recipe for %d ingredient(s)", len(request.Ingredients))
	recipe, err := s.client.GenerateRecipe(ctx, request)
	if err != nil {
		return models.GeneratedRecipe{}, err
	}

	s.store.SetCurrent(recipe)
	s.persist(recipe, models.SourceGenerated)
	return recipe, nil
}

// LoadHistoryPage fetches one page of history. Page one replaces the view,
// later pages append to it. Returns the page's recipes and whether another
// page is worth requesting, which is inferred from the page being full, so
// a total divisible by the page size costs one empty request at the end.
func (s *Service) LoadHistoryPage(ctx context.Context, page, pageSize int) ([]models.GeneratedRecipe, bool, error) {
	if page < 1 || pageSize < 1 {
		return nil, false, api.NewValidationError("page and page size must be positive")
	}

	response, err := s.client.RecipeHistory(ctx, page, pageSize)
	if err != nil {
		return nil, false, err
	}

	if page == 1 {
		s.store.ReplaceHistory(response.Recipes, response.Total)
	} else {
		s.store.AppendHistory(response.Recipes, response.Total)
	}
	for _, recipe := range response.Recipes {
		s.persist(recipe, models.SourceHistory)
	}

	hasMore := len(response.Recipes) == pageSize
	return response.Recipes, hasMore, nil
}

// LoadFavoritesPage fetches one page of favorites with the same page
// semantics as LoadHistoryPage.
func (s *Service) LoadFavoritesPage(ctx context.Context, page, pageSize int) ([]models.GeneratedRecipe, bool, error) {
	if page < 1 || pageSize < 1 {
		return nil, false, api.NewValidationError("page and page size must be positive")
	}

	response, err := s.client.FavoriteRecipes(ctx, page, pageSize)
	if err != nil {
		return nil, false, err
	}

	if page == 1 {
		s.store.ReplaceFavorites(response.Recipes, response.Total)
	} else {
		s.store.AppendFavorites(response.Recipes, response.Total)
	}
	for _, recipe := range response.Recipes {
		s.persist(recipe, models.SourceFavorites)
	}

	hasMore := len(response.Recipes) == pageSize
	return response.Recipes, hasMore, nil
}

// ToggleFavorite flips a recipe's favorite flag remote first. Local state
// moves only after the server accepts the toggle; a failed call leaves
// everything exactly as it was. Returns the recipe in its new state.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (models.GeneratedRecipe, error) {
	if id == "" {
		return models.GeneratedRecipe{}, api.NewValidationError("recipe id is required")
	}

	if err := s.client.ToggleFavorite(ctx, id); err != nil {
		return models.GeneratedRecipe{}, err
	}

	if before, ok := s.store.Get(id); ok {
		s.store.SetFavorite(id, !before.IsFavorite)
		updated, _ := s.store.Get(id)
		s.persist(updated, models.SourceHistory)
		return updated, nil
	}

	// Not cached locally, ask the server what state the toggle produced
	recipe, err := s.client.GetRecipe(ctx, id)
	if err != nil {
		return models.GeneratedRecipe{}, fmt.Errorf("favorite toggled but state could not be refreshed: %w", err)
	}
	s.store.Upsert(recipe)
	s.persist(recipe, models.SourceHistory)
	return recipe, nil
}

// RemoveFromFavoritesView unfavorites a recipe and evicts it from the local
// favorites view in one step, which is how a favorites listing removes an
// entry. The remote toggle happens first and a failure changes nothing
// locally. A recipe already known to be non-favorite is only evicted, no
// remote call is made.
func (s *Service) RemoveFromFavoritesView(ctx context.Context, id string) error {
	if id == "" {
		return api.NewValidationError("recipe id is required")
	}

	if before, ok := s.store.Get(id); ok && !before.IsFavorite {
		s.store.RemoveFromFavorites(id)
		return nil
	}

	if err := s.client.ToggleFavorite(ctx, id); err != nil {
		return err
	}

	if s.store.SetFavorite(id, false) {
		if updated, ok := s.store.Get(id); ok {
			s.persist(updated, models.SourceFavorites)
		}
	} else if recipe, err := s.client.GetRecipe(ctx, id); err == nil {
		// Not in the working set, refresh so the disk copy reflects the
		// unfavorited state
		s.store.Upsert(recipe)
		s.persist(recipe, models.SourceFavorites)
	} else {
		log.WithError(err).Warnf("Recipe %s unfavorited but its cached state could not be refreshed", id)
	}
	if !s.store.RemoveFromFavorites(id) {
		log.Debugf("Recipe %s was not in the favorites view", id)
	}
	return nil
}

// Local returns the locally cached copy of a recipe, if any.
func (s *Service) Local(id string) (models.GeneratedRecipe, bool) {
	return s.store.Get(id)
}

// Refresh fetches a recipe from the server and updates local state with it.
func (s *Service) Refresh(ctx context.Context, id string) (models.GeneratedRecipe, error) {
	if id == "" {
		return models.GeneratedRecipe{}, api.NewValidationError("recipe id is required")
	}
	recipe, err := s.client.GetRecipe(ctx, id)
	if err != nil {
		return models.GeneratedRecipe{}, err
	}
	s.store.Upsert(recipe)
	s.persist(recipe, models.SourceHistory)
	return recipe, nil
}
