package recipes

import (
	"context"
	"errors"
	"testing"

	"go-flavourcraft/internal/api"
	"go-flavourcraft/internal/models"
)

type fakeBackend struct {
	generateReq   *models.GenerationRequest
	generateResp  models.GeneratedRecipe
	generateErr   error
	historyPages  map[int]models.RecipeHistoryResponse
	favoritePages map[int]models.RecipeHistoryResponse
	pagesErr      error
	toggled       []string
	toggleErr     error
	records       map[string]models.GeneratedRecipe
	getErr        error
	getCalls      []string
}

func (f *fakeBackend) GenerateRecipe(ctx context.Context, request models.GenerationRequest) (models.GeneratedRecipe, error) {
	f.generateReq = &request
	return f.generateResp, f.generateErr
}

func (f *fakeBackend) GetRecipe(ctx context.Context, id string) (models.GeneratedRecipe, error) {
	f.getCalls = append(f.getCalls, id)
	if f.getErr != nil {
		return models.GeneratedRecipe{}, f.getErr
	}
	return f.records[id], nil
}

func (f *fakeBackend) RecipeHistory(ctx context.Context, page, pageSize int) (models.RecipeHistoryResponse, error) {
	if f.pagesErr != nil {
		return models.RecipeHistoryResponse{}, f.pagesErr
	}
	return f.historyPages[page], nil
}

func (f *fakeBackend) FavoriteRecipes(ctx context.Context, page, pageSize int) (models.RecipeHistoryResponse, error) {
	if f.pagesErr != nil {
		return models.RecipeHistoryResponse{}, f.pagesErr
	}
	return f.favoritePages[page], nil
}

func (f *fakeBackend) ToggleFavorite(ctx context.Context, id string) error {
	if f.toggleErr != nil {
		return f.toggleErr
	}
	f.toggled = append(f.toggled, id)
	return nil
}

type persistCall struct {
	id     string
	source string
}

type fakeCache struct {
	puts []persistCall
	err  error
}

func (f *fakeCache) PutRecipe(recipe models.GeneratedRecipe, source string) error {
	f.puts = append(f.puts, persistCall{id: recipe.ID, source: source})
	return f.err
}

type fakeIndexer struct {
	indexed []string
}

func (f *fakeIndexer) IndexRecipe(recipe models.GeneratedRecipe, source string) error {
	f.indexed = append(f.indexed, recipe.ID)
	return nil
}

func newServiceForTest(backend *fakeBackend) (*Service, *Store, *fakeCache, *fakeIndexer) {
	store := NewStore()
	cache := &fakeCache{}
	index := &fakeIndexer{}
	service := NewService(backend, store)
	service.SetCache(cache)
	service.SetIndexer(index)
	return service, store, cache, index
}

func TestServiceGenerate(t *testing.T) {
	backend := &fakeBackend{generateResp: recipeFixture("r1", "Pasta", false)}
	service, store, cache, index := newServiceForTest(backend)

	recipe, err := service.Generate(context.Background(), GenerateParams{
		Ingredients: []string{" tomato ", "basil", ""},
		Cuisine:     "italian",
		CookingTime: 25,
	})
	if err != nil {
		t.Fatalf("Generate() returned error: %v", err)
	}
	if recipe.ID != "r1" {
		t.Errorf("Generate() = %s, want r1", recipe.ID)
	}

	if backend.generateReq == nil {
		t.Fatal("backend never received a request")
	}
	if got := backend.generateReq.Ingredients; len(got) != 2 || got[0] != "tomato" {
		t.Errorf("request ingredients = %v, want trimmed [tomato basil]", got)
	}
	if backend.generateReq.CuisineType != "italian" || backend.generateReq.CookingTime != 25 {
		t.Errorf("request = %+v, want cuisine and cooking time set", backend.generateReq)
	}

	if current, ok := store.Current(); !ok || current.ID != "r1" {
		t.Error("generated recipe was not recorded as current")
	}
	if len(cache.puts) != 1 || cache.puts[0] != (persistCall{id: "r1", source: models.SourceGenerated}) {
		t.Errorf("cache puts = %v, want one generated-source write for r1", cache.puts)
	}
	if len(index.indexed) != 1 || index.indexed[0] != "r1" {
		t.Errorf("indexed = %v, want [r1]", index.indexed)
	}
}

func TestServiceGenerateValidatesBeforeNetwork(t *testing.T) {
	backend := &fakeBackend{}
	service, store, cache, _ := newServiceForTest(backend)

	_, err := service.Generate(context.Background(), GenerateParams{Ingredients: []string{"  ", ""}})
	if !api.IsValidationError(err) {
		t.Fatalf("Generate() error = %v, want a validation error", err)
	}
	if backend.generateReq != nil {
		t.Error("backend was called despite the validation failure")
	}
	if _, ok := store.Current(); ok {
		t.Error("store gained a current recipe from a failed generation")
	}
	if len(cache.puts) != 0 {
		t.Error("cache was written on a failed generation")
	}
}

func TestServiceGenerateBackendError(t *testing.T) {
	backendErr := errors.New("model overloaded")
	backend := &fakeBackend{generateErr: backendErr}
	service, store, cache, _ := newServiceForTest(backend)

	_, err := service.Generate(context.Background(), GenerateParams{Ingredients: []string{"tomato"}})
	if !errors.Is(err, backendErr) {
		t.Fatalf("Generate() error = %v, want the backend error", err)
	}
	if _, ok := store.Current(); ok {
		t.Error("store gained a current recipe from a failed generation")
	}
	if len(cache.puts) != 0 {
		t.Error("cache was written on a failed generation")
	}
}

func TestServiceLoadHistoryPages(t *testing.T) {
	backend := &fakeBackend{
		historyPages: map[int]models.RecipeHistoryResponse{
			1: {
				Recipes:  []models.GeneratedRecipe{recipeFixture("r1", "Pasta", false), recipeFixture("r2", "Soup", false)},
				Total:    3,
				Page:     1,
				PageSize: 2,
			},
			2: {
				Recipes:  []models.GeneratedRecipe{recipeFixture("r3", "Salad", false)},
				Total:    3,
				Page:     2,
				PageSize: 2,
			},
		},
	}
	service, store, cache, _ := newServiceForTest(backend)

	page, hasMore, err := service.LoadHistoryPage(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("LoadHistoryPage(1) returned error: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("page 1 returned %d recipes, want 2", len(page))
	}
	if !hasMore {
		t.Error("hasMore after a full page = false, want true")
	}

	// A short page means the listing is exhausted
	page, hasMore, err = service.LoadHistoryPage(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("LoadHistoryPage(2) returned error: %v", err)
	}
	if len(page) != 1 || hasMore {
		t.Errorf("page 2 = %d recipes, hasMore %v, want 1 and false", len(page), hasMore)
	}

	history := store.History()
	if len(history) != 3 || history[0].ID != "r1" || history[2].ID != "r3" {
		t.Errorf("store history = %v, want [r1 r2 r3]", historyIDs(history))
	}
	if store.HistoryTotal() != 3 {
		t.Errorf("HistoryTotal() = %d, want 3", store.HistoryTotal())
	}
	if len(cache.puts) != 3 {
		t.Errorf("cache saw %d writes, want 3", len(cache.puts))
	}
	for _, put := range cache.puts {
		if put.source != models.SourceHistory {
			t.Errorf("cache write source = %q, want %q", put.source, models.SourceHistory)
		}
	}

	// Page one replaces what a previous session loaded
	if _, _, err := service.LoadHistoryPage(context.Background(), 1, 2); err != nil {
		t.Fatalf("reloading page 1 returned error: %v", err)
	}
	if history := store.History(); len(history) != 2 {
		t.Errorf("store history after page-1 reload = %v, want just page 1", historyIDs(history))
	}
}

func TestServiceLoadHistoryFullLastPageCostsAPhantomRequest(t *testing.T) {
	backend := &fakeBackend{
		historyPages: map[int]models.RecipeHistoryResponse{
			1: {
				Recipes:  []models.GeneratedRecipe{recipeFixture("r1", "Pasta", false), recipeFixture("r2", "Soup", false)},
				Total:    2,
				Page:     1,
				PageSize: 2,
			},
			// Page 2 exists only as an empty response
		},
	}
	service, _, _, _ := newServiceForTest(backend)

	_, hasMore, err := service.LoadHistoryPage(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("LoadHistoryPage(1) returned error: %v", err)
	}
	// The full page is indistinguishable from a partial listing, so the
	// caller is told to fetch again and gets an empty page
	if !hasMore {
		t.Fatal("hasMore after a full final page = false, want true")
	}

	page, hasMore, err := service.LoadHistoryPage(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("LoadHistoryPage(2) returned error: %v", err)
	}
	if len(page) != 0 || hasMore {
		t.Errorf("phantom page = %d recipes, hasMore %v, want 0 and false", len(page), hasMore)
	}
}

func TestServiceLoadHistoryValidatesPaging(t *testing.T) {
	backend := &fakeBackend{}
	service, _, _, _ := newServiceForTest(backend)

	if _, _, err := service.LoadHistoryPage(context.Background(), 0, 10); !api.IsValidationError(err) {
		t.Errorf("LoadHistoryPage(0, 10) error = %v, want a validation error", err)
	}
	if _, _, err := service.LoadHistoryPage(context.Background(), 1, 0); !api.IsValidationError(err) {
		t.Errorf("LoadHistoryPage(1, 0) error = %v, want a validation error", err)
	}
	if _, _, err := service.LoadFavoritesPage(context.Background(), -1, 10); !api.IsValidationError(err) {
		t.Errorf("LoadFavoritesPage(-1, 10) error = %v, want a validation error", err)
	}
}

func TestServiceLoadFavoritesPages(t *testing.T) {
	backend := &fakeBackend{
		favoritePages: map[int]models.RecipeHistoryResponse{
			1: {
				Recipes:  []models.GeneratedRecipe{recipeFixture("r2", "Soup", true)},
				Total:    1,
				Page:     1,
				PageSize: 10,
			},
		},
	}
	service, store, cache, _ := newServiceForTest(backend)

	page, hasMore, err := service.LoadFavoritesPage(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("LoadFavoritesPage() returned error: %v", err)
	}
	if len(page) != 1 || hasMore {
		t.Errorf("favorites page = %d recipes, hasMore %v, want 1 and false", len(page), hasMore)
	}
	if favorites := store.Favorites(); len(favorites) != 1 || !favorites[0].IsFavorite {
		t.Errorf("store favorites = %v, want [r2] flagged favorite", historyIDs(favorites))
	}
	if store.FavoritesTotal() != 1 {
		t.Errorf("FavoritesTotal() = %d, want 1", store.FavoritesTotal())
	}
	if len(cache.puts) != 1 || cache.puts[0].source != models.SourceFavorites {
		t.Errorf("cache puts = %v, want one favorites-source write", cache.puts)
	}
}

func TestServiceToggleFavoriteRemoteFirst(t *testing.T) {
	toggleErr := errors.New("server said no")
	backend := &fakeBackend{toggleErr: toggleErr}
	service, store, cache, _ := newServiceForTest(backend)
	store.ReplaceHistory([]models.GeneratedRecipe{recipeFixture("r1", "Pasta", false)}, 1)

	_, err := service.ToggleFavorite(context.Background(), "r1")
	if !errors.Is(err, toggleErr) {
		t.Fatalf("ToggleFavorite() error = %v, want the remote error", err)
	}
	// A failed toggle leaves every bit of local state alone
	if recipe, _ := store.Get("r1"); recipe.IsFavorite {
		t.Error("favorite flag changed although the remote call failed")
	}
	if len(cache.puts) != 0 {
		t.Error("cache was written although the remote call failed")
	}

	backend.toggleErr = nil
	updated, err := service.ToggleFavorite(context.Background(), "r1")
	if err != nil {
		t.Fatalf("ToggleFavorite() returned error: %v", err)
	}
	if !updated.IsFavorite {
		t.Error("ToggleFavorite() returned the old flag, want the flipped one")
	}
	if recipe, _ := store.Get("r1"); !recipe.IsFavorite {
		t.Error("favorite flag was not flipped after the remote success")
	}
	if len(backend.toggled) != 1 || backend.toggled[0] != "r1" {
		t.Errorf("backend toggles = %v, want [r1]", backend.toggled)
	}
	if len(cache.puts) != 1 {
		t.Errorf("cache saw %d writes after the toggle, want 1", len(cache.puts))
	}

	// Toggling back flips it off again
	updated, err = service.ToggleFavorite(context.Background(), "r1")
	if err != nil {
		t.Fatalf("second ToggleFavorite() returned error: %v", err)
	}
	if updated.IsFavorite {
		t.Error("second toggle did not flip the flag back off")
	}
}

func TestServiceToggleFavoriteUncachedRecipe(t *testing.T) {
	backend := &fakeBackend{
		records: map[string]models.GeneratedRecipe{
			"r7": recipeFixture("r7", "Curry", true),
		},
	}
	service, store, _, _ := newServiceForTest(backend)

	updated, err := service.ToggleFavorite(context.Background(), "r7")
	if err != nil {
		t.Fatalf("ToggleFavorite() returned error: %v", err)
	}
	if !updated.IsFavorite {
		t.Error("ToggleFavorite() on uncached recipe returned stale state")
	}
	if len(backend.getCalls) != 1 || backend.getCalls[0] != "r7" {
		t.Errorf("backend fetches = %v, want [r7] to learn the new state", backend.getCalls)
	}
	if recipe, ok := store.Get("r7"); !ok || !recipe.IsFavorite {
		t.Error("fetched state was not recorded in the store")
	}
}

func TestServiceToggleFavoriteValidatesID(t *testing.T) {
	backend := &fakeBackend{}
	service, _, _, _ := newServiceForTest(backend)
	if _, err := service.ToggleFavorite(context.Background(), ""); !api.IsValidationError(err) {
		t.Errorf("ToggleFavorite(\"\") error = %v, want a validation error", err)
	}
}

func TestServiceRemoveFromFavoritesView(t *testing.T) {
	backend := &fakeBackend{toggleErr: errors.New("offline")}
	service, store, cache, _ := newServiceForTest(backend)
	store.ReplaceFavorites([]models.GeneratedRecipe{recipeFixture("r1", "Pasta", true)}, 1)

	// Remote failure leaves the view and the flag alone
	if err := service.RemoveFromFavoritesView(context.Background(), "r1"); err == nil {
		t.Fatal("RemoveFromFavoritesView() swallowed the backend error")
	}
	if len(store.Favorites()) != 1 {
		t.Fatal("failed removal still evicted the recipe from the view")
	}
	if recipe, _ := store.Get("r1"); !recipe.IsFavorite {
		t.Error("failed removal flipped the favorite flag")
	}

	// Once the server accepts, the flag flips off and the view shrinks
	backend.toggleErr = nil
	if err := service.RemoveFromFavoritesView(context.Background(), "r1"); err != nil {
		t.Fatalf("RemoveFromFavoritesView() returned error: %v", err)
	}
	if len(backend.toggled) != 1 || backend.toggled[0] != "r1" {
		t.Errorf("backend toggles = %v, want [r1]", backend.toggled)
	}
	if recipe, _ := store.Get("r1"); recipe.IsFavorite {
		t.Error("recipe is still flagged favorite after removal")
	}
	if len(store.Favorites()) != 0 {
		t.Error("favorites view still holds the removed recipe")
	}
	if store.FavoritesTotal() != 0 {
		t.Errorf("FavoritesTotal() = %d, want 0", store.FavoritesTotal())
	}
	if len(cache.puts) != 1 || cache.puts[0].source != models.SourceFavorites {
		t.Errorf("cache writes = %+v, want one from the favorites surface", cache.puts)
	}
}

func TestServiceRemoveFromFavoritesViewNonFavorite(t *testing.T) {
	backend := &fakeBackend{}
	service, store, _, _ := newServiceForTest(backend)
	// A stale view entry whose record was already unfavorited elsewhere
	store.ReplaceFavorites([]models.GeneratedRecipe{recipeFixture("r2", "Soup", false)}, 1)

	if err := service.RemoveFromFavoritesView(context.Background(), "r2"); err != nil {
		t.Fatalf("RemoveFromFavoritesView() returned error: %v", err)
	}
	if len(store.Favorites()) != 0 {
		t.Error("stale entry was not evicted")
	}
	// Already non-favorite, so no toggle goes over the wire
	if len(backend.toggled) != 0 {
		t.Errorf("backend toggles = %v, want none", backend.toggled)
	}
}

func TestServiceRemoveFromFavoritesViewUncached(t *testing.T) {
	backend := &fakeBackend{
		records: map[string]models.GeneratedRecipe{
			"r9": recipeFixture("r9", "Curry", false),
		},
	}
	service, store, cache, _ := newServiceForTest(backend)

	// Nothing loaded locally, the usual shape for a fresh process
	if err := service.RemoveFromFavoritesView(context.Background(), "r9"); err != nil {
		t.Fatalf("RemoveFromFavoritesView() returned error: %v", err)
	}
	if len(backend.toggled) != 1 || backend.toggled[0] != "r9" {
		t.Errorf("backend toggles = %v, want [r9]", backend.toggled)
	}
	if len(backend.getCalls) != 1 || backend.getCalls[0] != "r9" {
		t.Errorf("backend fetches = %v, want a refresh of r9", backend.getCalls)
	}
	if recipe, ok := store.Get("r9"); !ok || recipe.IsFavorite {
		t.Errorf("store record = %+v, %t, want the refreshed non-favorite state", recipe, ok)
	}
	if len(cache.puts) != 1 || cache.puts[0].source != models.SourceFavorites {
		t.Errorf("cache writes = %+v, want one refreshed entry from the favorites surface", cache.puts)
	}
}

func TestServiceRemoveFromFavoritesViewValidatesID(t *testing.T) {
	backend := &fakeBackend{}
	service, _, _, _ := newServiceForTest(backend)
	if err := service.RemoveFromFavoritesView(context.Background(), ""); !api.IsValidationError(err) {
		t.Errorf("RemoveFromFavoritesView(\"\") error = %v, want a validation error", err)
	}
}

func TestServiceRefresh(t *testing.T) {
	backend := &fakeBackend{
		records: map[string]models.GeneratedRecipe{
			"r1": recipeFixture("r1", "Pasta v2", true),
		},
	}
	service, store, cache, _ := newServiceForTest(backend)
	store.Upsert(recipeFixture("r1", "Pasta", false))

	recipe, err := service.Refresh(context.Background(), "r1")
	if err != nil {
		t.Fatalf("Refresh() returned error: %v", err)
	}
	if recipe.Recipe.Title != "Pasta v2" || !recipe.IsFavorite {
		t.Errorf("Refresh() = %+v, want the server's newer state", recipe)
	}
	if stored, _ := store.Get("r1"); stored.Recipe.Title != "Pasta v2" {
		t.Error("store still holds the stale record after Refresh()")
	}
	if len(cache.puts) != 1 {
		t.Errorf("cache saw %d writes, want 1", len(cache.puts))
	}
}
