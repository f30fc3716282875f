package recipes

import (
	"testing"

	"go-flavourcraft/internal/models"
)

func recipeFixture(id, title string, favorite bool) models.GeneratedRecipe {
	return models.GeneratedRecipe{
		ID: id,
		Recipe: models.RecipeContent{
			Title:         title,
			Steps:         []string{"chop", "cook"},
			EstimatedTime: "25 minutes",
			Difficulty:    models.DifficultyEasy,
			Servings:      2,
		},
		IngredientsUsed: []string{"tomato", "basil"},
		CreatedAt:       "2025-05-01T12:00:00Z",
		IsFavorite:      favorite,
	}
}

func TestStoreCurrent(t *testing.T) {
	s := NewStore()

	if _, ok := s.Current(); ok {
		t.Error("Current() on empty store reported a recipe")
	}

	s.SetCurrent(recipeFixture("r1", "Pasta", false))
	current, ok := s.Current()
	if !ok || current.ID != "r1" {
		t.Fatalf("Current() = (%+v, %v), want r1", current, ok)
	}

	// Snapshots do not alias the arena record
	current.Recipe.Title = "Mutated"
	current.Recipe.Steps[0] = "mutated"
	again, _ := s.Current()
	if again.Recipe.Title != "Pasta" || again.Recipe.Steps[0] != "chop" {
		t.Error("mutating a Current() snapshot leaked into the store")
	}

	s.SetCurrent(recipeFixture("r2", "Soup", false))
	current, _ = s.Current()
	if current.ID != "r2" {
		t.Errorf("Current() after second generation = %s, want r2", current.ID)
	}
}

func TestStoreGetUnknown(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(\"missing\") reported a recipe")
	}
}

func TestStoreReplaceAndAppendHistory(t *testing.T) {
	s := NewStore()

	s.ReplaceHistory([]models.GeneratedRecipe{
		recipeFixture("r1", "Pasta", false),
		recipeFixture("r2", "Soup", false),
	}, 5)

	history := s.History()
	if len(history) != 2 || history[0].ID != "r1" || history[1].ID != "r2" {
		t.Fatalf("History() = %v, want [r1 r2]", historyIDs(history))
	}
	if s.HistoryTotal() != 5 {
		t.Errorf("HistoryTotal() = %d, want 5", s.HistoryTotal())
	}

	// A later page appends; an id seen before keeps its position but its
	// record is refreshed with the newer data
	s.AppendHistory([]models.GeneratedRecipe{
		recipeFixture("r2", "Soup v2", false),
		recipeFixture("r3", "Salad", false),
	}, 5)

	history = s.History()
	if len(history) != 3 {
		t.Fatalf("History() after append = %v, want 3 entries", historyIDs(history))
	}
	if history[1].ID != "r2" || history[1].Recipe.Title != "Soup v2" {
		t.Errorf("history[1] = %s %q, want r2 refreshed to Soup v2", history[1].ID, history[1].Recipe.Title)
	}
	if history[2].ID != "r3" {
		t.Errorf("history[2] = %s, want r3", history[2].ID)
	}

	// Page one replaces outright
	s.ReplaceHistory([]models.GeneratedRecipe{recipeFixture("r9", "Stew", false)}, 1)
	history = s.History()
	if len(history) != 1 || history[0].ID != "r9" {
		t.Errorf("History() after replace = %v, want [r9]", historyIDs(history))
	}
}

func TestStoreFavoriteFlagVisibleThroughEveryView(t *testing.T) {
	s := NewStore()

	// The same recipe appears in history, favorites and as current
	s.SetCurrent(recipeFixture("r1", "Pasta", true))
	s.ReplaceHistory([]models.GeneratedRecipe{recipeFixture("r1", "Pasta", true)}, 1)
	s.ReplaceFavorites([]models.GeneratedRecipe{recipeFixture("r1", "Pasta", true)}, 1)

	if !s.SetFavorite("r1", false) {
		t.Fatal("SetFavorite(\"r1\", false) = false, want true")
	}

	if current, _ := s.Current(); current.IsFavorite {
		t.Error("current view still shows the old favorite flag")
	}
	if history := s.History(); history[0].IsFavorite {
		t.Error("history view still shows the old favorite flag")
	}
	if favorites := s.Favorites(); favorites[0].IsFavorite {
		t.Error("favorites view still shows the old favorite flag")
	}

	if s.SetFavorite("missing", true) {
		t.Error("SetFavorite(\"missing\") = true, want false")
	}
}

func TestStoreRemoveFromFavorites(t *testing.T) {
	s := NewStore()
	s.ReplaceHistory([]models.GeneratedRecipe{recipeFixture("r1", "Pasta", true)}, 1)
	s.ReplaceFavorites([]models.GeneratedRecipe{
		recipeFixture("r1", "Pasta", true),
		recipeFixture("r2", "Soup", true),
	}, 2)

	if !s.RemoveFromFavorites("r1") {
		t.Fatal("RemoveFromFavorites(\"r1\") = false, want true")
	}

	favorites := s.Favorites()
	if len(favorites) != 1 || favorites[0].ID != "r2" {
		t.Errorf("Favorites() = %v, want [r2]", historyIDs(favorites))
	}
	if s.FavoritesTotal() != 1 {
		t.Errorf("FavoritesTotal() = %d, want 1", s.FavoritesTotal())
	}

	// Only the view shrinks; the record and other views are untouched
	if _, ok := s.Get("r1"); !ok {
		t.Error("r1 vanished from the arena after a view eviction")
	}
	if history := s.History(); len(history) != 1 || history[0].ID != "r1" {
		t.Error("history view changed after a favorites view eviction")
	}

	if s.RemoveFromFavorites("r1") {
		t.Error("RemoveFromFavorites(\"r1\") twice = true, want false")
	}
	if s.FavoritesTotal() != 1 {
		t.Errorf("FavoritesTotal() after failed eviction = %d, want 1", s.FavoritesTotal())
	}
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.SetCurrent(recipeFixture("r1", "Pasta", false))
	s.ReplaceHistory([]models.GeneratedRecipe{recipeFixture("r2", "Soup", false)}, 1)

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len() after Clear() = %d, want 0", s.Len())
	}
	if _, ok := s.Current(); ok {
		t.Error("Current() after Clear() reported a recipe")
	}
	if len(s.History()) != 0 || s.HistoryTotal() != 0 {
		t.Error("history survived Clear()")
	}
}

func historyIDs(recipes []models.GeneratedRecipe) []string {
	ids := make([]string, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
	}
	return ids
}
