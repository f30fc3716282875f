package recipes

import (
	"sync"

	"go-flavourcraft/internal/models"
)

// Store is the in-memory recipe cache. Every recipe lives exactly once in
// the arena, keyed by id; the history and favorites views are just ordered
// id lists over it, and the current recipe is an id. Flipping a flag on the
// arena record is therefore visible through every view at once, there are no
// per-view copies to drift apart.
type Store struct {
	mu             sync.RWMutex
	arena          map[string]*models.GeneratedRecipe
	history        []string
	favorites      []string
	current        string
	historyTotal   int
	favoritesTotal int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{arena: make(map[string]*models.GeneratedRecipe)}
}

// upsertLocked writes a recipe into the arena. Caller holds the write lock.
func (s *Store) upsertLocked(recipe models.GeneratedRecipe) {
	clone := cloneRecipe(recipe)
	s.arena[recipe.ID] = &clone
}

// Upsert writes a recipe into the arena without touching any view.
func (s *Store) Upsert(recipe models.GeneratedRecipe) {
	if recipe.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(recipe)
}

// SetCurrent stores the recipe and points the current marker at it.
func (s *Store) SetCurrent(recipe models.GeneratedRecipe) {
	if recipe.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(recipe)
	s.current = recipe.ID
}

// Current returns a copy of the most recently generated recipe.
func (s *Store) Current() (models.GeneratedRecipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == "" {
		return models.GeneratedRecipe{}, false
	}
	record, ok := s.arena[s.current]
	if !ok {
		return models.GeneratedRecipe{}, false
	}
	return cloneRecipe(*record), true
}

// Get returns a copy of the recipe with the given id.
func (s *Store) Get(id string) (models.GeneratedRecipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.arena[id]
	if !ok {
		return models.GeneratedRecipe{}, false
	}
	return cloneRecipe(*record), true
}

// ReplaceHistory swaps the history view for the given page of recipes. Used
// for the first page of a load.
func (s *Store) ReplaceHistory(recipes []models.GeneratedRecipe, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = s.replaceViewLocked(nil, recipes)
	s.historyTotal = total
}

// AppendHistory extends the history view with a further page. Ids already in
// the view keep their position; their arena records are still refreshed with
// the newer data.
func (s *Store) AppendHistory(recipes []models.GeneratedRecipe, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = s.appendViewLocked(s.history, recipes)
	s.historyTotal = total
}

// ReplaceFavorites swaps the favorites view for the given page of recipes.
func (s *Store) ReplaceFavorites(recipes []models.GeneratedRecipe, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites = s.replaceViewLocked(nil, recipes)
	s.favoritesTotal = total
}

// AppendFavorites extends the favorites view with a further page.
func (s *Store) AppendFavorites(recipes []models.GeneratedRecipe, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites = s.appendViewLocked(s.favorites, recipes)
	s.favoritesTotal = total
}

func (s *Store) replaceViewLocked(view []string, recipes []models.GeneratedRecipe) []string {
	for _, recipe := range recipes {
		if recipe.ID == "" {
			continue
		}
		s.upsertLocked(recipe)
		view = append(view, recipe.ID)
	}
	return view
}

func (s *Store) appendViewLocked(view []string, recipes []models.GeneratedRecipe) []string {
	present := make(map[string]struct{}, len(view))
	for _, id := range view {
		present[id] = struct{}{}
	}
	for _, recipe := range recipes {
		if recipe.ID == "" {
			continue
		}
		s.upsertLocked(recipe)
		if _, dup := present[recipe.ID]; dup {
			continue
		}
		present[recipe.ID] = struct{}{}
		view = append(view, recipe.ID)
	}
	return view
}

// History returns copies of the history view in order.
func (s *Store) History() []models.GeneratedRecipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked(s.history)
}

// Favorites returns copies of the favorites view in order.
func (s *Store) Favorites() []models.GeneratedRecipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked(s.favorites)
}

func (s *Store) viewLocked(ids []string) []models.GeneratedRecipe {
	out := make([]models.GeneratedRecipe, 0, len(ids))
	for _, id := range ids {
		if record, ok := s.arena[id]; ok {
			out = append(out, cloneRecipe(*record))
		}
	}
	return out
}

// HistoryTotal returns the server-reported total behind the history view.
func (s *Store) HistoryTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historyTotal
}

// FavoritesTotal returns the server-reported total behind the favorites view.
func (s *Store) FavoritesTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favoritesTotal
}

// SetFavorite flips the favorite flag on the single arena record, which every
// view observes at once. Returns false when the id is unknown.
func (s *Store) SetFavorite(id string, favorite bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.arena[id]
	if !ok {
		return false
	}
	record.IsFavorite = favorite
	return true
}

// RemoveFromFavorites evicts an id from the favorites view and decrements the
// local favorites total. The arena record itself stays untouched; this is a
// view operation, distinct from toggling the flag.
func (s *Store) RemoveFromFavorites(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, favID := range s.favorites {
		if favID == id {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			if s.favoritesTotal > 0 {
				s.favoritesTotal--
			}
			return true
		}
	}
	return false
}

// Len returns the number of recipes in the arena.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.arena)
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arena = make(map[string]*models.GeneratedRecipe)
	s.history = nil
	s.favorites = nil
	s.current = ""
	s.historyTotal = 0
	s.favoritesTotal = 0
}

// cloneRecipe copies a recipe deeply enough that callers can't reach arena
// records through shared slices or pointers.
func cloneRecipe(recipe models.GeneratedRecipe) models.GeneratedRecipe {
	out := recipe
	out.Recipe.Steps = append([]string(nil), recipe.Recipe.Steps...)
	out.Recipe.Tips = append([]string(nil), recipe.Recipe.Tips...)
	out.IngredientsUsed = append([]string(nil), recipe.IngredientsUsed...)
	if recipe.ImageURLs != nil {
		images := *recipe.ImageURLs
		out.ImageURLs = &images
	}
	return out
}
