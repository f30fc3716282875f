package cmd

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/blevesearch/bleve/v2"
	log "github.com/sirupsen/logrus"

	index "go-flavourcraft/index"
	"go-flavourcraft/internal/api"
	"go-flavourcraft/internal/auth"
	"go-flavourcraft/internal/database"
	"go-flavourcraft/internal/ingredients"
	"go-flavourcraft/internal/models"
	"go-flavourcraft/internal/recipes"
	"go-flavourcraft/internal/session"
	"go-flavourcraft/internal/uploader"
)

// Path resolution helpers. Every path falls back from its explicit config
// field to a file under SavePath, then to the current directory, so the CLI
// works out of the box without a config file.

func resolveDatabasePath() string {
	if globalConfig.DatabasePath != "" {
		return globalConfig.DatabasePath
	}
	if globalConfig.SavePath != "" {
		return filepath.Join(globalConfig.SavePath, "flavourcraft.db")
	}
	log.Warn("DatabasePath not configured, using ./flavourcraft.db")
	return "flavourcraft.db"
}

func resolveTokenPath() string {
	if globalConfig.TokenPath != "" {
		return globalConfig.TokenPath
	}
	if globalConfig.SavePath != "" {
		return filepath.Join(globalConfig.SavePath, "token.json")
	}
	return "token.json"
}

func resolveIndexPath() string {
	if globalConfig.BleveIndexPath != "" {
		return globalConfig.BleveIndexPath
	}
	if globalConfig.SavePath != "" {
		return filepath.Join(globalConfig.SavePath, "flavourcraft.bleve")
	}
	return "flavourcraft.bleve"
}

// openDatabase opens the local database at the resolved path.
func openDatabase() (*database.DB, error) {
	return database.Open(resolveDatabasePath())
}

// newTokenStore returns the persisted token store used by every
// authenticated call.
func newTokenStore() *auth.FileStore {
	return auth.NewFileStore(resolveTokenPath())
}

// newApiClient builds the API client over the global transport so API
// logging applies to every command.
func newApiClient() *api.Client {
	if globalHttpTransport == nil {
		log.Warn("Global HTTP transport not initialized, using default.")
		globalHttpTransport = http.DefaultTransport
	}
	httpClient := &http.Client{
		Transport: globalHttpTransport,
		Timeout:   time.Duration(globalConfig.ApiClientTimeoutSec) * time.Second,
	}
	return api.NewClient(newTokenStore(), httpClient, globalConfig)
}

// bleveIndexer adapts a bleve index to the recipe service's Indexer.
type bleveIndexer struct {
	idx bleve.Index
}

func (b bleveIndexer) IndexRecipe(recipe models.GeneratedRecipe, source string) error {
	return index.IndexItem(b.idx, index.FromRecipe(recipe, source))
}

// newRecipeService wires the API client, in-memory store, disk cache and
// search index into a service. The returned closer shuts the index; callers
// own the database handle. Index failures degrade to a warning because
// recipes must stay reachable without search.
func newRecipeService(db *database.DB) (*recipes.Service, *recipes.Store, func()) {
	store := recipes.NewStore()
	service := recipes.NewService(newApiClient(), store)
	service.SetCache(recipes.NewDiskCache(db))

	closer := func() {}
	bleveIndex, err := index.OpenOrCreateIndex(resolveIndexPath())
	if err != nil {
		log.WithError(err).Warn("Search index unavailable, continuing without indexing.")
	} else {
		service.SetIndexer(bleveIndexer{idx: bleveIndex})
		closer = func() {
			if err := bleveIndex.Close(); err != nil {
				log.WithError(err).Warn("Error closing search index")
			}
		}
	}
	return service, store, closer
}

// restoreSession rebuilds the pantry and upload coordinator from saved
// session state.
func restoreSession(client uploader.BatchUploader, state session.State) (*ingredients.Set, *uploader.Coordinator) {
	pantry := ingredients.NewSet()
	pantry.Merge(state.Pantry)
	coordinator := uploader.NewCoordinator(client, pantry)
	if err := coordinator.Restore(state.Assets); err != nil {
		log.WithError(err).Warn("Could not restore photo batch from session")
	}
	return pantry, coordinator
}

// saveSession persists the pantry and photo batch for the next invocation.
func saveSession(store *session.Store, pantry *ingredients.Set, coordinator *uploader.Coordinator) {
	state := session.State{
		Pantry: pantry.Items(),
		Assets: coordinator.Assets(),
	}
	if err := store.Save(state); err != nil {
		log.WithError(err).Error("Failed to save session state")
	}
}
