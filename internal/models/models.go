package models

type (
	Config struct {
		// Connection
		BaseUrl string `toml:"BaseUrl"`

		// Paths
		SavePath       string `toml:"SavePath"`       // Base directory for exported photos
		DatabasePath   string `toml:"DatabasePath"`   // Bitcask recipe cache
		BleveIndexPath string `toml:"BleveIndexPath"` // Bleve index over cached recipes
		TokenPath      string `toml:"TokenPath"`      // Persisted bearer token file

		// Generation defaults (flags override)
		CuisineType        string   `toml:"CuisineType"`
		DietaryPreferences []string `toml:"DietaryPreferences"`
		Difficulty         string   `toml:"Difficulty"`
		CookingTimeMinutes int      `toml:"CookingTimeMinutes"`

		// Pagination behavior
		PageSize int `toml:"PageSize"`
		MaxPages int `toml:"MaxPages"` // Cap for --all walks (0 = no cap)

		// Photo export behavior
		PhotoVariant string `toml:"PhotoVariant"` // full, medium or thumb
		Concurrency  int    `toml:"Concurrency"`

		// API behavior
		ApiDelayMs          int `toml:"ApiDelayMs"`
		ApiClientTimeoutSec int `toml:"ApiClientTimeoutSec"`

		// Other
		LogApiRequests bool `toml:"LogApiRequests"`
	}

	// Api Calls and Responses

	// ImageURLs is the remote descriptor the backend returns for each uploaded
	// photo. All four fields are populated on a successful upload; a descriptor
	// missing any of them is treated as unusable.
	ImageURLs struct {
		URL          string `json:"url"`
		ThumbnailURL string `json:"thumbnail_url"`
		MediumURL    string `json:"medium_url"`
		PublicID     string `json:"public_id"`
	}

	// BatchUploadResponse is the result of the single multipart batch request.
	// ImageDescriptors is ordered to match the uploaded files.
	BatchUploadResponse struct {
		Ingredients      []string    `json:"ingredients"`
		ImageDescriptors []ImageURLs `json:"image_descriptors"`
	}

	// GenerationRequest is intentionally sparse: optional fields carry
	// omitempty and are left at their zero value (or nil) when not meaningful,
	// so they never appear in the serialized payload.
	GenerationRequest struct {
		Ingredients        []string   `json:"ingredients"`
		DietaryPreferences []string   `json:"dietary_preferences,omitempty"`
		CuisineType        string     `json:"cuisine_type,omitempty"`
		CookingTime        int        `json:"cooking_time,omitempty"` // Minutes; server caps at 180
		Difficulty         string     `json:"difficulty,omitempty"`
		ImageURLs          *ImageURLs `json:"image_urls,omitempty"`
	}

	RecipeContent struct {
		Title         string   `json:"title"`
		Steps         []string `json:"steps"`
		EstimatedTime string   `json:"estimated_time"`
		Difficulty    string   `json:"difficulty"`
		Tips          []string `json:"tips,omitempty"`
		Servings      int      `json:"servings"` // Server defaults to 4
	}

	GeneratedRecipe struct {
		ID              string        `json:"id"`
		Recipe          RecipeContent `json:"recipe"`
		IngredientsUsed []string      `json:"ingredients_used"`
		CreatedAt       string        `json:"created_at"` // RFC 3339 from the server, kept as-is
		IsFavorite      bool          `json:"is_favorite"`
		ImageURLs       *ImageURLs    `json:"image_urls,omitempty"`
		Username        string        `json:"username,omitempty"`
	}

	// RecipeHistoryResponse is the pagination envelope shared by the history
	// and favorites endpoints.
	RecipeHistoryResponse struct {
		Recipes  []GeneratedRecipe `json:"recipes"`
		Total    int               `json:"total"`
		Page     int               `json:"page"`
		PageSize int               `json:"page_size"`
	}

	Token struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token,omitempty"`
		TokenType    string `json:"token_type"` // "bearer"
	}

	UserProfile struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		CreatedAt string `json:"created_at,omitempty"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	// UploadedAsset is the local record of a photo selected for upload:
	// the synchronous preview (size, type, dimensions, fingerprint) plus the
	// remote descriptor once the batch succeeds.
	UploadedAsset struct {
		ID          string     `json:"id"` // Local UUID, not a server ID
		SourcePath  string     `json:"sourcePath"`
		FileName    string     `json:"fileName"`
		SizeBytes   uint64     `json:"sizeBytes"`
		ContentType string     `json:"contentType"`
		Width       int        `json:"width"`
		Height      int        `json:"height"`
		Fingerprint string     `json:"fingerprint"` // BLAKE3 of the file contents
		Status      string     `json:"status"`
		Descriptor  *ImageURLs `json:"descriptor,omitempty"`
	}

	// CacheEntry is what the local database stores per recipe.
	CacheEntry struct {
		Recipe   GeneratedRecipe `json:"recipe"`
		SyncedAt int64           `json:"syncedAt"` // Unix seconds of the last fetch
		Source   string          `json:"source"`
	}
)

// Asset Status Constants
const (
	AssetStatusPending   = "Pending"
	AssetStatusUploading = "Uploading"
	AssetStatusUploaded  = "Uploaded"
	AssetStatusFailed    = "Failed"
)

// Cache Source Constants
const (
	SourceGenerated = "generated"
	SourceHistory   = "history"
	SourceFavorites = "favorites"
)

// Difficulty values accepted by the generation endpoint.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Photo variants understood by the exporter.
const (
	VariantFull   = "full"
	VariantMedium = "medium"
	VariantThumb  = "thumb"
)

// Complete reports whether every descriptor field is populated. Partial
// descriptors are dropped rather than sent.
func (i ImageURLs) Complete() bool {
	return i.URL != "" && i.ThumbnailURL != "" && i.MediumURL != "" && i.PublicID != ""
}

// VariantURL returns the URL for the requested variant, falling back to the
// full-size URL when the variant is unknown or that field is empty.
func (i ImageURLs) VariantURL(variant string) string {
	switch variant {
	case VariantThumb:
		if i.ThumbnailURL != "" {
			return i.ThumbnailURL
		}
	case VariantMedium:
		if i.MediumURL != "" {
			return i.MediumURL
		}
	}
	return i.URL
}
