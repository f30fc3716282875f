package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httputil"
	"net/textproto"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go-flavourcraft/internal/models"

	log "github.com/sirupsen/logrus"
)

const DefaultBaseUrl = "https://api.flavourcraft.app"

// TokenProvider supplies the bearer token for authenticated requests. The
// client holds no token state of its own; every request asks the provider,
// and a 401 response invalidates whatever the provider has stored.
// Implementations live in internal/auth.
type TokenProvider interface {
	Token() (string, error)
	Invalidate() error
}

// UploadFile is a single part of the multipart batch request.
type UploadFile struct {
	FileName    string
	ContentType string
	Reader      io.Reader
}

// apiLogger is a dedicated logger for api.log
var apiLogger = log.New()
var apiLogFile *os.File

// configureApiLogger sets up the apiLogger based on config.
// Called from NewClient so the flag takes effect wherever a client is built.
func configureApiLogger(shouldLog bool) {
	if !shouldLog {
		apiLogger.SetOutput(io.Discard)
		return
	}

	if apiLogFile == nil {
		var err error
		apiLogFile, err = os.OpenFile("api.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			log.WithError(err).Error("Failed to open api.log, API logging disabled.")
			apiLogger.SetOutput(io.Discard)
			return
		}
		apiLogger.SetOutput(apiLogFile)
		// Use a simple text formatter for the log file
		apiLogger.SetFormatter(&log.TextFormatter{
			DisableColors:    true,
			FullTimestamp:    true,
			DisableQuote:     true,
			QuoteEmptyFields: true,
		})
		apiLogger.SetLevel(log.DebugLevel) // Log everything to the file if enabled
		apiLogger.Info("API Logger Initialized")
	}
}

// CleanupApiLog closes the api.log file handle. Should be called on application exit.
func CleanupApiLog() {
	if apiLogFile != nil {
		apiLogger.Info("Closing API log file.")
		if err := apiLogFile.Close(); err != nil {
			apiLogger.WithError(err).Error("Error closing API log file")
		}
	}
}

// Client struct for interacting with the FlavourCraft API
type Client struct {
	BaseUrl        string
	HttpClient     *http.Client // Use a shared client
	Tokens         TokenProvider
	logApiRequests bool // Store the config setting

	maxRetries int
}

// NewClient creates a new API client. A nil tokens provider means every
// request goes out unauthenticated.
func NewClient(tokens TokenProvider, httpClient *http.Client, cfg models.Config) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseUrl := cfg.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	configureApiLogger(cfg.LogApiRequests)

	return &Client{
		BaseUrl:        strings.TrimRight(baseUrl, "/"),
		HttpClient:     httpClient,
		Tokens:         tokens,
		logApiRequests: cfg.LogApiRequests,
		maxRetries:     3,
	}
}

// setAuth attaches the Authorization header when a token is available.
func (c *Client) setAuth(req *http.Request) error {
	if c.Tokens == nil {
		return nil
	}
	token, err := c.Tokens.Token()
	if err != nil {
		return fmt.Errorf("reading auth token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// handleUnauthorized clears the stored credential after a 401. Requests that
// are already in flight may still fail with the same error afterwards; callers
// are expected to tolerate that.
func (c *Client) handleUnauthorized() {
	if c.Tokens == nil {
		return
	}
	if err := c.Tokens.Invalidate(); err != nil {
		log.WithError(err).Warn("Failed to invalidate stored token after 401 response")
		return
	}
	log.Debug("Received 401, invalidated stored credentials.")
}

// statusSentinelError wraps a non-2xx status in the matching sentinel without
// touching the payload. The batch upload path uses this so the server message
// reaches the caller raw.
func statusSentinelError(statusCode int, body []byte) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w (status code %d)", ErrRateLimited, statusCode)
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status code %d)", ErrUnauthorized, statusCode)
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w (status code %d)", ErrNotFound, statusCode)
	case statusCode >= 500:
		return fmt.Errorf("%w (status code %d)", ErrServerError, statusCode)
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	if snippet != "" {
		return fmt.Errorf("API request failed with status %d: %s", statusCode, snippet)
	}
	return fmt.Errorf("API request failed with status %d", statusCode)
}

func statusError(statusCode int, body []byte, normalize bool) error {
	if normalize {
		return NewStatusError(statusCode, body)
	}
	return statusSentinelError(statusCode, body)
}

// doRequest performs one API call and returns the response body. Calls with
// retryable=true get up to maxRetries attempts on rate limits, 5xx responses
// and transport errors, with backoff; everything else gets exactly one
// attempt. normalizeErrors selects between the normalized StatusError and the
// raw sentinel wrapping.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body []byte, contentType string, retryable, normalizeErrors bool) ([]byte, error) {
	reqURL := c.BaseUrl + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	attempts := 1
	if retryable {
		attempts = c.maxRetries
	}

	var respBody []byte
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		var reader io.Reader
		if len(body) > 0 {
			// Fresh reader per attempt, the previous one may be drained
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			log.WithError(err).Errorf("Error creating request for %s", reqURL)
			return nil, fmt.Errorf("error creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if err := c.setAuth(req); err != nil {
			return nil, err
		}

		// --- Log API Request ---
		if c.logApiRequests && attempt == 0 {
			// Multipart bodies are too large to dump wholesale
			dumpBody := len(body) == 0 || contentType == "application/json"
			reqDump, dumpErr := httputil.DumpRequestOut(req, dumpBody)
			if dumpErr != nil {
				apiLogger.WithError(dumpErr).Error("Failed to dump API request")
			} else {
				apiLogger.Debugf("\n--- API Request ---\n%s\n--------------------", string(redactAuthorization(reqDump)))
			}
		}
		// --- End Log API Request ---

		resp, err := c.HttpClient.Do(req)
		if err != nil {
			if c.logApiRequests {
				apiLogger.WithError(err).Errorf("Attempt %d: HTTP Client Do() failed", attempt+1)
			}
			lastErr = fmt.Errorf("http request failed (attempt %d/%d): %w", attempt+1, attempts, err)
			if attempt < attempts-1 && ctx.Err() == nil {
				log.WithError(err).Warnf("Retrying (%d/%d)...", attempt+1, attempts)
				time.Sleep(time.Duration(attempt+1) * 2 * time.Second) // Exponential backoff
				continue
			}
			break // Max retries reached on HTTP error
		}

		respBody, err = io.ReadAll(resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Error closing response body")
		}
		if err != nil {
			log.WithError(err).Error("Error reading response body")
			return nil, fmt.Errorf("error reading response body: %w", err)
		}

		// --- Log API Response (Attempt) ---
		if c.logApiRequests {
			respDump, dumpErr := httputil.DumpResponse(resp, false) // false = body already consumed
			if dumpErr != nil {
				apiLogger.WithError(dumpErr).Errorf("Attempt %d: Failed to dump API response headers", attempt+1)
			} else {
				apiLogger.Debugf("\n--- API Response (Attempt %d) ---\n%s\n--- Body (%d bytes) ---\n%s\n-----------------------------\n",
					attempt+1, string(respDump), len(respBody), string(respBody))
			}
		}
		// --- End Log API Response (Attempt) ---

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			lastErr = nil
			goto ProcessResponse // Use goto to break out of switch and loop
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = statusError(resp.StatusCode, respBody, normalizeErrors)
		case resp.StatusCode == http.StatusUnauthorized:
			c.handleUnauthorized()
			lastErr = statusError(resp.StatusCode, respBody, normalizeErrors)
			goto RequestFailed // Non-retryable auth error
		case resp.StatusCode >= 500:
			lastErr = statusError(resp.StatusCode, respBody, normalizeErrors)
		default:
			// Other client-side errors (4xx) are not retryable
			lastErr = statusError(resp.StatusCode, respBody, normalizeErrors)
			goto RequestFailed
		}

		// If we are here, it's a retryable error (Rate Limit or 5xx)
		if attempt < attempts-1 {
			var sleepDuration time.Duration
			if resp.StatusCode == http.StatusTooManyRequests {
				// Longer backoff for rate limits
				sleepDuration = time.Duration(attempt+1) * 5 * time.Second
				log.WithError(lastErr).Warnf("Rate limited. Retrying (%d/%d) after %s...", attempt+1, attempts, sleepDuration)
			} else { // Server errors (5xx)
				sleepDuration = time.Duration(attempt+1) * 3 * time.Second
				log.WithError(lastErr).Warnf("Server error. Retrying (%d/%d) after %s...", attempt+1, attempts, sleepDuration)
			}
			time.Sleep(sleepDuration)
		} else if retryable {
			log.WithError(lastErr).Errorf("Request failed after %d attempts with status %d", attempts, resp.StatusCode)
		}
	}

RequestFailed:
	if lastErr != nil {
		return nil, lastErr
	}

ProcessResponse:
	return respBody, nil
}

// getJSON performs a retryable GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil, "", true, true)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.WithError(err).Errorf("Error unmarshalling response JSON from %s", path)
		log.Debugf("Response body causing unmarshal error: %s", string(body))
		return fmt.Errorf("error unmarshalling response JSON: %w", err)
	}
	return nil
}

// sendJSON marshals payload, performs a single-attempt request and decodes the
// response into out when out is non-nil. Mutating calls never retry.
func (c *Client) sendJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error marshalling request payload: %w", err)
		}
	}
	respBody, err := c.doRequest(ctx, method, path, nil, body, "application/json", false, true)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		log.WithError(err).Errorf("Error unmarshalling response JSON from %s", path)
		log.Debugf("Response body causing unmarshal error: %s", string(respBody))
		return fmt.Errorf("error unmarshalling response JSON: %w", err)
	}
	return nil
}

// --- Auth Endpoints --- START ---

type registerPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, email, password string) (models.UserProfile, error) {
	var profile models.UserProfile
	err := c.sendJSON(ctx, http.MethodPost, "/auth/register", registerPayload{Username: username, Email: email, Password: password}, &profile)
	return profile, err
}

// Login exchanges credentials for a bearer token. Storing the token is the
// caller's concern, the client itself stays stateless.
func (c *Client) Login(ctx context.Context, email, password string) (models.Token, error) {
	var token models.Token
	err := c.sendJSON(ctx, http.MethodPost, "/auth/login", loginPayload{Email: email, Password: password}, &token)
	return token, err
}

// Me returns the profile of the authenticated user.
func (c *Client) Me(ctx context.Context) (models.UserProfile, error) {
	var profile models.UserProfile
	err := c.getJSON(ctx, "/auth/me", nil, &profile)
	return profile, err
}

// Logout tells the server to drop the session. The local token is cleared
// separately by the caller.
func (c *Client) Logout(ctx context.Context) error {
	return c.sendJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// --- Auth Endpoints --- END ---

// --- Upload Endpoint --- START ---

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildMultipartBatch assembles the single multipart body for a batch. Every
// file goes under the same "files" form field, one part per file, with its
// sniffed content type on the part.
func buildMultipartBatch(files []UploadFile) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.FileName)))
		if f.ContentType != "" {
			h.Set("Content-Type", f.ContentType)
		}
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("error creating multipart section for %s: %w", f.FileName, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, "", fmt.Errorf("error writing multipart section for %s: %w", f.FileName, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("error finalizing multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// UploadBatch sends all files in ONE multipart request and returns the
// detected ingredients plus one image descriptor per file, in upload order.
// Errors come back with sentinel wrapping only, the payload is not run
// through the detail normalizer.
func (c *Client) UploadBatch(ctx context.Context, files []UploadFile) (models.BatchUploadResponse, error) {
	var response models.BatchUploadResponse
	if len(files) == 0 {
		return response, NewValidationError("no files to upload")
	}

	body, contentType, err := buildMultipartBatch(files)
	if err != nil {
		return response, err
	}

	log.Debugf("Uploading batch of %d file(s), %d bytes total", len(files), len(body))
	respBody, err := c.doRequest(ctx, http.MethodPost, "/images/batch", nil, body, contentType, false, false)
	if err != nil {
		return response, err
	}

	if err := json.Unmarshal(respBody, &response); err != nil {
		log.WithError(err).Error("Error unmarshalling batch upload response")
		return response, fmt.Errorf("error unmarshalling response JSON: %w", err)
	}
	return response, nil
}

// --- Upload Endpoint --- END ---

// --- Recipe Endpoints --- START ---

// GenerateRecipe submits the sparse generation request. Failure payloads are
// normalized into a StatusError message.
func (c *Client) GenerateRecipe(ctx context.Context, request models.GenerationRequest) (models.GeneratedRecipe, error) {
	var recipe models.GeneratedRecipe
	err := c.sendJSON(ctx, http.MethodPost, "/recipes/generate", request, &recipe)
	return recipe, err
}

// GetRecipe fetches a single generated recipe by id.
func (c *Client) GetRecipe(ctx context.Context, id string) (models.GeneratedRecipe, error) {
	var recipe models.GeneratedRecipe
	err := c.getJSON(ctx, "/recipes/generated/"+url.PathEscape(id), nil, &recipe)
	return recipe, err
}

func pageQuery(page, pageSize int) url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	values.Set("page_size", strconv.Itoa(pageSize))
	return values
}

// RecipeHistory fetches one page of the user's generation history.
func (c *Client) RecipeHistory(ctx context.Context, page, pageSize int) (models.RecipeHistoryResponse, error) {
	var response models.RecipeHistoryResponse
	err := c.getJSON(ctx, "/recipes/history", pageQuery(page, pageSize), &response)
	return response, err
}

// FavoriteRecipes fetches one page of the user's favorites.
func (c *Client) FavoriteRecipes(ctx context.Context, page, pageSize int) (models.RecipeHistoryResponse, error) {
	var response models.RecipeHistoryResponse
	err := c.getJSON(ctx, "/recipes/favorites", pageQuery(page, pageSize), &response)
	return response, err
}

// ToggleFavorite flips the favorite flag server-side. The server owns the
// resulting state; callers mirror it locally only after this succeeds.
func (c *Client) ToggleFavorite(ctx context.Context, id string) error {
	var msg models.MessageResponse
	return c.sendJSON(ctx, http.MethodPut, "/recipes/generated/"+url.PathEscape(id)+"/favorite", nil, &msg)
}

// --- Recipe Endpoints --- END ---
