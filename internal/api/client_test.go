package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-flavourcraft/internal/models"
)

type fakeTokenProvider struct {
	token       string
	tokenErr    error
	invalidated int
}

func (f *fakeTokenProvider) Token() (string, error) { return f.token, f.tokenErr }

func (f *fakeTokenProvider) Invalidate() error {
	f.invalidated++
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenProvider) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(tokens, srv.Client(), models.Config{BaseUrl: srv.URL})
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	tokens := &fakeTokenProvider{token: "test-token-123"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"id":"u1","username":"cook","email":"cook@example.com"}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, tokens)

	profile, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() returned error: %v", err)
	}
	if gotAuth != "Bearer test-token-123" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer test-token-123")
	}
	if profile.Username != "cook" {
		t.Errorf("profile.Username = %q, want %q", profile.Username, "cook")
	}
}

func TestClientOmitsAuthWithoutToken(t *testing.T) {
	var sawAuthHeader bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, sawAuthHeader = r.Header["Authorization"]
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"access_token":"abc","token_type":"bearer"}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, &fakeTokenProvider{token: ""})

	token, err := client.Login(context.Background(), "cook@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login() returned error: %v", err)
	}
	if sawAuthHeader {
		t.Error("Login request carried an Authorization header, want none")
	}
	if token.AccessToken != "abc" {
		t.Errorf("token.AccessToken = %q, want %q", token.AccessToken, "abc")
	}
}

func TestClientLoginPayload(t *testing.T) {
	var payload map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding login payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"access_token":"abc","token_type":"bearer"}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, nil)

	if _, err := client.Login(context.Background(), "cook@example.com", "hunter2"); err != nil {
		t.Fatalf("Login() returned error: %v", err)
	}
	if payload["email"] != "cook@example.com" || payload["password"] != "hunter2" {
		t.Errorf("login payload = %v, want email and password fields", payload)
	}
}

func TestClientInvalidatesTokenOn401(t *testing.T) {
	tokens := &fakeTokenProvider{token: "stale-token"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, err := w.Write([]byte(`{"detail": "Could not validate credentials"}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, tokens)

	_, err := client.GetRecipe(context.Background(), "r1")
	if err == nil {
		t.Fatal("GetRecipe() with 401 response returned nil error")
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("GetRecipe() error = %v, want ErrUnauthorized", err)
	}
	if err.Error() != "Could not validate credentials" {
		t.Errorf("GetRecipe() error message = %q, want normalized detail", err.Error())
	}
	if tokens.invalidated != 1 {
		t.Errorf("token provider invalidated %d times, want 1", tokens.invalidated)
	}
}

func TestClientUploadBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/images/batch" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		parts := r.MultipartForm.File["files"]
		if len(parts) != 2 {
			t.Fatalf("got %d parts under field %q, want 2", len(parts), "files")
		}
		if parts[0].Filename != "tomato.jpg" || parts[1].Filename != "basil.png" {
			t.Errorf("part filenames = %q, %q, want tomato.jpg, basil.png", parts[0].Filename, parts[1].Filename)
		}
		if ct := parts[0].Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("first part Content-Type = %q, want image/jpeg", ct)
		}
		f, err := parts[0].Open()
		if err != nil {
			t.Fatalf("opening first part: %v", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			t.Fatalf("reading first part: %v", err)
		}
		if string(data) != "jpeg-bytes" {
			t.Errorf("first part body = %q, want %q", string(data), "jpeg-bytes")
		}

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{
			"ingredients": ["tomato", "basil"],
			"image_descriptors": [
				{"url":"https://cdn.example/full1.jpg","thumbnail_url":"https://cdn.example/t1.jpg","medium_url":"https://cdn.example/m1.jpg","public_id":"img1"},
				{"url":"https://cdn.example/full2.png","thumbnail_url":"https://cdn.example/t2.png","medium_url":"https://cdn.example/m2.png","public_id":"img2"}
			]
		}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, &fakeTokenProvider{token: "tok"})

	resp, err := client.UploadBatch(context.Background(), []UploadFile{
		{FileName: "tomato.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("jpeg-bytes")},
		{FileName: "basil.png", ContentType: "image/png", Reader: strings.NewReader("png-bytes")},
	})
	if err != nil {
		t.Fatalf("UploadBatch() returned error: %v", err)
	}
	if len(resp.Ingredients) != 2 || resp.Ingredients[0] != "tomato" {
		t.Errorf("resp.Ingredients = %v, want [tomato basil]", resp.Ingredients)
	}
	if len(resp.ImageDescriptors) != 2 || resp.ImageDescriptors[1].PublicID != "img2" {
		t.Errorf("resp.ImageDescriptors = %v, want descriptors in upload order", resp.ImageDescriptors)
	}
}

func TestClientUploadBatchErrorNotNormalized(t *testing.T) {
	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"detail": "image processing failed"}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, nil)

	_, err := client.UploadBatch(context.Background(), []UploadFile{
		{FileName: "tomato.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("jpeg-bytes")},
	})
	if err == nil {
		t.Fatal("UploadBatch() with 500 response returned nil error")
	}
	if !errors.Is(err, ErrServerError) {
		t.Errorf("UploadBatch() error = %v, want ErrServerError", err)
	}
	// The raw sentinel wrapping, not the extracted detail message
	if err.Error() == "image processing failed" {
		t.Errorf("UploadBatch() error %q was normalized, want sentinel wrapping only", err.Error())
	}
	if requests != 1 {
		t.Errorf("server saw %d upload requests, want 1 (uploads never retry)", requests)
	}
}

func TestClientUploadBatchEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be reached for an empty batch")
	}, nil)

	_, err := client.UploadBatch(context.Background(), nil)
	if !IsValidationError(err) {
		t.Errorf("UploadBatch(nil) error = %v, want ValidationError", err)
	}
}

func TestClientGenerateRecipeSparseRequest(t *testing.T) {
	var raw map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/recipes/generate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decoding generate payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"id":"r1","recipe":{"title":"Tomato Basil Pasta","steps":["boil","toss"],"estimated_time":25,"difficulty":"easy","servings":2},"ingredients_used":["tomato","basil"],"created_at":"2025-05-01T12:00:00Z","is_favorite":false}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, &fakeTokenProvider{token: "tok"})

	recipe, err := client.GenerateRecipe(context.Background(), models.GenerationRequest{
		Ingredients: []string{"tomato", "basil"},
		CookingTime: 25,
	})
	if err != nil {
		t.Fatalf("GenerateRecipe() returned error: %v", err)
	}
	if recipe.ID != "r1" || recipe.Recipe.Title != "Tomato Basil Pasta" {
		t.Errorf("GenerateRecipe() = %+v, want decoded recipe r1", recipe)
	}

	// Optional fields left unset must not appear on the wire at all
	for _, key := range []string{"cuisine_type", "difficulty", "dietary_preferences", "image_urls"} {
		if _, present := raw[key]; present {
			t.Errorf("generate payload contains %q, want it omitted", key)
		}
	}
	if _, present := raw["cooking_time"]; !present {
		t.Error("generate payload missing cooking_time, want it present")
	}
}

func TestClientGenerateRecipeValidationDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		if _, err := w.Write([]byte(`{"detail":[{"loc":["body","ingredients"],"msg":"field required"}]}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, nil)

	_, err := client.GenerateRecipe(context.Background(), models.GenerationRequest{})
	if err == nil {
		t.Fatal("GenerateRecipe() with 422 response returned nil error")
	}
	if err.Error() != "body.ingredients: field required" {
		t.Errorf("GenerateRecipe() error = %q, want %q", err.Error(), "body.ingredients: field required")
	}
}

func TestClientRecipeHistoryPagination(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recipes/history" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("page_size") != "5" {
			t.Errorf("query = %v, want page=2 page_size=5", q)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"recipes":[],"total":12,"page":2,"page_size":5}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, &fakeTokenProvider{token: "tok"})

	resp, err := client.RecipeHistory(context.Background(), 2, 5)
	if err != nil {
		t.Fatalf("RecipeHistory() returned error: %v", err)
	}
	if resp.Total != 12 || resp.Page != 2 {
		t.Errorf("RecipeHistory() = %+v, want total 12 page 2", resp)
	}
}

func TestClientRetriesServerErrorOnGet(t *testing.T) {
	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"recipes":[],"total":0,"page":1,"page_size":10}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, nil)

	resp, err := client.FavoriteRecipes(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("FavoriteRecipes() returned error after retry: %v", err)
	}
	if requests != 2 {
		t.Errorf("server saw %d requests, want 2 (one retry)", requests)
	}
	if resp.Page != 1 {
		t.Errorf("resp.Page = %d, want 1", resp.Page)
	}
}

func TestClientToggleFavoriteNoRetry(t *testing.T) {
	requests := 0
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"detail": "database unavailable"}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, &fakeTokenProvider{token: "tok"})

	err := client.ToggleFavorite(context.Background(), "r42")
	if err == nil {
		t.Fatal("ToggleFavorite() with 500 response returned nil error")
	}
	if !errors.Is(err, ErrServerError) {
		t.Errorf("ToggleFavorite() error = %v, want ErrServerError", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/recipes/generated/r42/favorite" {
		t.Errorf("request = %s %s, want PUT /recipes/generated/r42/favorite", gotMethod, gotPath)
	}
	if requests != 1 {
		t.Errorf("server saw %d requests, want 1 (mutations never retry)", requests)
	}
}

func TestClientNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		if _, err := w.Write([]byte(`{"detail": "Recipe not found"}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}, nil)

	_, err := client.GetRecipe(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRecipe() error = %v, want ErrNotFound", err)
	}
}
