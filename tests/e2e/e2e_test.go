//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *userResponse `json:"user"`
}

type noteResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    int    `json:"type"`
	UserID  string `json:"user_id"`
}

type noteListResponse struct {
	Data  []noteResponse `json:"data"`
	Count int            `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("NOTEKEEP_BASE_URL", "http://localhost:8080")

	alice := registerAndLogin(t, baseURL, "alice")
	bob := registerAndLogin(t, baseURL, "bob")

	// Alice creates notes; Bob creates one of his own.
	note1 := createNote(t, baseURL, alice.AccessToken, "groceries", "buy milk", 0)
	note2 := createNote(t, baseURL, alice.AccessToken, "alert", "disk almost full", 2)
	bobNote := createNote(t, baseURL, bob.AccessToken, "private", "bob's secret", 1)

	// Alice sees exactly her notes, in insertion order.
	var list noteListResponse
	status := doJSON(t, http.MethodGet, baseURL+"/api/v1/notes", alice.AccessToken, nil, &list)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from list, got %d", status)
	}
	if list.Count != 2 {
		t.Fatalf("expected 2 notes for alice, got %d", list.Count)
	}
	if list.Data[0].ID != note1.ID || list.Data[1].ID != note2.ID {
		t.Fatalf("notes out of insertion order: %s, %s", list.Data[0].ID, list.Data[1].ID)
	}

	// Bob cannot see, modify or delete Alice's note; each attempt reads
	// as if the note does not exist.
	assertNoteNotFound(t, baseURL, bob.AccessToken, http.MethodGet, note1.ID, nil)
	assertNoteNotFound(t, baseURL, bob.AccessToken, http.MethodPatch, note1.ID, map[string]any{"title": "stolen"})
	assertNoteNotFound(t, baseURL, bob.AccessToken, http.MethodDelete, note1.ID, nil)

	// The failed attempts left Alice's note untouched.
	var fetched noteResponse
	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/notes/"+note1.ID, alice.AccessToken, nil, &fetched)
	if status != http.StatusOK {
		t.Fatalf("expected 200 fetching own note, got %d", status)
	}
	if fetched.Title != "groceries" {
		t.Fatalf("note title changed: %s", fetched.Title)
	}

	// Search is scoped to the caller.
	var found noteListResponse
	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/notes/search?message=disk", alice.AccessToken, nil, &found)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from search, got %d", status)
	}
	if found.Count != 1 || found.Data[0].ID != note2.ID {
		t.Fatalf("unexpected search result: %+v", found)
	}

	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/notes/search?message=secret", alice.AccessToken, nil, &found)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from search, got %d", status)
	}
	if found.Count != 0 {
		t.Fatalf("search leaked another user's notes: %+v", found)
	}

	// Update own note.
	var updated noteResponse
	status = doJSON(t, http.MethodPatch, baseURL+"/api/v1/notes/"+note2.ID, alice.AccessToken,
		map[string]any{"message": "disk full", "type": 1}, &updated)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from update, got %d", status)
	}
	if updated.Message != "disk full" || updated.Type != 1 {
		t.Fatalf("update not applied: %+v", updated)
	}

	// Refresh token rotation: old refresh token stops working.
	var refreshed tokenResponse
	status = doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/refresh", "",
		map[string]any{"refresh_token": alice.RefreshToken}, &refreshed)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from refresh, got %d", status)
	}

	var errResp errorResponse
	status = doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/refresh", "",
		map[string]any{"refresh_token": alice.RefreshToken}, &errResp)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 reusing rotated refresh token, got %d", status)
	}

	// Delete own note.
	status = doJSON(t, http.MethodDelete, baseURL+"/api/v1/notes/"+note1.ID, alice.AccessToken, nil, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 from delete, got %d", status)
	}
	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/notes/"+note1.ID, alice.AccessToken, nil, &errResp)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}

	// Bob's note survived all of the above.
	var bobFetched noteResponse
	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/notes/"+bobNote.ID, bob.AccessToken, nil, &bobFetched)
	if status != http.StatusOK {
		t.Fatalf("expected 200 fetching bob's note, got %d", status)
	}

	// Profile endpoint reflects the authenticated user.
	var profile userResponse
	status = doJSON(t, http.MethodGet, baseURL+"/api/v1/users/me", bob.AccessToken, nil, &profile)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from profile, got %d", status)
	}
	if profile.ID != bob.User.ID {
		t.Fatalf("profile returned wrong user: %s", profile.ID)
	}
}

func registerAndLogin(t *testing.T, baseURL, name string) tokenResponse {
	t.Helper()

	email := fmt.Sprintf("%s-%d@example.com", name, time.Now().UnixNano())
	password := "e2e-password-123"

	var user userResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/register", "",
		map[string]any{"email": email, "name": name, "password": password}, &user)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from register, got %d", status)
	}

	var tokens tokenResponse
	status = doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/login", "",
		map[string]any{"email": email, "password": password}, &tokens)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d", status)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("login response missing tokens")
	}
	return tokens
}

func createNote(t *testing.T, baseURL, token, title, message string, noteType int) noteResponse {
	t.Helper()

	var resp noteResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/v1/notes", token,
		map[string]any{"title": title, "message": message, "type": noteType}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from note create, got %d", status)
	}
	if resp.ID == "" {
		t.Fatalf("note create response missing id")
	}
	return resp
}

func assertNoteNotFound(t *testing.T, baseURL, token, method, noteID string, payload map[string]any) {
	t.Helper()

	var errResp errorResponse
	status := doJSON(t, method, baseURL+"/api/v1/notes/"+noteID, token, payload, &errResp)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for %s on foreign note, got %d", method, status)
	}
	if errResp.Code != "NOTE_NOT_FOUND" {
		t.Fatalf("expected NOTE_NOT_FOUND code, got %s", errResp.Code)
	}
}

func doJSON(t *testing.T, method, url, token string, payload map[string]any, out any) int {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}

	return resp.StatusCode
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
