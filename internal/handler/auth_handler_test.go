package handler_test

import (
	"net/http"
	"testing"

	"github.com/landingkit/internal/db"
)

func TestAPIAuthEndpoints(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	w := env.client.json(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    testAdminEmail,
		"password": "nope",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if body := decodeJSON[map[string]string](t, w); body["error"] != "Invalid email or password" {
		t.Fatalf("unexpected error body %v", body)
	}

	if w := env.client.json(http.MethodPost, "/api/auth/login", "not json"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}

	env.client.login()

	w = env.client.get("/api/auth/me")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	me := decodeJSON[struct {
		User struct {
			UserID string `json:"userId"`
			Email  string `json:"email"`
			Source string `json:"source"`
		} `json:"user"`
	}](t, w)
	if me.User.Email != testAdminEmail || me.User.Source != "session" || me.User.UserID == "" {
		t.Fatalf("unexpected identity %+v", me.User)
	}

	if w := env.client.json(http.MethodPost, "/api/auth/logout", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 on logout, got %d", w.Code)
	}
	if w := env.client.get("/api/auth/me"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}

func TestSessionOfDeletedAdminIsRejected(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.client.login()

	if w := env.client.get("/api/auth/me"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 before delete, got %d", w.Code)
	}

	if err := env.db.Where("email = ?", testAdminEmail).Delete(&db.User{}).Error; err != nil {
		t.Fatalf("delete admin: %v", err)
	}

	if w := env.client.get("/api/auth/me"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted admin, got %d", w.Code)
	}
	if w := env.client.get("/admin"); w.Code != http.StatusFound {
		t.Fatalf("expected redirect to login, got %d", w.Code)
	}
}
