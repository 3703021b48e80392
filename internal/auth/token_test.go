package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var secret = []byte("test-secret")

func TestSignVerifyRoundtrip(t *testing.T) {
	token := Sign(secret, "user-1", time.Hour)
	id, err := Verify(secret, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != "user-1" {
		t.Errorf("user id = %s", id.UserID)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	token := Sign(secret, "user-1", -time.Minute)
	if _, err := Verify(secret, token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestVerifyRejectsTampered(t *testing.T) {
	token := Sign(secret, "user-1", time.Hour)
	tampered := token[:len(token)-2] + "xx"
	if _, err := Verify(secret, tampered); err == nil {
		t.Fatal("tampered token must be rejected")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token := Sign([]byte("other"), "user-1", time.Hour)
	if _, err := Verify(secret, token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	for _, tok := range []string{"", "abc", "a.b", "!!.??"} {
		if _, err := Verify(secret, tok); err == nil {
			t.Errorf("Verify(%q) accepted garbage", tok)
		}
	}
}

func TestMiddleware(t *testing.T) {
	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := FromContext(r.Context())
		gotID = id.UserID
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(secret)(next)

	// no token
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: code = %d, want 401", rec.Code)
	}

	// bad token
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: code = %d, want 401", rec.Code)
	}

	// valid token
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+Sign(secret, "user-7", time.Hour))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	if gotID != "user-7" {
		t.Errorf("identity = %s, want user-7", gotID)
	}
}
