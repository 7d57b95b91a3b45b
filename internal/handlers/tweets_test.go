package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func postTweet(t *testing.T, env *testEnv, token, content string) tweetResponse {
	t.Helper()
	body, _ := json.Marshal(tweetRequest{Content: content})
	req := authedRequest(http.MethodPost, "/api/v1/tweets", token, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("post tweet: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var tweet tweetResponse
	decodeData(t, decodeEnvelope(t, rec), &tweet)
	return tweet
}

func TestTweetCreateAndGet(t *testing.T) {
	env := newTestEnv()
	userID := registerUser(t, env, "alice", "alice@example.com", "supersafe123")
	login := loginUser(t, env, "alice", "supersafe123")

	tweet := postTweet(t, env, login.AccessToken, "hello world")
	if tweet.OwnerID != userID || tweet.Content != "hello world" {
		t.Fatalf("unexpected tweet %+v", tweet)
	}

	// Fetch is public.
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/tweets/%s", tweet.ID), nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get tweet: expected 200 got %d", rec.Code)
	}
}

func TestTweetValidation(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "alice", "alice@example.com", "supersafe123")
	login := loginUser(t, env, "alice", "supersafe123")

	for _, content := range []string{"", "   ", strings.Repeat("x", 281), strings.Repeat("é", 281)} {
		body, _ := json.Marshal(tweetRequest{Content: content})
		req := authedRequest(http.MethodPost, "/api/v1/tweets", login.AccessToken, bytes.NewReader(body))
		rec := httptest.NewRecorder()
		env.mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q-length content, got %d", content, rec.Code)
		}
	}

	// The cap counts characters, not bytes: 280 two-byte runes fit.
	tweet := postTweet(t, env, login.AccessToken, strings.Repeat("é", 280))
	if tweet.Content != strings.Repeat("é", 280) {
		t.Fatalf("unexpected content round trip")
	}
}

func TestTweetUpdateOwnership(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "alice", "alice@example.com", "supersafe123")
	registerUser(t, env, "bob", "bob@example.com", "supersafe123")
	alice := loginUser(t, env, "alice", "supersafe123")
	bob := loginUser(t, env, "bob", "supersafe123")

	tweet := postTweet(t, env, alice.AccessToken, "original")

	body, _ := json.Marshal(tweetRequest{Content: "hijacked"})
	req := authedRequest(http.MethodPatch, fmt.Sprintf("/api/v1/tweets/%s", tweet.ID), bob.AccessToken, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign edit: expected 401 got %d", rec.Code)
	}

	body, _ = json.Marshal(tweetRequest{Content: "edited"})
	req = authedRequest(http.MethodPatch, fmt.Sprintf("/api/v1/tweets/%s", tweet.ID), alice.AccessToken, bytes.NewReader(body))
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner edit: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var updated tweetResponse
	decodeData(t, decodeEnvelope(t, rec), &updated)
	if updated.Content != "edited" {
		t.Fatalf("expected edited content, got %q", updated.Content)
	}
}

func TestTweetDeleteOwnership(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "alice", "alice@example.com", "supersafe123")
	registerUser(t, env, "bob", "bob@example.com", "supersafe123")
	alice := loginUser(t, env, "alice", "supersafe123")
	bob := loginUser(t, env, "bob", "supersafe123")

	tweet := postTweet(t, env, alice.AccessToken, "to delete")

	req := authedRequest(http.MethodDelete, fmt.Sprintf("/api/v1/tweets/%s", tweet.ID), bob.AccessToken, nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign delete: expected 401 got %d", rec.Code)
	}

	req = authedRequest(http.MethodDelete, fmt.Sprintf("/api/v1/tweets/%s", tweet.ID), alice.AccessToken, nil)
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete: expected 200 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/tweets/%s", tweet.ID), nil)
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestTweetMissing(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tweets/missing", nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
