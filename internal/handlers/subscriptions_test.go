package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSubscribeAndUnsubscribe(t *testing.T) {
	env := newTestEnv()
	aliceID := registerUser(t, env, "alice", "alice@example.com", "supersafe123")
	bobID := registerUser(t, env, "bob", "bob@example.com", "supersafe123")
	alice := loginUser(t, env, "alice", "supersafe123")

	req := authedRequest(http.MethodPost, "/api/v1/subscriptions/bob", alice.AccessToken, nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("subscribe: expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var sub subscriptionResponse
	decodeData(t, decodeEnvelope(t, rec), &sub)
	if sub.SubscriberID != aliceID || sub.ChannelID != bobID {
		t.Fatalf("unexpected subscription %+v", sub)
	}

	// Duplicate subscription conflicts.
	req = authedRequest(http.MethodPost, "/api/v1/subscriptions/bob", alice.AccessToken, nil)
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate subscribe: expected 409 got %d", rec.Code)
	}

	req = authedRequest(http.MethodDelete, "/api/v1/subscriptions/bob", alice.AccessToken, nil)
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unsubscribe: expected 200 got %d", rec.Code)
	}

	if _, err := env.subscriptions.FindBySubscriberAndChannel(context.Background(), aliceID, bobID); err == nil {
		t.Fatal("expected subscription to be removed")
	}
}

func TestChannelProfile(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "alice", "alice@example.com", "supersafe123")
	bobID := registerUser(t, env, "bob", "bob@example.com", "supersafe123")
	registerUser(t, env, "carol", "carol@example.com", "supersafe123")
	alice := loginUser(t, env, "alice", "supersafe123")
	bob := loginUser(t, env, "bob", "supersafe123")
	carol := loginUser(t, env, "carol", "supersafe123")

	// alice and carol subscribe to bob; bob subscribes to carol.
	for _, sub := range []struct {
		token   string
		channel string
	}{
		{alice.AccessToken, "bob"},
		{carol.AccessToken, "bob"},
		{bob.AccessToken, "carol"},
	} {
		req := authedRequest(http.MethodPost, "/api/v1/subscriptions/"+sub.channel, sub.token, nil)
		rec := httptest.NewRecorder()
		env.mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("subscribe to %s: expected 201 got %d: %s", sub.channel, rec.Code, rec.Body.String())
		}
	}

	req := authedRequest(http.MethodGet, "/api/v1/channels/bob", alice.AccessToken, nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var profile channelProfileResponse
	decodeData(t, decodeEnvelope(t, rec), &profile)
	if profile.ID != bobID || profile.Username != "bob" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if profile.Subscribers != 2 || profile.SubscribedTo != 1 {
		t.Fatalf("unexpected counts %+v", profile)
	}
	if !profile.IsSubscribed {
		t.Fatal("expected alice to show as subscribed")
	}

	// After carol unsubscribes the count drops and her profile view flips.
	req = authedRequest(http.MethodDelete, "/api/v1/subscriptions/bob", carol.AccessToken, nil)
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unsubscribe: expected 200 got %d", rec.Code)
	}

	req = authedRequest(http.MethodGet, "/api/v1/channels/bob", carol.AccessToken, nil)
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	decodeData(t, decodeEnvelope(t, rec), &profile)
	if profile.Subscribers != 1 || profile.IsSubscribed {
		t.Fatalf("unexpected profile after unsubscribe %+v", profile)
	}
}

func TestChannelProfileUnknownChannel(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "alice", "alice@example.com", "supersafe123")
	alice := loginUser(t, env, "alice", "supersafe123")

	req := authedRequest(http.MethodGet, "/api/v1/channels/nobody", alice.AccessToken, nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestChannelProfileRequiresAuth(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "alice", "alice@example.com", "supersafe123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/alice", nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestSubscribeSelfRejected(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "alice", "alice@example.com", "supersafe123")
	alice := loginUser(t, env, "alice", "supersafe123")

	req := authedRequest(http.MethodPost, "/api/v1/subscriptions/alice", alice.AccessToken, nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestSubscribeUnknownChannel(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "alice", "alice@example.com", "supersafe123")
	alice := loginUser(t, env, "alice", "supersafe123")

	req := authedRequest(http.MethodPost, "/api/v1/subscriptions/nobody", alice.AccessToken, nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestUnsubscribeWithoutSubscription(t *testing.T) {
	env := newTestEnv()
	registerUser(t, env, "alice", "alice@example.com", "supersafe123")
	registerUser(t, env, "bob", "bob@example.com", "supersafe123")
	alice := loginUser(t, env, "alice", "supersafe123")

	req := authedRequest(http.MethodDelete, "/api/v1/subscriptions/bob", alice.AccessToken, nil)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}
