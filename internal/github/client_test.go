package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientAddsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient("secret-token", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	req, err := client.Client.NewRequest("GET", "rate_limit", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if _, err := client.Client.Do(context.Background(), req, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("expected bearer token header, got %q", gotAuth)
	}
}

func TestNewClientEmptyTokenSkipsAuth(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient("", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.HTTP.Get(server.URL); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no auth header, got %q", gotAuth)
	}
}

func TestNewClientBaseURLGetsTrailingSlash(t *testing.T) {
	client, err := NewClient("tok", WithBaseURL("http://127.0.0.1:9/api/v3"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := client.Client.BaseURL.String(); got != "http://127.0.0.1:9/api/v3/" {
		t.Fatalf("expected trailing slash, got %q", got)
	}
}

func TestNewClientRejectsInvalidBaseURL(t *testing.T) {
	if _, err := NewClient("tok", WithBaseURL("http://bad url with spaces")); err == nil {
		t.Fatal("expected error for invalid base URL")
	}
}
