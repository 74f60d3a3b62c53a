package audit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gh "ghaudit/internal/github"
)

// newTestClient serves the given mux as the GitHub API and returns a client
// rebased onto it.
func newTestClient(t *testing.T, mux *http.ServeMux) *gh.Client {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := gh.NewClient("test-token", gh.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

// pageOne serves body on the first page and an empty list on every later
// page, terminating pagination.
func pageOne(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "" || page == "1" {
			fmt.Fprint(w, body)
			return
		}
		fmt.Fprint(w, `[]`)
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, `{"message":"Not Found"}`)
}
