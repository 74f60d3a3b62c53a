package github

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrBadCredentials indicates the caller-supplied token was rejected (401)
// while retrieving the entity list. It aborts the whole run.
var ErrBadCredentials = errors.New("Invalid GitHub token.")

// OrgNotFoundError indicates the target organization does not exist (404).
type OrgNotFoundError struct {
	Org string
}

func (e *OrgNotFoundError) Error() string {
	return fmt.Sprintf("Organization '%s' not found.", e.Org)
}

// StatusError is any other non-200 terminal status on an entity-list page.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GitHub API error: %s", e.Body)
}

// ClassifyListError maps an entity-list fetch failure to the typed whole-run
// failures above. The response may be nil (transport error), in which case the
// original error is returned unchanged.
func ClassifyListError(org string, resp *http.Response, err error) error {
	if resp == nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrBadCredentials
	case http.StatusNotFound:
		return &OrgNotFoundError{Org: org}
	default:
		return &StatusError{Code: resp.StatusCode, Body: err.Error()}
	}
}

// HTTPStatus returns the HTTP status a typed failure should surface as, and
// whether err is one of the typed whole-run failures.
func HTTPStatus(err error) (int, bool) {
	if errors.Is(err, ErrBadCredentials) {
		return http.StatusUnauthorized, true
	}
	var notFound *OrgNotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, true
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Code, true
	}
	return 0, false
}
