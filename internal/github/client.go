// Package github constructs GitHub REST clients whose transport reacts to the
// remote's rate-limit backpressure, and provides the shared pagination and
// error classification used by every audit.
package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v81/github"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"ghaudit/internal/logging"
)

// Client bundles the typed go-github client with the underlying http.Client so
// raw requests can share the same transport chain.
type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	baseURL   string
	transport http.RoundTripper
	logger    *zerolog.Logger
}

type Option func(*options)

// WithBaseURL points the client at an alternate API root (tests, GHE).
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithTransport replaces the base transport beneath the retry layer.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithLogger overrides the component logger used by the retry layer.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &l
	}
}

// NewClient builds a client authenticated with the caller's token.
//
// The transport chain is oauth2 (bearer token) over the rate-limit retry
// layer over the base transport, so every call issued through either the
// typed client or Client.HTTP gets both authentication and 403 backoff.
// An empty token yields an unauthenticated client for low-rate use.
func NewClient(token string, opts ...Option) (*Client, error) {
	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	logger := logging.Component("github")
	if o.logger != nil {
		logger = *o.logger
	}

	var transport http.RoundTripper = newRetryTransport(o.transport, logger)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	hc := &http.Client{Transport: transport}

	gh := github.NewClient(hc)
	if o.baseURL != "" {
		base := o.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github client: invalid base URL %q: %w", o.baseURL, err)
		}
		gh.BaseURL = u
	}

	return &Client{Client: gh, HTTP: hc}, nil
}
