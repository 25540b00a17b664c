// Package identity exposes the acquisition entry point for managed identity
// credentials. A Client binds one source variant, one transport sender and
// one authentication scheme for its lifetime; everything per-call flows
// through AcquireToken.
package identity

import (
	"context"
	"time"

	"github.com/jrsteele09/go-managed-identity/authscheme"
	"github.com/jrsteele09/go-managed-identity/credential"
	"github.com/jrsteele09/go-managed-identity/source"
	"github.com/jrsteele09/go-managed-identity/transport"
	"github.com/pkg/errors"
)

// AuthResult is the validated credential handed to the application layer.
type AuthResult struct {
	// Token is the raw credential value.
	Token string
	// TokenType is the declared access-token type of the configured scheme.
	TokenType string
	// KeyID identifies the binding key for proof-of-possession schemes;
	// empty for bearer credentials.
	KeyID string
	// ExpiresOn is the absolute expiry instant.
	ExpiresOn time.Time
	// AuthorizationHeader is the ready-to-use Authorization header value.
	AuthorizationHeader string
}

// Client acquires credentials from a single managed identity source.
type Client struct {
	source   source.Source
	pipeline *source.Pipeline
	scheme   authscheme.Scheme
	nowTime  func() time.Time
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithScheme sets the authentication scheme describing how the acquired
// credential is presented. Defaults to plain bearer.
func WithScheme(scheme authscheme.Scheme) ClientOption {
	return func(c *Client) {
		c.scheme = scheme
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// NewClient initializes a Client with required dependencies. Optional
// configuration can be provided via options (e.g., WithScheme for
// proof-of-possession results).
func NewClient(src source.Source, sender transport.Sender, options ...ClientOption) (*Client, error) {
	if src == nil {
		return nil, errors.New("[NewClient] source is required")
	}
	if sender == nil {
		return nil, errors.New("[NewClient] sender is required")
	}

	pipeline, err := source.NewPipeline(sender)
	if err != nil {
		return nil, errors.Wrap(err, "[NewClient]")
	}

	client := &Client{
		source:   src,
		pipeline: pipeline,
		scheme:   authscheme.Bearer{},
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

type acquireOptions struct {
	forceRefresh bool
	claims       string
}

// AcquireOption defines a function type to modify a single acquisition.
type AcquireOption func(*acquireOptions)

// WithForceRefresh bypasses any cached credential for this call.
func WithForceRefresh() AcquireOption {
	return func(o *acquireOptions) {
		o.forceRefresh = true
	}
}

// WithClaims passes an opaque claims challenge through. The claims are not
// interpreted here; their presence forces a cache refresh, since a cached
// credential cannot be checked against the challenge locally.
func WithClaims(claims string) AcquireOption {
	return func(o *acquireOptions) {
		o.claims = claims
	}
}

// AcquireToken acquires a validated credential for resource. Failures are
// typed: source.IsCancelled, source.IsUnreachableNetwork and
// source.IsRequestFailed distinguish them.
func (c *Client) AcquireToken(ctx context.Context, resource string, options ...AcquireOption) (*AuthResult, error) {
	opts := acquireOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	forceRefresh := opts.forceRefresh || opts.claims != ""

	payload, err := c.pipeline.Authenticate(ctx, c.source, resource, forceRefresh)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Token:               payload.AccessToken,
		TokenType:           c.scheme.TokenType(),
		KeyID:               c.scheme.KeyID(),
		ExpiresOn:           payload.ExpiryTime(c.nowTime()),
		AuthorizationHeader: authscheme.FormatAuthorizationHeader(c.scheme, payload.AccessToken),
	}, nil
}

// Selector re-exported for convenience so callers configuring a client do
// not need to import the credential package for the common case.
type Selector = credential.Selector
