package identity

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenSource adapts the client to golang.org/x/oauth2 so acquired
// credentials plug into oauth2-aware HTTP clients. The returned source
// reuses a token until it expires, then acquires a fresh one.
func (c *Client) TokenSource(ctx context.Context, resource string) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &tokenSource{ctx: ctx, client: c, resource: resource})
}

type tokenSource struct {
	ctx      context.Context
	client   *Client
	resource string
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	result, err := ts.client.AcquireToken(ts.ctx, ts.resource)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: result.Token,
		TokenType:   result.TokenType,
		Expiry:      result.ExpiresOn,
	}, nil
}
