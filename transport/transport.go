// Package transport dispatches credential requests over HTTP. Connectivity
// failures are surfaced as errors, distinct from application-level responses
// which are always returned with their status code and body.
package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-managed-identity/credential"
)

// maxResponseBodySize limits response body reads to prevent OOM from large
// or malicious responses
const maxResponseBodySize = 1 << 20 // 1MB

// Sender dispatches a credential request and returns the raw response.
// Implementations must honor context cancellation and must return an error
// only when no application-level response was received.
type Sender interface {
	Send(ctx context.Context, req *credential.Request) (*credential.Response, error)
}

// HTTPSender is the net/http backed Sender.
type HTTPSender struct {
	client *http.Client
}

// HTTPSenderOption defines a function type to modify the HTTPSender instance.
type HTTPSenderOption func(*HTTPSender)

// WithHTTPClient sets the underlying http.Client (primarily for mutual-TLS
// configurations and testing).
func WithHTTPClient(client *http.Client) HTTPSenderOption {
	return func(s *HTTPSender) {
		s.client = client
	}
}

// NewHTTPSender creates an HTTPSender with a default client.
func NewHTTPSender(options ...HTTPSenderOption) *HTTPSender {
	sender := &HTTPSender{
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(sender)
	}
	return sender
}

// Send dispatches the request. Form bodies are sent urlencoded, JSON bodies
// as-is; the Content-Type header is only set when the request did not carry
// one already.
func (s *HTTPSender) Send(ctx context.Context, req *credential.Request) (*credential.Response, error) {
	var body io.Reader
	contentType := ""
	switch {
	case len(req.Form) > 0:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case len(req.BodyJSON) > 0:
		body = bytes.NewReader(req.BodyJSON)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL(), body)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPSender.Send] http.NewRequestWithContext")
	}
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPSender.Send] read response body")
	}

	log.Debug().
		Str("method", req.Method).
		Str("endpoint", req.Endpoint).
		Int("status", httpResp.StatusCode).
		Msg("credential request completed")

	return &credential.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, nil
}
