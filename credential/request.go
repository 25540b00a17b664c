package credential

import (
	"net/http"
	"net/url"
)

// Request describes a single outbound request to a managed identity
// endpoint. A source variant builds the request once; it is not modified
// after construction.
type Request struct {
	// Method is http.MethodGet or http.MethodPost.
	Method string

	// Endpoint is the base endpoint URL without a query string.
	Endpoint string

	// Query holds the query parameters appended to Endpoint.
	Query url.Values

	// Header holds the request headers. http.Header keys are canonicalized,
	// so lookups are case-insensitive.
	Header http.Header

	// Form holds form-encoded body parameters. POST only, mutually
	// exclusive with BodyJSON.
	Form url.Values

	// BodyJSON is a raw JSON request body. POST only, mutually exclusive
	// with Form.
	BodyJSON []byte
}

// URL returns the full request URL including the encoded query string.
func (r *Request) URL() string {
	if len(r.Query) == 0 {
		return r.Endpoint
	}
	return r.Endpoint + "?" + r.Query.Encode()
}

// Response is the raw reply from a managed identity endpoint as returned by
// the transport.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
