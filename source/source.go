// Package source implements the managed identity source variants and the
// pipeline that drives a uniform authenticate, send, classify sequence over
// any of them. Each variant only knows how to build a request for its
// hosting environment and, where the wire shape differs, how to decode that
// environment's success payload.
package source

import (
	"github.com/jrsteele09/go-managed-identity/credential"
)

// Kind tags a concrete source variant. The set is closed; the active variant
// is resolved once at configuration time, not via open-ended registration.
type Kind string

const (
	KindIMDS               Kind = "IMDS"
	KindAppService         Kind = "AppService"
	KindCloudShell         Kind = "CloudShell"
	KindServiceFabric      Kind = "ServiceFabric"
	KindCredentialEndpoint Kind = "CredentialEndpoint"
)

// Source is the strategy contract a hosting-environment variant implements.
type Source interface {
	Kind() Kind
	// BuildRequest constructs the outbound request for a resource. Errors
	// are contract violations (empty resource, malformed selector), not
	// service failures.
	BuildRequest(resource string) (*credential.Request, error)
}

// successDecoder is an optional hook for variants whose success payload
// deviates from the common shape.
type successDecoder interface {
	DecodeSuccess(body []byte) (*credential.SuccessPayload, error)
}

// responseCacheable marks the variant whose responses go through the
// credential response cache. Implementing CacheKey makes a source
// cache-eligible.
type responseCacheable interface {
	CacheKey() string
}
