package source

import (
	"net/http"
	"net/url"

	interrors "github.com/jrsteele09/go-managed-identity/internal/errors"

	"github.com/jrsteele09/go-managed-identity/credential"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const serviceFabricAPIVersion = "2019-07-01-preview"

// ServiceFabric acquires credentials from the cluster-local identity
// endpoint. The identity in effect is fixed by the cluster configuration, so
// a user-assigned selector on the request is ignored with a warning.
type ServiceFabric struct {
	endpoint string
	secret   string
	selector credential.Selector
}

// NewServiceFabric creates the cluster source. Endpoint and secret come from
// the hosting environment (IDENTITY_ENDPOINT / IDENTITY_HEADER).
func NewServiceFabric(endpoint, secret string, selector credential.Selector) *ServiceFabric {
	return &ServiceFabric{endpoint: endpoint, secret: secret, selector: selector}
}

func (s *ServiceFabric) Kind() Kind { return KindServiceFabric }

func (s *ServiceFabric) BuildRequest(resource string) (*credential.Request, error) {
	if resource == "" {
		return nil, errors.Wrap(interrors.ErrEmptyResource, "[ServiceFabric.BuildRequest]")
	}
	if s.endpoint == "" {
		return nil, errors.Wrap(interrors.ErrMissingEndpoint, "[ServiceFabric.BuildRequest]")
	}
	if !s.selector.IsSystemAssigned() {
		log.Warn().Msg("service fabric ignores user-assigned selectors; the cluster configuration determines the identity")
	}

	query := url.Values{}
	query.Set("api-version", serviceFabricAPIVersion)
	query.Set("resource", resource)

	header := http.Header{}
	header.Set("secret", s.secret)

	return &credential.Request{
		Method:   http.MethodGet,
		Endpoint: s.endpoint,
		Query:    query,
		Header:   header,
	}, nil
}
