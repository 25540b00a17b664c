package source

import (
	"net/http"
	"net/url"

	interrors "github.com/jrsteele09/go-managed-identity/internal/errors"

	"github.com/jrsteele09/go-managed-identity/credential"
	"github.com/pkg/errors"
)

const appServiceAPIVersion = "2019-08-01"

// AppService acquires credentials from the app-hosting identity sidecar.
// The sidecar authenticates callers with a shared secret header instead of
// the metadata flag.
type AppService struct {
	endpoint string
	secret   string
	selector credential.Selector
}

// NewAppService creates the sidecar source. Endpoint and secret come from
// the hosting environment (IDENTITY_ENDPOINT / IDENTITY_HEADER).
func NewAppService(endpoint, secret string, selector credential.Selector) *AppService {
	return &AppService{endpoint: endpoint, secret: secret, selector: selector}
}

func (s *AppService) Kind() Kind { return KindAppService }

func (s *AppService) BuildRequest(resource string) (*credential.Request, error) {
	if resource == "" {
		return nil, errors.Wrap(interrors.ErrEmptyResource, "[AppService.BuildRequest]")
	}
	if s.endpoint == "" {
		return nil, errors.Wrap(interrors.ErrMissingEndpoint, "[AppService.BuildRequest]")
	}
	if err := s.selector.Validate(); err != nil {
		return nil, errors.Wrap(err, "[AppService.BuildRequest]")
	}

	query := url.Values{}
	query.Set("api-version", appServiceAPIVersion)
	query.Set("resource", resource)
	switch {
	case s.selector.ClientID != "":
		query.Set("client_id", s.selector.ClientID)
	case s.selector.ResourceID != "":
		query.Set("mi_res_id", s.selector.ResourceID)
	case s.selector.ObjectID != "":
		query.Set("principal_id", s.selector.ObjectID)
	}

	header := http.Header{}
	header.Set("X-IDENTITY-HEADER", s.secret)

	return &credential.Request{
		Method:   http.MethodGet,
		Endpoint: s.endpoint,
		Query:    query,
		Header:   header,
	}, nil
}
