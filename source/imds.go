package source

import (
	"net/http"
	"net/url"

	interrors "github.com/jrsteele09/go-managed-identity/internal/errors"

	"github.com/jrsteele09/go-managed-identity/credential"
	"github.com/pkg/errors"
)

const (
	imdsDefaultEndpoint = "http://169.254.169.254/metadata/identity/oauth2/token"
	imdsAPIVersion      = "2018-02-01"
)

// IMDS acquires credentials from the in-host instance metadata service.
type IMDS struct {
	endpoint string
	selector credential.Selector
}

// NewIMDS creates the metadata-service source. An empty endpoint selects the
// well-known link-local address.
func NewIMDS(endpoint string, selector credential.Selector) *IMDS {
	if endpoint == "" {
		endpoint = imdsDefaultEndpoint
	}
	return &IMDS{endpoint: endpoint, selector: selector}
}

func (s *IMDS) Kind() Kind { return KindIMDS }

func (s *IMDS) BuildRequest(resource string) (*credential.Request, error) {
	if resource == "" {
		return nil, errors.Wrap(interrors.ErrEmptyResource, "[IMDS.BuildRequest]")
	}
	if err := s.selector.Validate(); err != nil {
		return nil, errors.Wrap(err, "[IMDS.BuildRequest]")
	}

	query := url.Values{}
	query.Set("api-version", imdsAPIVersion)
	query.Set("resource", resource)
	switch {
	case s.selector.ClientID != "":
		query.Set("client_id", s.selector.ClientID)
	case s.selector.ResourceID != "":
		query.Set("msi_res_id", s.selector.ResourceID)
	case s.selector.ObjectID != "":
		query.Set("object_id", s.selector.ObjectID)
	}

	header := http.Header{}
	header.Set("Metadata", "true")

	return &credential.Request{
		Method:   http.MethodGet,
		Endpoint: s.endpoint,
		Query:    query,
		Header:   header,
	}, nil
}
