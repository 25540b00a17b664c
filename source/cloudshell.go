package source

import (
	"net/http"
	"net/url"

	interrors "github.com/jrsteele09/go-managed-identity/internal/errors"

	"github.com/jrsteele09/go-managed-identity/credential"
	"github.com/pkg/errors"
)

// CloudShell acquires credentials from the shell-hosted broker endpoint via
// a form-encoded POST. Only the system-assigned identity is available in
// this environment.
type CloudShell struct {
	endpoint string
	selector credential.Selector
}

// NewCloudShell creates the shell broker source. The endpoint comes from the
// hosting environment (MSI_ENDPOINT).
func NewCloudShell(endpoint string, selector credential.Selector) *CloudShell {
	return &CloudShell{endpoint: endpoint, selector: selector}
}

func (s *CloudShell) Kind() Kind { return KindCloudShell }

func (s *CloudShell) BuildRequest(resource string) (*credential.Request, error) {
	if resource == "" {
		return nil, errors.Wrap(interrors.ErrEmptyResource, "[CloudShell.BuildRequest]")
	}
	if s.endpoint == "" {
		return nil, errors.Wrap(interrors.ErrMissingEndpoint, "[CloudShell.BuildRequest]")
	}
	if !s.selector.IsSystemAssigned() {
		return nil, errors.Wrap(interrors.ErrUserAssignedNotSupported, "[CloudShell.BuildRequest]")
	}

	header := http.Header{}
	header.Set("Metadata", "true")

	form := url.Values{}
	form.Set("resource", resource)

	return &credential.Request{
		Method:   http.MethodPost,
		Endpoint: s.endpoint,
		Header:   header,
		Form:     form,
	}, nil
}
