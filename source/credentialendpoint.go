package source

import (
	"encoding/json"
	"net/http"
	"net/url"

	interrors "github.com/jrsteele09/go-managed-identity/internal/errors"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-managed-identity/credential"
	"github.com/jrsteele09/go-managed-identity/popkey"
	"github.com/pkg/errors"
)

const (
	credentialDefaultEndpoint = "http://169.254.169.254/metadata/identity/credential"
	credentialAPIVersion      = "1.0"
)

// CredentialEndpoint acquires certificate-bound credentials. The request
// carries the proof-of-possession key as a JWK confirmation claim and the
// response names the token field "credential" instead of "access_token".
// This is the one cache-eligible variant: the endpoint is rate-limited and
// its responses are served through the credential response cache.
type CredentialEndpoint struct {
	endpoint string
	selector credential.Selector
	key      *popkey.Key
}

// credentialRequestBody is the fixed JSON shape of the endpoint's POST body.
type credentialRequestBody struct {
	Cnf      confirmationClaim `json:"cnf"`
	LatchKey bool              `json:"latch_key"`
}

type confirmationClaim struct {
	JWK json.RawMessage `json:"jwk"`
}

// credentialSuccessBody is the endpoint's success wire shape.
type credentialSuccessBody struct {
	Credential string                 `json:"credential"`
	ExpiresOn  credential.UnixSeconds `json:"expires_on"`
	ExpiresIn  credential.UnixSeconds `json:"expires_in"`
	TokenType  string                 `json:"token_type"`
	Resource   string                 `json:"resource"`
	ClientID   string                 `json:"client_id"`
}

// NewCredentialEndpoint creates the certificate-bound source. An empty
// endpoint selects the well-known link-local address.
func NewCredentialEndpoint(endpoint string, selector credential.Selector, key *popkey.Key) (*CredentialEndpoint, error) {
	if key == nil {
		return nil, errors.Wrap(interrors.ErrMissingKey, "[NewCredentialEndpoint]")
	}
	if endpoint == "" {
		endpoint = credentialDefaultEndpoint
	}
	return &CredentialEndpoint{endpoint: endpoint, selector: selector, key: key}, nil
}

func (s *CredentialEndpoint) Kind() Kind { return KindCredentialEndpoint }

// CacheKey derives the response-cache key from the identity selector.
func (s *CredentialEndpoint) CacheKey() string {
	return s.selector.CacheKey()
}

func (s *CredentialEndpoint) BuildRequest(resource string) (*credential.Request, error) {
	if resource == "" {
		return nil, errors.Wrap(interrors.ErrEmptyResource, "[CredentialEndpoint.BuildRequest]")
	}
	if err := s.selector.Validate(); err != nil {
		return nil, errors.Wrap(err, "[CredentialEndpoint.BuildRequest]")
	}

	jwkJSON, err := s.key.ConfirmationJWK()
	if err != nil {
		return nil, errors.Wrap(err, "[CredentialEndpoint.BuildRequest]")
	}
	body, err := json.Marshal(credentialRequestBody{
		Cnf:      confirmationClaim{JWK: jwkJSON},
		LatchKey: false,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[CredentialEndpoint.BuildRequest] marshal body")
	}

	query := url.Values{}
	query.Set("cred-api-version", credentialAPIVersion)
	query.Set("resource", resource)
	switch {
	case s.selector.ClientID != "":
		query.Set("client_id", s.selector.ClientID)
	case s.selector.ResourceID != "":
		query.Set("mi_res_id", s.selector.ResourceID)
	case s.selector.ObjectID != "":
		query.Set("object_id", s.selector.ObjectID)
	}

	header := http.Header{}
	header.Set("Metadata", "true")
	header.Set("Content-Type", "application/json")
	header.Set("x-ms-client-request-id", uuid.New().String())

	return &credential.Request{
		Method:   http.MethodPost,
		Endpoint: s.endpoint,
		Query:    query,
		Header:   header,
		BodyJSON: body,
	}, nil
}

// DecodeSuccess remaps the endpoint's "credential" field onto the common
// payload shape before validation.
func (s *CredentialEndpoint) DecodeSuccess(body []byte) (*credential.SuccessPayload, error) {
	var wire credentialSuccessBody
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, errors.Wrap(err, "[CredentialEndpoint.DecodeSuccess]")
	}
	tokenType := wire.TokenType
	if tokenType == "" {
		tokenType = "mtls_pop"
	}
	return &credential.SuccessPayload{
		AccessToken: wire.Credential,
		ExpiresOn:   wire.ExpiresOn,
		ExpiresIn:   wire.ExpiresIn,
		TokenType:   tokenType,
		Resource:    wire.Resource,
		ClientID:    wire.ClientID,
	}, nil
}
