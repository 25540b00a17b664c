package source_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"math/big"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-managed-identity/credential"
	interrors "github.com/jrsteele09/go-managed-identity/internal/errors"
	"github.com/jrsteele09/go-managed-identity/popkey"
	"github.com/jrsteele09/go-managed-identity/source"
	"github.com/stretchr/testify/require"
)

const testResource = "https://vault.example.com"

// newTestPopKey generates a self-signed certificate and wraps it as a
// proof-of-possession key
func newTestPopKey(t *testing.T) *popkey.Key {
	t.Helper()

	private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{SerialNumber: big.NewInt(1)}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, private.Public(), private)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	key, err := popkey.FromCertificate(cert)
	require.NoError(t, err)
	return key
}

// TestIMDS_BuildRequest tests metadata-service request construction
func TestIMDS_BuildRequest(t *testing.T) {
	t.Run("system assigned", func(t *testing.T) {
		src := source.NewIMDS("", credential.Selector{})
		req, err := src.BuildRequest(testResource)
		require.NoError(t, err)
		require.Equal(t, http.MethodGet, req.Method)
		require.Equal(t, "http://169.254.169.254/metadata/identity/oauth2/token", req.Endpoint)
		require.Equal(t, "true", req.Header.Get("Metadata"))
		require.Equal(t, "2018-02-01", req.Query.Get("api-version"))
		require.Equal(t, testResource, req.Query.Get("resource"))
		require.Empty(t, req.Query.Get("client_id"))
	})

	t.Run("selector query injection", func(t *testing.T) {
		tests := []struct {
			name     string
			selector credential.Selector
			param    string
			want     string
		}{
			{name: "client id", selector: credential.Selector{ClientID: "client-1"}, param: "client_id", want: "client-1"},
			{name: "resource id", selector: credential.Selector{ResourceID: "res-1"}, param: "msi_res_id", want: "res-1"},
			{name: "object id", selector: credential.Selector{ObjectID: "obj-1"}, param: "object_id", want: "obj-1"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req, err := source.NewIMDS("", tt.selector).BuildRequest(testResource)
				require.NoError(t, err)
				require.Equal(t, tt.want, req.Query.Get(tt.param))
			})
		}
	})

	t.Run("empty resource rejected", func(t *testing.T) {
		_, err := source.NewIMDS("", credential.Selector{}).BuildRequest("")
		require.Error(t, err)
		require.ErrorIs(t, err, interrors.ErrEmptyResource)
	})

	t.Run("ambiguous selector rejected", func(t *testing.T) {
		src := source.NewIMDS("", credential.Selector{ClientID: "client-1", ObjectID: "obj-1"})
		_, err := src.BuildRequest(testResource)
		require.Error(t, err)
		require.ErrorIs(t, err, interrors.ErrAmbiguousSelector)
	})

	t.Run("endpoint override", func(t *testing.T) {
		req, err := source.NewIMDS("http://localhost:40342/token", credential.Selector{}).BuildRequest(testResource)
		require.NoError(t, err)
		require.Equal(t, "http://localhost:40342/token", req.Endpoint)
	})
}

// TestAppService_BuildRequest tests sidecar request construction
func TestAppService_BuildRequest(t *testing.T) {
	src := source.NewAppService("http://127.0.0.1:8081/msi/token", "sidecar-secret", credential.Selector{ObjectID: "obj-1"})
	req, err := src.BuildRequest(testResource)
	require.NoError(t, err)
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "sidecar-secret", req.Header.Get("X-IDENTITY-HEADER"))
	require.Equal(t, "2019-08-01", req.Query.Get("api-version"))
	require.Equal(t, "obj-1", req.Query.Get("principal_id"))

	t.Run("missing endpoint rejected", func(t *testing.T) {
		_, err := source.NewAppService("", "secret", credential.Selector{}).BuildRequest(testResource)
		require.ErrorIs(t, err, interrors.ErrMissingEndpoint)
	})
}

// TestCloudShell_BuildRequest tests shell broker request construction
func TestCloudShell_BuildRequest(t *testing.T) {
	src := source.NewCloudShell("http://localhost:50342/oauth2/token", credential.Selector{})
	req, err := src.BuildRequest(testResource)
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "true", req.Header.Get("Metadata"))
	require.Equal(t, testResource, req.Form.Get("resource"))
	require.Empty(t, req.Query)

	t.Run("user assigned rejected", func(t *testing.T) {
		src := source.NewCloudShell("http://localhost:50342/oauth2/token", credential.Selector{ClientID: "client-1"})
		_, err := src.BuildRequest(testResource)
		require.Error(t, err)
		require.ErrorIs(t, err, interrors.ErrUserAssignedNotSupported)
	})
}

// TestServiceFabric_BuildRequest tests cluster request construction
func TestServiceFabric_BuildRequest(t *testing.T) {
	src := source.NewServiceFabric("https://localhost:2377/metadata/identity/oauth2/token", "sf-secret", credential.Selector{})
	req, err := src.BuildRequest(testResource)
	require.NoError(t, err)
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "sf-secret", req.Header.Get("secret"))
	require.Equal(t, "2019-07-01-preview", req.Query.Get("api-version"))

	// A user-assigned selector is ignored, not injected: the cluster
	// configuration fixes the identity.
	src = source.NewServiceFabric("https://localhost:2377/metadata/identity/oauth2/token", "sf-secret", credential.Selector{ClientID: "client-1"})
	req, err = src.BuildRequest(testResource)
	require.NoError(t, err)
	require.Empty(t, req.Query.Get("client_id"))
}

// TestCredentialEndpoint_BuildRequest tests the certificate-bound request
// shape: JSON body with a JWK confirmation claim and a per-request id
func TestCredentialEndpoint_BuildRequest(t *testing.T) {
	key := newTestPopKey(t)

	src, err := source.NewCredentialEndpoint("", credential.Selector{ClientID: "client-1"}, key)
	require.NoError(t, err)
	require.Equal(t, source.KindCredentialEndpoint, src.Kind())
	require.Equal(t, "client-1", src.CacheKey())

	req, err := src.BuildRequest(testResource)
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "http://169.254.169.254/metadata/identity/credential", req.Endpoint)
	require.Equal(t, "1.0", req.Query.Get("cred-api-version"))
	require.Equal(t, "client-1", req.Query.Get("client_id"))
	require.Equal(t, "true", req.Header.Get("Metadata"))
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))
	require.NotEmpty(t, req.Header.Get("x-ms-client-request-id"))

	var body struct {
		Cnf struct {
			JWK map[string]any `json:"jwk"`
		} `json:"cnf"`
		LatchKey bool `json:"latch_key"`
	}
	require.NoError(t, json.Unmarshal(req.BodyJSON, &body))
	require.False(t, body.LatchKey)
	require.Equal(t, "EC", body.Cnf.JWK["kty"])
	require.Equal(t, key.Thumbprint(), body.Cnf.JWK["kid"])

	t.Run("missing key rejected", func(t *testing.T) {
		_, err := source.NewCredentialEndpoint("", credential.Selector{}, nil)
		require.Error(t, err)
		require.ErrorIs(t, err, interrors.ErrMissingKey)
	})
}

// TestCredentialEndpoint_DecodeSuccess tests remapping of the credential
// wire field onto the common payload shape
func TestCredentialEndpoint_DecodeSuccess(t *testing.T) {
	key := newTestPopKey(t)
	src, err := source.NewCredentialEndpoint("", credential.Selector{}, key)
	require.NoError(t, err)

	payload, err := src.DecodeSuccess([]byte(`{"credential":"bound-token","expires_on":1893456000,"client_id":"client-1"}`))
	require.NoError(t, err)
	require.Equal(t, "bound-token", payload.AccessToken)
	require.EqualValues(t, 1893456000, payload.ExpiresOn)
	require.Equal(t, "mtls_pop", payload.TokenType)
	require.NoError(t, payload.Validate())

	_, err = src.DecodeSuccess([]byte("not json"))
	require.Error(t, err)
}
