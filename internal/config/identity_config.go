package config

// Hosting environments advertise their identity endpoint through these
// variables; which combination is present determines the active source.
const (
	imdsEndpointVar       = "IMDS_ENDPOINT"
	credentialEndpointVar = "MI_CREDENTIAL_ENDPOINT"
	identityEndpointVar   = "IDENTITY_ENDPOINT"
	identityHeaderVar     = "IDENTITY_HEADER"
	serverThumbprintVar   = "IDENTITY_SERVER_THUMBPRINT"
	msiEndpointVar        = "MSI_ENDPOINT"
	clientIDVar           = "AZURE_CLIENT_ID"
)

type Identity struct{}

var _ IdentityConfig = Identity{}

// GetIMDSEndpoint returns the metadata-service override; empty selects the
// well-known link-local address.
func (Identity) GetIMDSEndpoint() string {
	return GetEnv(imdsEndpointVar, "")
}

// GetCredentialEndpoint returns the certificate-bound endpoint override.
func (Identity) GetCredentialEndpoint() string {
	return GetEnv(credentialEndpointVar, "")
}

func (Identity) GetIdentityEndpoint() string {
	return GetEnv(identityEndpointVar, "")
}

func (Identity) GetIdentityHeader() string {
	return GetEnv(identityHeaderVar, "")
}

func (Identity) GetIdentityServerThumbprint() string {
	return GetEnv(serverThumbprintVar, "")
}

func (Identity) GetMSIEndpoint() string {
	return GetEnv(msiEndpointVar, "")
}

func (Identity) GetClientID() string {
	return GetEnv(clientIDVar, "")
}
