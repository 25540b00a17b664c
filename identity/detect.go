package identity

import (
	"github.com/jrsteele09/go-managed-identity/credential"
	"github.com/jrsteele09/go-managed-identity/internal/config"
	"github.com/jrsteele09/go-managed-identity/popkey"
	"github.com/jrsteele09/go-managed-identity/source"
	"github.com/rs/zerolog/log"
)

// DetectSource resolves the active source variant from the hosting
// environment configuration. Resolution happens once at startup; the
// pipeline never re-probes.
//
// Precedence mirrors the hosting platforms: a service fabric cluster
// advertises an endpoint, a header and a server thumbprint; an app-hosting
// sidecar advertises an endpoint and a header; a shell broker advertises
// MSI_ENDPOINT; everything else falls back to the metadata service.
func DetectSource(cfg config.Config, selector credential.Selector) source.Source {
	switch {
	case cfg.GetIdentityEndpoint() != "" && cfg.GetIdentityHeader() != "" && cfg.GetIdentityServerThumbprint() != "":
		log.Info().Msg("detected service fabric managed identity endpoint")
		return source.NewServiceFabric(cfg.GetIdentityEndpoint(), cfg.GetIdentityHeader(), selector)
	case cfg.GetIdentityEndpoint() != "" && cfg.GetIdentityHeader() != "":
		log.Info().Msg("detected app service managed identity endpoint")
		return source.NewAppService(cfg.GetIdentityEndpoint(), cfg.GetIdentityHeader(), selector)
	case cfg.GetMSIEndpoint() != "":
		log.Info().Msg("detected cloud shell managed identity endpoint")
		return source.NewCloudShell(cfg.GetMSIEndpoint(), selector)
	}
	log.Info().Msg("defaulting to instance metadata service")
	return source.NewIMDS(cfg.GetIMDSEndpoint(), selector)
}

// CertificateBoundSource builds the cache-eligible certificate-bound source
// for a proof-of-possession key, honoring the endpoint override from cfg.
func CertificateBoundSource(cfg config.Config, selector credential.Selector, key *popkey.Key) (source.Source, error) {
	return source.NewCredentialEndpoint(cfg.GetCredentialEndpoint(), selector, key)
}
