package credential

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// UnixSeconds is a number of seconds that endpoints serve either as a JSON
// number or as a quoted decimal string ("3600"). The zero value means the
// field was absent.
type UnixSeconds int64

// UnmarshalJSON accepts 3600, 3600.0 and "3600".
func (s *UnixSeconds) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if trimmed == "" || trimmed == "null" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid seconds value %q", trimmed)
	}
	*s = UnixSeconds(f)
	return nil
}

// MarshalJSON writes the value as a plain JSON number.
func (s UnixSeconds) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(s), 10)), nil
}

// SuccessPayload represents a successful credential response from a managed
// identity endpoint. The same shape is served by every source variant; the
// certificate-bound endpoint names the token field "credential" and is
// remapped by its source before validation.
type SuccessPayload struct {
	// AccessToken is the credential presented to downstream services.
	// Usage: formatted into an Authorization header by the configured
	// authentication scheme.
	AccessToken string `json:"access_token,omitempty"`

	// ExpiresOn is the absolute expiry instant in epoch seconds.
	// At least one of ExpiresOn / ExpiresIn must be present.
	ExpiresOn UnixSeconds `json:"expires_on,omitempty"`

	// ExpiresIn is the credential lifetime in seconds, relative to the
	// moment the response was received.
	ExpiresIn UnixSeconds `json:"expires_in,omitempty"`

	// TokenType indicates how the credential is used (typically "Bearer").
	TokenType string `json:"token_type,omitempty"`

	// Resource echoes the resource the credential was issued for.
	Resource string `json:"resource,omitempty"`

	// ClientID echoes the identity the credential was issued to.
	ClientID string `json:"client_id,omitempty"`
}

var (
	errEmptyToken = errors.New("payload contains an empty credential")
	errNoExpiry   = errors.New("payload carries neither expires_on nor expires_in")
)

// Validate checks the payload for structural completeness. A 200 response
// whose payload fails validation must not be treated as a success.
func (p *SuccessPayload) Validate() error {
	if p == nil {
		return errors.New("payload is nil")
	}
	if strings.TrimSpace(p.AccessToken) == "" {
		return errEmptyToken
	}
	if p.ExpiresOn <= 0 && p.ExpiresIn <= 0 {
		return errNoExpiry
	}
	return nil
}

// ExpiryTime resolves the absolute expiry instant, preferring the absolute
// expires_on over the relative expires_in.
func (p *SuccessPayload) ExpiryTime(now time.Time) time.Time {
	if p.ExpiresOn > 0 {
		return time.Unix(int64(p.ExpiresOn), 0)
	}
	return now.Add(time.Duration(p.ExpiresIn) * time.Second)
}

// ErrorPayload represents the error body served by a managed identity
// endpoint alongside a non-200 status.
type ErrorPayload struct {
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
	Message          string `json:"message,omitempty"`
	CorrelationID    string `json:"correlationId,omitempty"`
}

// ParseErrorPayload decodes an error body. A nil result means the body was
// empty or not parseable; callers fall back to a generic message.
func ParseErrorPayload(body []byte) *ErrorPayload {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var payload ErrorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return &payload
}

// Diagnostic composes the human-readable message for the payload. It prefers
// the explicit service message, then the (code, description) pair. An empty
// string means the payload carries nothing diagnosable.
func (p *ErrorPayload) Diagnostic() string {
	if p == nil {
		return ""
	}
	if p.Message != "" {
		return p.Message
	}
	switch {
	case p.Error != "" && p.ErrorDescription != "":
		return p.Error + ": " + p.ErrorDescription
	case p.Error != "":
		return p.Error
	case p.ErrorDescription != "":
		return p.ErrorDescription
	}
	return ""
}
