package credential

import (
	interrors "github.com/jrsteele09/go-managed-identity/internal/errors"
)

// DefaultCacheKey is the cache key sentinel for the system-assigned identity.
const DefaultCacheKey = "default"

// Selector identifies which managed identity a credential is requested for.
// At most one discriminant may be set; the zero value selects the
// system-assigned identity.
type Selector struct {
	ClientID   string
	ResourceID string
	ObjectID   string
}

// IsSystemAssigned reports whether no user-assigned discriminant is set.
func (s Selector) IsSystemAssigned() bool {
	return s.ClientID == "" && s.ResourceID == "" && s.ObjectID == ""
}

// Validate rejects selectors with more than one discriminant set. This is a
// programming-contract violation, not a service failure.
func (s Selector) Validate() error {
	set := 0
	for _, v := range []string{s.ClientID, s.ResourceID, s.ObjectID} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return interrors.ErrAmbiguousSelector
	}
	return nil
}

// CacheKey derives the response-cache key for the selector: the first
// non-empty of client id, resource id and object id, else DefaultCacheKey.
// Derivation is deterministic and never combines discriminants.
func (s Selector) CacheKey() string {
	switch {
	case s.ClientID != "":
		return s.ClientID
	case s.ResourceID != "":
		return s.ResourceID
	case s.ObjectID != "":
		return s.ObjectID
	}
	return DefaultCacheKey
}
