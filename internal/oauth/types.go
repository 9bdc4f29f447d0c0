package oauth

import (
	"time"
)

// credentialExpiryMargin is the margin added when checking credential
// expiration. This accounts for clock skew between systems and network
// latency.
const credentialExpiryMargin = 30 * time.Second

// Credential is a persisted OAuth credential record for one identity.
type Credential struct {
	// AccessToken is the bearer token used for authorization.
	AccessToken string `json:"access_token"`

	// RefreshToken is used to obtain new access tokens (optional).
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`

	// Scope is the granted scope(s), space separated.
	Scope string `json:"scope,omitempty"`

	// Expiry is when the access token expires. Zero means no expiry.
	Expiry time.Time `json:"expiry,omitempty"`

	// CreatedAt is when the credential was stored.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// IsExpired checks if the credential has expired.
// Returns true if the access token is expired or will expire within the
// given margin.
func (c *Credential) IsExpired(margin time.Duration) bool {
	if c.Expiry.IsZero() {
		return false // Credentials without expiration don't expire
	}
	return time.Now().Add(margin).After(c.Expiry)
}

// Refreshable reports whether a silent refresh can be attempted.
func (c *Credential) Refreshable() bool {
	return c.RefreshToken != ""
}

// ExpiresInSeconds returns the remaining lifetime in whole seconds, or 0
// when the credential carries no expiry.
func (c *Credential) ExpiresInSeconds() int {
	if c.Expiry.IsZero() {
		return 0
	}
	remaining := time.Until(c.Expiry)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// SessionStatus is the lifecycle state of a relay session.
type SessionStatus string

const (
	// SessionPending means the browser step has not completed yet.
	SessionPending SessionStatus = "pending"

	// SessionReady means an authorization code has been delivered and is
	// waiting to be claimed.
	SessionReady SessionStatus = "ready"

	// SessionClaimed means the code was handed to exactly one caller.
	// Terminal: the session is removed from the registry on claim.
	SessionClaimed SessionStatus = "claimed"

	// SessionExpired means the session outlived its TTL. Terminal.
	SessionExpired SessionStatus = "expired"

	// SessionUnknown is reported for identifiers the registry has never
	// seen or has already purged. Session identifiers are never reused,
	// so a claimed session and an unknown one are indistinguishable to
	// the poller.
	SessionUnknown SessionStatus = "unknown"
)

// SessionTTL is the fixed time-to-live of a relay session. A session older
// than this is treated as expired regardless of its stored status.
const SessionTTL = 10 * time.Minute

// RecommendedPollIntervalSeconds is the advertised polling cadence.
// Callers may apply exponential backoff on top; the server does not
// enforce the interval.
const RecommendedPollIntervalSeconds = 2

// BrowserAgentStatePrefix marks OAuth state values that belong to the
// polling relay flow. The redirect handler uses it to recover the session
// identifier from the state parameter; state values without the prefix
// belong to direct flows and are passed through untouched.
const BrowserAgentStatePrefix = "browser_agent_"

// ClaimResult is the outcome of a single Claim call.
type ClaimResult struct {
	// Status is one of SessionPending, SessionExpired, SessionClaimed or
	// SessionUnknown.
	Status SessionStatus

	// Code is the authorization code, set only when Status is SessionClaimed.
	Code string

	// State is the original anti-forgery state value, set with Code.
	State string
}
