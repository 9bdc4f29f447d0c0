package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"levermcp/pkg/logging"
)

// RefreshFunc exchanges a refresh token for a new credential.
type RefreshFunc func(ctx context.Context, refreshToken string) (*Credential, error)

// CredentialStore persists OAuth credentials per identity, with an
// in-memory cache in front of a JSON file per identity.
//
// Persistence failures are logged and otherwise swallowed: on read-only
// filesystems the store keeps working purely in memory and credentials
// simply do not survive a restart.
type CredentialStore struct {
	mu         sync.RWMutex
	creds      map[string]*Credential
	storageDir string
	persist    bool
	refresh    RefreshFunc

	// group deduplicates concurrent refreshes for the same identity so
	// the upstream provider sees at most one refresh per expiry.
	group singleflight.Group
}

// NewCredentialStore creates a store rooted at storageDir. The directory
// is created with owner-only permissions; if that fails the store runs
// memory-only.
func NewCredentialStore(storageDir string) *CredentialStore {
	s := &CredentialStore{
		creds:      make(map[string]*Credential),
		storageDir: storageDir,
		persist:    true,
	}
	if err := os.MkdirAll(storageDir, 0700); err != nil {
		logging.Warn("OAuth", "Token storage unavailable at %s, continuing without persistence: %v", storageDir, err)
		s.persist = false
	}
	return s
}

// SetRefreshFunc installs the refresh callback. Without one, expired
// credentials are discarded instead of refreshed.
func (s *CredentialStore) SetRefreshFunc(f RefreshFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = f
}

// Load returns a valid credential for the identity, or nil when none is
// available. An expired credential with a refresh token is refreshed
// transparently; an expired credential without one is deleted.
func (s *CredentialStore) Load(ctx context.Context, identity string) *Credential {
	s.mu.RLock()
	cred, ok := s.creds[identity]
	s.mu.RUnlock()

	if !ok {
		cred = s.loadFromDisk(identity)
		if cred == nil {
			return nil
		}
		s.mu.Lock()
		s.creds[identity] = cred
		s.mu.Unlock()
	}

	if !cred.IsExpired(credentialExpiryMargin) {
		return cred
	}

	if !cred.Refreshable() {
		logging.Info("OAuth", "Stored credential for %s expired without refresh token, discarding", identity)
		s.Delete(identity)
		return nil
	}

	fresh, err := s.refreshCredential(ctx, identity, cred)
	if err != nil {
		logging.Warn("OAuth", "Failed to refresh credential for %s: %v", identity, err)
		s.Delete(identity)
		return nil
	}
	return fresh
}

// Save stores the credential in memory and on disk. Disk failures are
// logged and swallowed.
func (s *CredentialStore) Save(identity string, cred *Credential) {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.creds[identity] = cred
	s.mu.Unlock()

	if !s.persist {
		return
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		logging.Warn("OAuth", "Failed to marshal credential for %s: %v", identity, err)
		return
	}
	path := s.credentialPath(identity)
	if err := os.WriteFile(path, data, 0600); err != nil {
		logging.Warn("OAuth", "Failed to persist credential for %s, continuing in memory only: %v", identity, err)
		return
	}
	logging.Debug("OAuth", "Persisted credential for %s", identity)
}

// Delete removes the credential from memory and disk. Unknown identities
// are a no-op.
func (s *CredentialStore) Delete(identity string) {
	s.mu.Lock()
	delete(s.creds, identity)
	s.mu.Unlock()

	if !s.persist {
		return
	}
	if err := os.Remove(s.credentialPath(identity)); err != nil && !os.IsNotExist(err) {
		logging.Warn("OAuth", "Failed to remove credential file for %s: %v", identity, err)
	}
}

// Has reports whether a credential is stored for the identity, without
// triggering a refresh.
func (s *CredentialStore) Has(identity string) bool {
	s.mu.RLock()
	_, ok := s.creds[identity]
	s.mu.RUnlock()
	if ok {
		return true
	}
	if !s.persist {
		return false
	}
	_, err := os.Stat(s.credentialPath(identity))
	return err == nil
}

func (s *CredentialStore) loadFromDisk(identity string) *Credential {
	if !s.persist {
		return nil
	}

	data, err := os.ReadFile(s.credentialPath(identity))
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("OAuth", "Failed to read credential file for %s: %v", identity, err)
		}
		return nil
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		logging.Warn("OAuth", "Corrupt credential file for %s, ignoring: %v", identity, err)
		return nil
	}
	return &cred
}

func (s *CredentialStore) refreshCredential(ctx context.Context, identity string, cred *Credential) (*Credential, error) {
	s.mu.RLock()
	refresh := s.refresh
	s.mu.RUnlock()

	if refresh == nil {
		return nil, fmt.Errorf("no refresh function configured")
	}

	v, err, _ := s.group.Do(identity, func() (interface{}, error) {
		fresh, err := refresh(ctx, cred.RefreshToken)
		if err != nil {
			return nil, err
		}
		// Providers may rotate or omit the refresh token on refresh.
		if fresh.RefreshToken == "" {
			fresh.RefreshToken = cred.RefreshToken
		}
		s.Save(identity, fresh)
		logging.Info("OAuth", "Refreshed credential for %s", identity)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Credential), nil
}

// credentialPath derives a stable filename from the identity. Hashing
// keeps arbitrary identity strings (email addresses, URLs) safe to use as
// filenames.
func (s *CredentialStore) credentialPath(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return filepath.Join(s.storageDir, hex.EncodeToString(sum[:8])+"_token.json")
}
