package oauth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialStore_SaveAndLoad(t *testing.T) {
	store := NewCredentialStore(t.TempDir())
	ctx := context.Background()

	cred := &Credential{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		TokenType:    "Bearer",
		Scope:        "https://www.googleapis.com/auth/gmail.send",
		Expiry:       time.Now().Add(time.Hour),
	}
	store.Save("user@example.com", cred)

	got := store.Load(ctx, "user@example.com")
	if got == nil {
		t.Fatal("Expected stored credential, got nil")
	}
	if got.AccessToken != "access-123" {
		t.Errorf("Expected access token to round-trip, got %q", got.AccessToken)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Save should stamp CreatedAt")
	}
}

func TestCredentialStore_LoadSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := NewCredentialStore(dir)
	first.Save("user@example.com", &Credential{
		AccessToken: "persisted-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	})

	// A second store over the same directory simulates a restart.
	second := NewCredentialStore(dir)
	got := second.Load(ctx, "user@example.com")
	if got == nil {
		t.Fatal("Expected credential to be loaded from disk")
	}
	if got.AccessToken != "persisted-token" {
		t.Errorf("Expected persisted token, got %q", got.AccessToken)
	}
}

func TestCredentialStore_LoadMissing(t *testing.T) {
	store := NewCredentialStore(t.TempDir())
	if got := store.Load(context.Background(), "nobody@example.com"); got != nil {
		t.Errorf("Expected nil for unknown identity, got %+v", got)
	}
}

func TestCredentialStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store := NewCredentialStore(dir)
	ctx := context.Background()

	store.Save("user@example.com", &Credential{AccessToken: "tok", TokenType: "Bearer"})
	store.Delete("user@example.com")

	if got := store.Load(ctx, "user@example.com"); got != nil {
		t.Errorf("Expected nil after delete, got %+v", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read storage dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty storage dir after delete, found %d entries", len(entries))
	}

	// Deleting an unknown identity is a no-op.
	store.Delete("nobody@example.com")
}

func TestCredentialStore_ExpiredWithoutRefreshTokenIsDiscarded(t *testing.T) {
	store := NewCredentialStore(t.TempDir())
	ctx := context.Background()

	store.Save("user@example.com", &Credential{
		AccessToken: "expired-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(-time.Minute),
	})

	if got := store.Load(ctx, "user@example.com"); got != nil {
		t.Errorf("Expected expired credential to be discarded, got %+v", got)
	}
	if store.Has("user@example.com") {
		t.Error("Discarded credential should not remain on disk")
	}
}

func TestCredentialStore_ExpiredWithRefreshTokenIsRefreshed(t *testing.T) {
	store := NewCredentialStore(t.TempDir())
	ctx := context.Background()

	calls := 0
	store.SetRefreshFunc(func(ctx context.Context, refreshToken string) (*Credential, error) {
		calls++
		if refreshToken != "refresh-456" {
			t.Errorf("Expected stored refresh token, got %q", refreshToken)
		}
		return &Credential{
			AccessToken: "fresh-token",
			TokenType:   "Bearer",
			Expiry:      time.Now().Add(time.Hour),
		}, nil
	})

	store.Save("user@example.com", &Credential{
		AccessToken:  "expired-token",
		RefreshToken: "refresh-456",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Minute),
	})

	got := store.Load(ctx, "user@example.com")
	if got == nil {
		t.Fatal("Expected refreshed credential")
	}
	if got.AccessToken != "fresh-token" {
		t.Errorf("Expected refreshed access token, got %q", got.AccessToken)
	}
	if got.RefreshToken != "refresh-456" {
		t.Errorf("Refresh token should be preserved when the provider omits it, got %q", got.RefreshToken)
	}
	if calls != 1 {
		t.Errorf("Expected exactly one refresh call, got %d", calls)
	}

	// The refreshed credential is now the stored one.
	again := store.Load(ctx, "user@example.com")
	if again == nil || again.AccessToken != "fresh-token" {
		t.Errorf("Refreshed credential should be stored, got %+v", again)
	}
	if calls != 1 {
		t.Errorf("Valid credential must not trigger another refresh, got %d calls", calls)
	}
}

func TestCredentialStore_RefreshFailureDiscardsCredential(t *testing.T) {
	store := NewCredentialStore(t.TempDir())
	ctx := context.Background()

	store.SetRefreshFunc(func(ctx context.Context, refreshToken string) (*Credential, error) {
		return nil, fmt.Errorf("invalid_grant")
	})

	store.Save("user@example.com", &Credential{
		AccessToken:  "expired-token",
		RefreshToken: "revoked-refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Minute),
	})

	if got := store.Load(ctx, "user@example.com"); got != nil {
		t.Errorf("Expected nil after failed refresh, got %+v", got)
	}
	if store.Has("user@example.com") {
		t.Error("Credential should be removed after a failed refresh")
	}
}

func TestCredentialStore_CorruptFileIgnored(t *testing.T) {
	dir := t.TempDir()
	store := NewCredentialStore(dir)

	path := store.credentialPath("user@example.com")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	if got := store.Load(context.Background(), "user@example.com"); got != nil {
		t.Errorf("Expected nil for corrupt file, got %+v", got)
	}
}

func TestCredentialStore_MemoryOnlyWhenStorageUnavailable(t *testing.T) {
	// A regular file in place of the storage directory makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatalf("Failed to create blocker file: %v", err)
	}

	store := NewCredentialStore(filepath.Join(blocker, "tokens"))
	ctx := context.Background()

	store.Save("user@example.com", &Credential{
		AccessToken: "memory-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	})

	got := store.Load(ctx, "user@example.com")
	if got == nil || got.AccessToken != "memory-token" {
		t.Errorf("Store should keep working in memory, got %+v", got)
	}
}

func TestCredentialStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	store := NewCredentialStore(dir)

	store.Save("user@example.com", &Credential{AccessToken: "tok", TokenType: "Bearer"})

	info, err := os.Stat(store.credentialPath("user@example.com"))
	if err != nil {
		t.Fatalf("Expected credential file on disk: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}
}

func TestCredential_IsExpired(t *testing.T) {
	noExpiry := &Credential{AccessToken: "tok"}
	if noExpiry.IsExpired(credentialExpiryMargin) {
		t.Error("Credential without expiry should never expire")
	}

	future := &Credential{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}
	if future.IsExpired(credentialExpiryMargin) {
		t.Error("Credential expiring in an hour should be valid")
	}

	withinMargin := &Credential{AccessToken: "tok", Expiry: time.Now().Add(10 * time.Second)}
	if !withinMargin.IsExpired(credentialExpiryMargin) {
		t.Error("Credential expiring within the margin should count as expired")
	}
}
