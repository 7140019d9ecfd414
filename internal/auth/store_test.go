package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_CreateAndValidateToken(t *testing.T) {
	store := newTestStore(t)

	token, secret, err := store.CreateToken("ci", ScopeAdmin, nil)
	if err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}
	if token.Name != "ci" {
		t.Errorf("Token.Name = %v, want ci", token.Name)
	}
	if !strings.HasPrefix(secret, "agw_") {
		t.Errorf("secret should have prefix agw_")
	}
	if !strings.HasPrefix(token.ID, "tok_") {
		t.Errorf("Token.ID = %q, want tok_ prefix", token.ID)
	}
	if strings.Contains(secret, token.ID) {
		t.Error("public id must not be derived from the secret")
	}

	validated, err := store.ValidateToken(secret)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if validated.ID != token.ID {
		t.Errorf("validated ID = %v, want %v", validated.ID, token.ID)
	}
	if validated.Scope != ScopeAdmin {
		t.Errorf("validated Scope = %v, want admin", validated.Scope)
	}
}

func TestStore_CreateToken_InvalidScope(t *testing.T) {
	store := newTestStore(t)
	if _, _, err := store.CreateToken("bad", "superuser", nil); err == nil {
		t.Error("CreateToken() should reject unknown scopes")
	}
}

func TestStore_ValidateToken_Errors(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name   string
		secret string
		want   error
	}{
		{"empty", "", ErrInvalidToken},
		{"prefix only", "agw_", ErrInvalidToken},
		{"wrong prefix", "oub_abcdef", ErrInvalidToken},
		{"unknown", "agw_nonexistent", ErrTokenNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.ValidateToken(tt.secret); !errors.Is(err, tt.want) {
				t.Errorf("ValidateToken() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStore_ValidateToken_Expired(t *testing.T) {
	store := newTestStore(t)

	expiredAt := time.Now().Add(-time.Hour)
	_, secret, err := store.CreateToken("old", ScopeAdmin, &expiredAt)
	if err != nil {
		t.Fatalf("CreateToken() error = %v", err)
	}

	if _, err := store.ValidateToken(secret); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestStore_TokenWithFutureExpiry(t *testing.T) {
	store := newTestStore(t)

	expiresAt := time.Now().Add(time.Hour)
	_, secret, _ := store.CreateToken("soon", ScopeTenantRO("t1"), &expiresAt)

	token, err := store.ValidateToken(secret)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if token.ExpiresAt == nil {
		t.Error("ExpiresAt should be set")
	}
}

func TestStore_ListTokens(t *testing.T) {
	store := newTestStore(t)

	tokens, err := store.ListTokens()
	if err != nil {
		t.Fatalf("ListTokens() error = %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("len(tokens) = %d, want 0", len(tokens))
	}

	_, _, _ = store.CreateToken("a", ScopeAdmin, nil)
	_, _, _ = store.CreateToken("b", ScopeTenant("t1"), nil)

	tokens, err = store.ListTokens()
	if err != nil {
		t.Fatalf("ListTokens() error = %v", err)
	}
	if len(tokens) != 2 {
		t.Errorf("len(tokens) = %d, want 2", len(tokens))
	}
}

func TestStore_GetAndRevokeToken(t *testing.T) {
	store := newTestStore(t)
	token, secret, _ := store.CreateToken("x", ScopeAdmin, nil)

	got, err := store.GetToken(token.ID)
	if err != nil || got.Name != "x" {
		t.Fatalf("GetToken() = %+v, %v", got, err)
	}

	if err := store.RevokeToken(token.ID); err != nil {
		t.Fatalf("RevokeToken() error = %v", err)
	}
	if _, err := store.ValidateToken(secret); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("ValidateToken() after revoke error = %v, want ErrTokenNotFound", err)
	}
	if err := store.RevokeToken(token.ID); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("second RevokeToken() error = %v, want ErrTokenNotFound", err)
	}
	if _, err := store.GetToken(token.ID); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("GetToken() after revoke error = %v, want ErrTokenNotFound", err)
	}
}

func TestStore_LastUsedUpdated(t *testing.T) {
	store := newTestStore(t)
	token, secret, _ := store.CreateToken("x", ScopeAdmin, nil)

	if _, err := store.ValidateToken(secret); err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}

	// last_used_at is written asynchronously
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := store.GetToken(token.ID)
		if err == nil && got.LastUsedAt != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("LastUsedAt was not recorded")
}

func TestStore_OperationsOnClosedDB(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	_ = store.Close()

	if _, _, err := store.CreateToken("x", ScopeAdmin, nil); err == nil {
		t.Error("CreateToken() on closed DB should fail")
	}
	if _, err := store.ListTokens(); err == nil {
		t.Error("ListTokens() on closed DB should fail")
	}
}
