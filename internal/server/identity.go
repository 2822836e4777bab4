package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Tyrowin/chatrelay/internal/store"
)

// Claim is the identity a connecting client asserts.
type Claim struct {
	UserID string
	Token  string
}

// Identity is a verified user.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// IdentityVerifier checks a claim before a session is created.
type IdentityVerifier interface {
	Verify(ctx context.Context, claim Claim) (Identity, error)
}

// TokenClaims is the JWT body accepted at connect time.
type TokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// StoreVerifier accepts claims for users present in the store. When a
// secret is set the claim must also carry a matching HS256 token.
type StoreVerifier struct {
	users  UserLookup
	secret []byte
}

func NewStoreVerifier(users UserLookup, secret string) *StoreVerifier {
	v := &StoreVerifier{users: users}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

func (v *StoreVerifier) Verify(ctx context.Context, claim Claim) (Identity, error) {
	userID := strings.TrimSpace(claim.UserID)
	if userID == "" {
		return Identity{}, fail(KindAuthentication, "User ID is required for socket connection", nil)
	}

	if v.secret != nil {
		if err := v.checkToken(claim.Token, userID); err != nil {
			return Identity{}, err
		}
	}

	u, err := v.users.UserByID(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Identity{}, fail(KindAuthentication, "Invalid user ID", err)
	case err != nil:
		return Identity{}, fail(KindStore, "Authentication failed", err)
	}

	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email}, nil
}

func (v *StoreVerifier) checkToken(raw, userID string) error {
	if raw == "" {
		return fail(KindAuthentication, "Authentication token is required", nil)
	}

	var claims TokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fail(KindAuthentication, "Invalid authentication token", err)
	}
	if claims.UserID != userID {
		return fail(KindAuthentication, "Token does not match user ID", nil)
	}
	return nil
}

// IssueToken signs a token for userID. It is used by tooling and tests.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// claimFromRequest reads the asserted user id from the userId query
// parameter or the X-User-ID header, and an optional token from the token
// query parameter or a bearer Authorization header.
func claimFromRequest(r *http.Request) Claim {
	q := r.URL.Query()

	userID := q.Get("userId")
	if userID == "" {
		userID = r.Header.Get("X-User-ID")
	}

	token := q.Get("token")
	if token == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
	}

	return Claim{UserID: userID, Token: token}
}
