package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Session/JWT primitives =====
//
// Wallet verification (SIWE) happens in an external service that mints an
// HS256 JWT carrying the verified address in the "wallet" claim. This layer
// only parses and validates that token.

type AuthConfig struct {
	HMACSecret []byte
	CookieName string
}

type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(secret, cookieName string) *AuthManager {
	return &AuthManager{cfg: AuthConfig{
		HMACSecret: []byte(secret),
		CookieName: cookieName, // e.g. "siwe_jwt"
	}}
}

type WalletClaims struct {
	Wallet string `json:"wallet"`
	jwt.RegisteredClaims
}

// Mint issues a session token locally. Dev-mode only; production tokens come
// from the SIWE verifier.
func (a *AuthManager) Mint(wallet string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := WalletClaims{
		Wallet: strings.ToLower(wallet),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   strings.ToLower(wallet),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.cfg.HMACSecret)
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*WalletClaims, error) {
	// Authorization: Bearer <jwt>
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
	}
	// Cookie
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, errors.New("missing token")
}

func (a *AuthManager) parse(tok string) (*WalletClaims, error) {
	claims := &WalletClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	})
	if err != nil || !tkn.Valid || claims.Wallet == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ===== request-scoped wallet =====

type ctxKey string

const ctxWalletKey ctxKey = "wallet"

func withWallet(ctx context.Context, wallet string) context.Context {
	return context.WithValue(ctx, ctxWalletKey, wallet)
}

func walletFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxWalletKey).(string); ok {
		return v
	}
	return ""
}
