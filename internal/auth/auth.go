// Package auth issues and checks admin bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"defi-hub/internal/chain"
	"defi-hub/internal/config"
)

// RoleAdmin is the only role the API grants.
const RoleAdmin = "admin"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Claims is the payload of an admin token. The wallet is the subject.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Wallet() string {
	return c.Subject
}

type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	admins map[string]struct{}
	now    func() time.Time
}

// NewIssuer builds an issuer from cfg. Admin wallets are normalized, so
// checksummed and lower-case EVM addresses compare equal.
func NewIssuer(cfg config.AuthConfig) (*Issuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("auth config: %w", err)
	}
	admins := make(map[string]struct{}, len(cfg.AdminWallets))
	for _, w := range cfg.AdminWallets {
		normalized, err := chain.NormalizeWallet(w)
		if err != nil {
			return nil, fmt.Errorf("admin wallet %q: %w", w, err)
		}
		admins[normalized] = struct{}{}
	}
	return &Issuer{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		admins: admins,
		now:    time.Now,
	}, nil
}

// Issue signs an admin token for wallet.
func (i *Issuer) Issue(wallet string) (string, time.Time, error) {
	wallet, err := chain.NormalizeWallet(wallet)
	if err != nil {
		return "", time.Time{}, err
	}
	now := i.now()
	expires := now.Add(i.ttl)
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   wallet,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses token and checks its signature, issuer and expiry.
// Every failure wraps ErrUnauthorized.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}

// Authorize checks that claims grant admin access.
func (i *Issuer) Authorize(claims *Claims) error {
	if claims.Role != RoleAdmin {
		return fmt.Errorf("%w: role %q", ErrForbidden, claims.Role)
	}
	if len(i.admins) == 0 {
		return nil
	}
	if _, ok := i.admins[claims.Wallet()]; !ok {
		return fmt.Errorf("%w: wallet is not an admin", ErrForbidden)
	}
	return nil
}
