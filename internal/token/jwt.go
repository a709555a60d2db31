package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed = errors.New("malformed token")
	ErrExpired   = errors.New("token expired")
	ErrSignature = errors.New("invalid token signature")
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// Issuer is a stateless JWT codec. Issuing and validating are pure
// cryptographic transforms; there is no storage behind a token.
type Issuer struct {
	secret secretProvider
	ttl    time.Duration
}

type Config struct {
	Secret secretProvider
	TTL    time.Duration
}

func NewIssuer(cfg Config) *Issuer {
	return &Issuer{
		secret: cfg.Secret,
		ttl:    cfg.TTL,
	}
}

// Issue signs an identity into a bearer token expiring at now + TTL.
func (i *Issuer) Issue(id Identity) (string, error) {
	now := time.Now()
	tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Role: id.Role,
	}).SignedString(i.secret.Get())

	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tk, nil
}

// Validate checks signature and expiry and returns the encoded identity.
// Failures map to exactly one of ErrExpired, ErrSignature or ErrMalformed.
func (i *Issuer) Validate(raw string) (Identity, error) {
	claims := &jwtClaims{}
	tk, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret.Get(), nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Identity{}, ErrSignature
		default:
			return Identity{}, ErrMalformed
		}
	}

	if !tk.Valid {
		return Identity{}, ErrMalformed
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return Identity{}, ErrMalformed
	}

	return Identity{
		UID:  claims.Subject,
		Role: claims.Role,
	}, nil
}
