// Package oauthstate encodes the round-trip state passed through provider
// authorization redirects. The blob is an HS256-signed token so a tampered
// or truncated value fails to decode instead of silently defaulting; it is
// never persisted server-side.
package oauthstate

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL bounds how long a callback may arrive after the authorize URL was
// issued.
const TTL = 10 * time.Minute

var (
	ErrInvalidState         = errors.New("oauth state is malformed or has been tampered with")
	ErrAuthorizationExpired = errors.New("oauth state has expired")
)

type State struct {
	Provider         string
	CreatorProfileID int64
	UserID           int64
	IssuedAt         time.Time
	CodeVerifier     string
}

type stateClaims struct {
	Provider         string `json:"prv"`
	CreatorProfileID int64  `json:"cpf"`
	CodeVerifier     string `json:"vrf,omitempty"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (c *Codec) Encode(state State) (string, error) {
	issuedAt := state.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = c.now()
	}

	claims := stateClaims{
		Provider:         state.Provider,
		CreatorProfileID: state.CreatorProfileID,
		CodeVerifier:     state.CodeVerifier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(state.UserID, 10),
			IssuedAt: jwt.NewNumericDate(issuedAt),
			Issuer:   "creatorsync",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

func (c *Codec) Decode(encoded string) (*State, error) {
	token, err := jwt.ParseWithClaims(encoded, &stateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return c.secret, nil
	}, jwt.WithIssuedAt(), jwt.WithTimeFunc(c.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidState
	}

	claims, ok := token.Claims.(*stateClaims)
	if !ok || claims.IssuedAt == nil {
		return nil, ErrInvalidState
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidState
	}

	issuedAt := claims.IssuedAt.Time
	if c.now().Sub(issuedAt) > TTL {
		return nil, ErrAuthorizationExpired
	}

	return &State{
		Provider:         claims.Provider,
		CreatorProfileID: claims.CreatorProfileID,
		UserID:           userID,
		IssuedAt:         issuedAt,
		CodeVerifier:     claims.CodeVerifier,
	}, nil
}
