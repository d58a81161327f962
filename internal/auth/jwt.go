package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/01moynul/tradelink-golang/internal/apperr"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the user id travels in "sub".
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and validates HS256 tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate creates a signed token for the actor.
func (i *Issuer) Generate(actor models.Actor) (string, error) {
	now := i.now()
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(actor.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Validate parses a token and returns the actor it was issued for.
func (i *Issuer) Validate(tokenString string) (models.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: invalid or expired token", apperr.ErrUnauthorized)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return models.Actor{}, fmt.Errorf("%w: invalid subject claim", apperr.ErrUnauthorized)
	}
	if !claims.Role.Valid() {
		return models.Actor{}, fmt.Errorf("%w: invalid role claim", apperr.ErrUnauthorized)
	}
	return models.Actor{ID: id, Role: claims.Role}, nil
}

type actorKey struct{}

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

var errNoActor = errors.New("no authenticated actor")

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (models.Actor, error) {
	actor, ok := ctx.Value(actorKey{}).(models.Actor)
	if !ok {
		return models.Actor{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, errNoActor)
	}
	return actor, nil
}
