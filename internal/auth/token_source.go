package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaticToken always returns the same bearer token (POS_API_TOKEN).
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", errors.New("no api token configured")
	}
	return string(t), nil
}

func (StaticToken) Invalidate() {}

// LoginFunc obtains a new bearer token from the shop API.
type LoginFunc func(ctx context.Context) (string, error)

// RemoteToken caches the shop API token and logs in again shortly before it
// expires. Tokens that are not JWTs are kept for fallbackTTL.
type RemoteToken struct {
	login       LoginFunc
	skew        time.Duration
	fallbackTTL time.Duration
	now         func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewRemoteToken(login LoginFunc) *RemoteToken {
	return &RemoteToken{
		login:       login,
		skew:        30 * time.Second,
		fallbackTTL: 10 * time.Minute,
		now:         time.Now,
	}
}

func (r *RemoteToken) Token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && r.now().Add(r.skew).Before(r.expires) {
		return r.token, nil
	}

	token, err := r.login(ctx)
	if err != nil {
		return "", err
	}
	r.token = token
	r.expires = r.expiry(token)
	return token, nil
}

// expiry reads the exp claim without verifying the signature; the shop API
// verifies it, this side only needs to know when to refresh.
func (r *RemoteToken) expiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return r.now().Add(r.fallbackTTL)
}

func (r *RemoteToken) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = ""
	r.expires = time.Time{}
}
