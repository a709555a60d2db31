package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

var (
	ErrProviderConflict = errors.New("provider already exists")
	ErrProviderNotFound = errors.New("provider not found")
	ErrAuthFailed       = errors.New("auth failed")
)

// User is the profile returned by an external identity provider for a single
// grant. It is consumed exactly once by the auth service.
type User struct {
	Nonce         string
	ID            string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	Name          string
	Picture       string
}

func (u *User) VerifiedEmail() string {
	if u.EmailVerified {
		return u.Email
	}
	return ""
}

// Env stores short-lived handshake values (state, nonce) between the login
// redirect and the provider callback.
type Env interface {
	Save(key, val string) error
	Load(key string) (string, error)
}

type identityProvider interface {
	LoginURL(state, nonce string) (string, error)
	Exchange(ctx context.Context, code string) (User, error)
}

type Authenticator struct {
	providers map[string]identityProvider
	mu        sync.RWMutex
}

func NewAuthenticator() *Authenticator {
	return &Authenticator{
		providers: make(map[string]identityProvider),
	}
}

func (a *Authenticator) Use(name string, p identityProvider) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.providers[name]; ok {
		return ErrProviderConflict
	}

	a.providers[name] = p
	return nil
}

// Providers returns the names of all registered providers.
func (a *Authenticator) Providers() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.providers))
	for name := range a.providers {
		names = append(names, name)
	}
	return names
}

func (a *Authenticator) LoginURL(env Env, provider, state, nonce string) (string, error) {
	p, err := a.getProvider(provider)
	if err != nil {
		return "", fmt.Errorf("get provider: %w", err)
	}

	if err = env.Save("state", state); err != nil {
		return "", fmt.Errorf("save state: %w", err)
	}

	if err = env.Save("nonce", nonce); err != nil {
		return "", fmt.Errorf("save nonce: %w", err)
	}

	url, err := p.LoginURL(state, nonce)
	if err != nil {
		return "", fmt.Errorf("get login url: %w", err)
	}

	return url, nil
}

// Exchange completes the handshake: it checks the returned state against the
// saved one, trades the code for a verified profile and checks the id token
// nonce. Provider-side rejections collapse into ErrAuthFailed.
func (a *Authenticator) Exchange(ctx context.Context, env Env, provider, code, state string) (User, error) {
	p, err := a.getProvider(provider)
	if err != nil {
		return User{}, fmt.Errorf("get provider: %w", err)
	}

	saved, err := env.Load("state")
	if err != nil {
		return User{}, fmt.Errorf("load state: %w", err)
	}

	if saved != state {
		return User{}, ErrAuthFailed
	}

	usr, err := p.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			if rerr.Response != nil {
				if rerr.Response.StatusCode == http.StatusBadRequest || rerr.Response.StatusCode == http.StatusUnauthorized {
					return User{}, ErrAuthFailed
				}
			}
		}

		return User{}, fmt.Errorf("exchange: %w", err)
	}

	if usr.Nonce == "" {
		return User{}, ErrAuthFailed
	}

	nonce, err := env.Load("nonce")
	if err != nil {
		return User{}, fmt.Errorf("load nonce: %w", err)
	}

	if usr.Nonce != nonce {
		return User{}, ErrAuthFailed
	}

	return usr, nil
}

func (a *Authenticator) getProvider(name string) (identityProvider, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, ok := a.providers[name]
	if !ok {
		return nil, ErrProviderNotFound
	}

	return p, nil
}
