package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"net/url"

	"github.com/google/uuid"

	"github.com/gamma-omg/bookstore/internal/credentials"
	"github.com/gamma-omg/bookstore/internal/oauth"
	"github.com/gamma-omg/bookstore/internal/pkg/serr"
	"github.com/gamma-omg/bookstore/internal/store"
	"github.com/gamma-omg/bookstore/internal/token"
)

const minPasswordLen = 8

// tokenIssuer defines the interface for issuing signed access tokens
type tokenIssuer interface {
	Issue(id token.Identity) (string, error)
}

// authenticator defines the interface for OAuth authentication flow management
type authenticator interface {
	LoginURL(env oauth.Env, providerName string, state, nonce string) (string, error)
	Exchange(ctx context.Context, env oauth.Env, providerName, code string, state string) (oauth.User, error)
}

// emailSender delivers transactional emails
type emailSender interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// Auth handles account registration, credential login and OAuth federation
type Auth struct {
	auth        authenticator
	store       store.Store
	accessToken tokenIssuer
	email       emailSender
	feURL       string
}

// AuthOption defines a functional option for configuring the Auth service
type AuthOption func(*Auth) *Auth

func WithAuthenticator(a authenticator) AuthOption {
	return func(s *Auth) *Auth {
		s.auth = a
		return s
	}
}

func WithAuthStore(st store.Store) AuthOption {
	return func(s *Auth) *Auth {
		s.store = st
		return s
	}
}

func WithAccessToken(iss tokenIssuer) AuthOption {
	return func(s *Auth) *Auth {
		s.accessToken = iss
		return s
	}
}

// WithWelcomeEmail enables the post-registration welcome email. Optional.
func WithWelcomeEmail(e emailSender) AuthOption {
	return func(s *Auth) *Auth {
		s.email = e
		return s
	}
}

func WithFrontendURL(u string) AuthOption {
	return func(s *Auth) *Auth {
		s.feURL = u
		return s
	}
}

// NewAuth creates a new Auth service with the provided options
func NewAuth(opts ...AuthOption) *Auth {
	s := &Auth{}
	for _, opt := range opts {
		s = opt(s)
	}

	if s.auth == nil {
		panic("oauth authenticator is required")
	}

	if s.store == nil {
		panic("store is required")
	}

	if s.accessToken == nil {
		panic("access token issuer is required")
	}

	if s.feURL == "" {
		panic("frontend url is required")
	}

	return s
}

type RegisterRequest struct {
	Name     string
	Surname  string
	Email    string
	Password string
}

// Register creates an account with the User role. The password is optional:
// without one the account stays locked out of credential login until it is
// claimed through federation. The welcome email is best effort: delivery
// failures are logged, never surfaced.
func (s *Auth) Register(ctx context.Context, r RegisterRequest) (store.User, error) {
	v := newValidator()
	v.require("name", r.Name)
	v.require("surname", r.Surname)
	v.email("email", r.Email)
	if r.Password != "" {
		v.minLen("password", r.Password, minPasswordLen)
	}
	if err := v.err(); err != nil {
		return store.User{}, err
	}

	var hash string
	if r.Password != "" {
		var err error
		hash, err = credentials.Hash(r.Password)
		if err != nil {
			return store.User{}, fmt.Errorf("hash password: %w", err)
		}
	}

	usr, err := s.store.CreateUser(ctx, store.CreateUserRequest{
		UID:          uuid.NewString(),
		Email:        r.Email,
		PasswordHash: hash,
		Name:         r.Name,
		Surname:      r.Surname,
		Role:         string(token.RoleUser),
	})
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			return store.User{}, serr.NewServiceError(err, http.StatusConflict, "email is already registered")
		}

		return store.User{}, fmt.Errorf("create user: %w", err)
	}

	if s.email != nil {
		if err := s.email.SendWelcome(ctx, usr.Email, usr.Name); err != nil {
			slog.Error("send welcome email", "error", err)
		}
	}

	return usr, nil
}

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResponse struct {
	AccessToken string
}

// Login verifies credentials and issues an access token. Unknown email, wrong
// password and passwordless accounts all produce the same response so the
// endpoint cannot be used to probe for registered emails.
func (s *Auth) Login(ctx context.Context, r LoginRequest) (LoginResponse, error) {
	usr, err := s.store.GetUserByEmail(ctx, r.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResponse{}, errInvalidCredentials(err)
		}

		return LoginResponse{}, fmt.Errorf("get user: %w", err)
	}

	if !credentials.Verify(usr.PasswordHash, r.Password) {
		return LoginResponse{}, errInvalidCredentials(errors.New("password mismatch"))
	}

	at, err := s.issueToken(usr)
	if err != nil {
		return LoginResponse{}, err
	}

	return LoginResponse{AccessToken: at}, nil
}

// LoginURL generates a login URL for the specified provider
func (s *Auth) LoginURL(env oauth.Env, provider string) (string, error) {
	state := randString(32)
	nonce := randString(32)

	url, err := s.auth.LoginURL(env, provider, state, nonce)
	if err != nil {
		if errors.Is(err, oauth.ErrProviderNotFound) {
			sErr := serr.NewServiceError(err, http.StatusNotFound, "oauth provider not found")
			sErr.Env["provider"] = provider
			return "", sErr
		}

		return "", fmt.Errorf("login url: %w", err)
	}

	return url, nil
}

type AuthCallbackRequest struct {
	Provider string
	Code     string
	State    string
}

type AuthCallbackResponse struct {
	UID         string
	Email       string
	AccessToken string
	RedirectURL string
}

// AuthCallback completes the OAuth handshake, maps the external profile onto
// a local account by email and issues an access token.
func (s *Auth) AuthCallback(ctx context.Context, env oauth.Env, r AuthCallbackRequest) (AuthCallbackResponse, error) {
	usr, err := s.auth.Exchange(ctx, env, r.Provider, r.Code, r.State)
	if err != nil {
		if errors.Is(err, oauth.ErrProviderNotFound) {
			sErr := serr.NewServiceError(err, http.StatusNotFound, "oauth provider not found")
			sErr.Env["provider"] = r.Provider
			return AuthCallbackResponse{}, sErr
		}

		if errors.Is(err, oauth.ErrAuthFailed) {
			sErr := serr.NewServiceError(err, http.StatusUnauthorized, "authentication failed")
			sErr.Env["provider"] = r.Provider
			return AuthCallbackResponse{}, sErr
		}

		return AuthCallbackResponse{}, fmt.Errorf("exchange: %w", err)
	}

	if usr.Email == "" {
		sErr := serr.NewServiceError(errors.New("profile has no email"), http.StatusBadRequest, "provider profile is incomplete")
		sErr.Env["provider"] = r.Provider
		return AuthCallbackResponse{}, sErr
	}

	if !usr.EmailVerified {
		slog.Warn("provider email is not verified", "provider", r.Provider)
	}

	acc, err := s.getOrCreateUser(ctx, usr)
	if err != nil {
		return AuthCallbackResponse{}, fmt.Errorf("get or create user: %w", err)
	}

	at, err := s.issueToken(acc)
	if err != nil {
		return AuthCallbackResponse{}, err
	}

	return AuthCallbackResponse{
		UID:         acc.UID,
		Email:       acc.Email,
		AccessToken: at,
		RedirectURL: fmt.Sprintf("%s/users?accessToken=%s", s.feURL, url.QueryEscape(at)),
	}, nil
}

// getOrCreateUser maps a federated profile onto a local account. Accounts are
// matched by exact email; a miss creates a passwordless account.
func (s *Auth) getOrCreateUser(ctx context.Context, usr oauth.User) (store.User, error) {
	acc, err := s.store.GetUserByEmail(ctx, usr.Email)
	if err == nil {
		return acc, nil
	}

	if !errors.Is(err, store.ErrNotFound) {
		return store.User{}, fmt.Errorf("get user by email: %w", err)
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		acc, err = tx.CreateUser(ctx, store.CreateUserRequest{
			UID:       uuid.NewString(),
			Email:     usr.Email,
			GoogleID:  usr.ID,
			Name:      firstNonEmpty(usr.GivenName, usr.Name),
			Surname:   usr.FamilyName,
			Role:      string(token.RoleUser),
			AvatarURL: usr.Picture,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		return nil
	})
	if err != nil {
		// lost the race against a concurrent callback for the same email
		if errors.Is(err, store.ErrExists) {
			return s.store.GetUserByEmail(ctx, usr.Email)
		}

		return store.User{}, fmt.Errorf("with tx: %w", err)
	}

	return acc, nil
}

func (s *Auth) issueToken(usr store.User) (string, error) {
	role := token.Role(usr.Role)
	if !role.Valid() {
		return "", fmt.Errorf("account has unknown role %q", usr.Role)
	}

	at, err := s.accessToken.Issue(token.Identity{UID: usr.UID, Role: role})
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	return at, nil
}

func errInvalidCredentials(err error) error {
	return serr.NewServiceError(err, http.StatusUnauthorized, "invalid email or password")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// randString generates a random state string of the specified size
func randString(size int) string {
	b := make([]byte, size)

	// rand.Read never returns an error
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func validEmail(addr string) bool {
	a, err := mail.ParseAddress(addr)
	return err == nil && a.Address == addr
}
