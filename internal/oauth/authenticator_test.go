package oauth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type mockIdentityProvider struct {
	loginFunc    func(state, nonce string) (string, error)
	exchangeFunc func(ctx context.Context, code string) (User, error)
}

func (m *mockIdentityProvider) LoginURL(state, nonce string) (string, error) {
	return m.loginFunc(state, nonce)
}

func (m *mockIdentityProvider) Exchange(ctx context.Context, code string) (User, error) {
	return m.exchangeFunc(ctx, code)
}

type memEnv struct {
	store map[string]string
}

func newMemEnv() *memEnv {
	return &memEnv{
		store: make(map[string]string),
	}
}

func (m *memEnv) Save(key, val string) error {
	m.store[key] = val
	return nil
}

func (m *memEnv) Load(key string) (string, error) {
	val, ok := m.store[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return val, nil
}

type mockEnv struct {
	saveFunc func(key, val string) error
	loadFunc func(key string) (string, error)
}

func (m *mockEnv) Save(key, val string) error {
	return m.saveFunc(key, val)
}

func (m *mockEnv) Load(key string) (string, error) {
	return m.loadFunc(key)
}

func goodProvider(usr User) *mockIdentityProvider {
	return &mockIdentityProvider{
		loginFunc: func(state, nonce string) (string, error) {
			return "http://provider.example/login", nil
		},
		exchangeFunc: func(ctx context.Context, code string) (User, error) {
			return usr, nil
		},
	}
}

func handshakeEnv(t *testing.T) *memEnv {
	t.Helper()

	env := newMemEnv()
	err := errors.Join(
		env.Save("state", "valid_state"),
		env.Save("nonce", "valid_nonce"),
	)
	require.NoError(t, err)
	return env
}

func TestAuthenticator_Use_Conflict(t *testing.T) {
	a := NewAuthenticator()
	require.NoError(t, a.Use("google", goodProvider(User{})))

	err := a.Use("google", goodProvider(User{}))
	require.ErrorIs(t, err, ErrProviderConflict)
}

func TestAuthenticator_Providers(t *testing.T) {
	a := NewAuthenticator()
	require.Empty(t, a.Providers())

	require.NoError(t, a.Use("google", goodProvider(User{})))
	require.Equal(t, []string{"google"}, a.Providers())
}

func TestAuthenticator_LoginURL(t *testing.T) {
	a := NewAuthenticator()
	a.Use("google", goodProvider(User{}))

	env := newMemEnv()
	url, err := a.LoginURL(env, "google", "some_state", "some_nonce")
	require.NoError(t, err)
	require.Equal(t, "http://provider.example/login", url)
	require.Equal(t, "some_state", env.store["state"])
	require.Equal(t, "some_nonce", env.store["nonce"])
}

func TestAuthenticator_LoginURL_ProviderNotFound(t *testing.T) {
	a := NewAuthenticator()

	_, err := a.LoginURL(newMemEnv(), "missing", "state", "nonce")
	require.ErrorIs(t, err, ErrProviderNotFound)
}

func TestAuthenticator_LoginURL_EnvSaveError(t *testing.T) {
	a := NewAuthenticator()
	a.Use("google", goodProvider(User{}))

	brokenEnv := &mockEnv{
		saveFunc: func(key, val string) error {
			return errors.New("save error")
		},
		loadFunc: func(key string) (string, error) {
			return "", nil
		},
	}

	_, err := a.LoginURL(brokenEnv, "google", "state", "nonce")
	require.Error(t, err)
}

func TestAuthenticator_Exchange(t *testing.T) {
	a := NewAuthenticator()
	a.Use("google", goodProvider(User{
		Nonce:         "valid_nonce",
		ID:            "sub123",
		Email:         "reader@example.com",
		EmailVerified: true,
		GivenName:     "Jane",
		FamilyName:    "Reader",
		Picture:       "http://example.com/jane.png",
	}))

	usr, err := a.Exchange(context.Background(), handshakeEnv(t), "google", "auth_code", "valid_state")
	require.NoError(t, err)
	require.Equal(t, "sub123", usr.ID)
	require.Equal(t, "reader@example.com", usr.Email)
	require.Equal(t, "Jane", usr.GivenName)
	require.Equal(t, "Reader", usr.FamilyName)
	require.True(t, usr.EmailVerified)
}

func TestAuthenticator_Exchange_ProviderNotFound(t *testing.T) {
	a := NewAuthenticator()

	_, err := a.Exchange(context.Background(), newMemEnv(), "missing", "code", "state")
	require.ErrorIs(t, err, ErrProviderNotFound)
}

func TestAuthenticator_Exchange_StateMismatch(t *testing.T) {
	a := NewAuthenticator()
	a.Use("google", goodProvider(User{Nonce: "valid_nonce"}))

	_, err := a.Exchange(context.Background(), handshakeEnv(t), "google", "code", "wrong_state")
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthenticator_Exchange_MissingProviderNonce(t *testing.T) {
	a := NewAuthenticator()
	a.Use("google", goodProvider(User{Nonce: ""}))

	_, err := a.Exchange(context.Background(), handshakeEnv(t), "google", "code", "valid_state")
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthenticator_Exchange_NonceMismatch(t *testing.T) {
	a := NewAuthenticator()
	a.Use("google", goodProvider(User{Nonce: "wrong_nonce"}))

	_, err := a.Exchange(context.Background(), handshakeEnv(t), "google", "code", "valid_state")
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthenticator_Exchange_ProviderRejectsCode(t *testing.T) {
	a := NewAuthenticator()
	a.Use("google", &mockIdentityProvider{
		loginFunc: func(state, nonce string) (string, error) {
			return "", nil
		},
		exchangeFunc: func(ctx context.Context, code string) (User, error) {
			return User{}, &oauth2.RetrieveError{
				Response: &http.Response{StatusCode: http.StatusBadRequest},
			}
		},
	})

	_, err := a.Exchange(context.Background(), handshakeEnv(t), "google", "bad_code", "valid_state")
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthenticator_Exchange_ProviderError(t *testing.T) {
	a := NewAuthenticator()
	a.Use("google", &mockIdentityProvider{
		loginFunc: func(state, nonce string) (string, error) {
			return "", nil
		},
		exchangeFunc: func(ctx context.Context, code string) (User, error) {
			return User{}, errors.New("exchange error")
		},
	})

	_, err := a.Exchange(context.Background(), handshakeEnv(t), "google", "code", "valid_state")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAuthFailed)
}

func TestUser_VerifiedEmail(t *testing.T) {
	verified := User{Email: "a@example.com", EmailVerified: true}
	require.Equal(t, "a@example.com", verified.VerifiedEmail())

	unverified := User{Email: "a@example.com"}
	require.Empty(t, unverified.VerifiedEmail())
}
