package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamma-omg/bookstore/internal/credentials"
	"github.com/gamma-omg/bookstore/internal/oauth"
	"github.com/gamma-omg/bookstore/internal/pkg/serr"
	"github.com/gamma-omg/bookstore/internal/store"
	"github.com/gamma-omg/bookstore/internal/token"
)

func newTestAuth(st store.Store, opts ...AuthOption) *Auth {
	base := []AuthOption{
		WithAuthenticator(&mockAuthenticator{}),
		WithAuthStore(st),
		WithAccessToken(&mockTokenIssuer{
			issueFunc: func(id token.Identity) (string, error) {
				return "test_token", nil
			},
		}),
		WithFrontendURL("http://fe.example"),
	}

	return NewAuth(append(base, opts...)...)
}

func requireStatus(t *testing.T, err error, status int) *serr.ServiceError {
	t.Helper()

	var sErr *serr.ServiceError
	require.ErrorAs(t, err, &sErr)
	require.Equal(t, status, sErr.StatusCode)
	return sErr
}

func TestAuth_Register(t *testing.T) {
	var created store.CreateUserRequest
	st := &mockStore{
		createUserFunc: func(ctx context.Context, r store.CreateUserRequest) (store.User, error) {
			created = r
			return store.User{UID: r.UID, Email: r.Email, Name: r.Name, Role: r.Role}, nil
		},
	}

	srv := newTestAuth(st)
	usr, err := srv.Register(context.Background(), RegisterRequest{
		Name:     "Jane",
		Surname:  "Reader",
		Email:    "jane@example.com",
		Password: "long enough password",
	})
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", usr.Email)
	assert.Equal(t, string(token.RoleUser), created.Role)
	assert.NoError(t, uuid.Validate(created.UID))

	assert.NotEqual(t, "long enough password", created.PasswordHash)
	assert.True(t, credentials.Verify(created.PasswordHash, "long enough password"))
}

func TestAuth_Register_Validation(t *testing.T) {
	st := &mockStore{
		createUserFunc: func(ctx context.Context, r store.CreateUserRequest) (store.User, error) {
			t.Fatal("store must not be called")
			return store.User{}, nil
		},
	}

	srv := newTestAuth(st)
	_, err := srv.Register(context.Background(), RegisterRequest{
		Name:     "",
		Surname:  "",
		Email:    "not-an-email",
		Password: "short",
	})

	sErr := requireStatus(t, err, http.StatusBadRequest)
	assert.Contains(t, sErr.Msg, "name")
	assert.Contains(t, sErr.Msg, "surname")
	assert.Contains(t, sErr.Msg, "email")
	assert.Contains(t, sErr.Msg, "password")
}

// An account registered without a password can only be entered through
// federation, but the registration itself must go through.
func TestAuth_Register_Passwordless(t *testing.T) {
	var created store.CreateUserRequest
	st := &mockStore{
		createUserFunc: func(ctx context.Context, r store.CreateUserRequest) (store.User, error) {
			created = r
			return store.User{UID: r.UID, Email: r.Email, Name: r.Name, Role: r.Role}, nil
		},
	}

	srv := newTestAuth(st)
	usr, err := srv.Register(context.Background(), RegisterRequest{
		Name:    "A",
		Surname: "B",
		Email:   "a@b.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "a@b.com", usr.Email)
	assert.Empty(t, created.PasswordHash)
	assert.Empty(t, created.GoogleID)
}

func TestAuth_Register_DuplicateEmail(t *testing.T) {
	st := &mockStore{
		createUserFunc: func(ctx context.Context, r store.CreateUserRequest) (store.User, error) {
			return store.User{}, store.ErrExists
		},
	}

	srv := newTestAuth(st)
	_, err := srv.Register(context.Background(), RegisterRequest{
		Name:     "Jane",
		Surname:  "Reader",
		Email:    "jane@example.com",
		Password: "long enough password",
	})

	requireStatus(t, err, http.StatusConflict)
}

func TestAuth_Register_EmailFailureIgnored(t *testing.T) {
	st := &mockStore{
		createUserFunc: func(ctx context.Context, r store.CreateUserRequest) (store.User, error) {
			return store.User{UID: r.UID, Email: r.Email}, nil
		},
	}

	srv := newTestAuth(st, WithWelcomeEmail(&mockEmailSender{
		sendWelcomeFunc: func(ctx context.Context, to, name string) error {
			return errors.New("smtp down")
		},
	}))

	_, err := srv.Register(context.Background(), RegisterRequest{
		Name:     "Jane",
		Surname:  "Reader",
		Email:    "jane@example.com",
		Password: "long enough password",
	})
	require.NoError(t, err)
}

func TestAuth_Login(t *testing.T) {
	hash, err := credentials.Hash("correct password")
	require.NoError(t, err)

	st := &mockStore{
		getUserByEmailFunc: func(ctx context.Context, email string) (store.User, error) {
			require.Equal(t, "jane@example.com", email)
			return store.User{UID: "uid-1", PasswordHash: hash, Role: "User"}, nil
		},
	}

	var issued token.Identity
	srv := newTestAuth(st, WithAccessToken(&mockTokenIssuer{
		issueFunc: func(id token.Identity) (string, error) {
			issued = id
			return "signed_token", nil
		},
	}))

	resp, err := srv.Login(context.Background(), LoginRequest{
		Email:    "jane@example.com",
		Password: "correct password",
	})
	require.NoError(t, err)
	assert.Equal(t, "signed_token", resp.AccessToken)
	assert.Equal(t, token.Identity{UID: "uid-1", Role: token.RoleUser}, issued)
}

// Unknown email, wrong password and federation-only accounts must be
// indistinguishable to the caller.
func TestAuth_Login_UniformFailure(t *testing.T) {
	hash, err := credentials.Hash("correct password")
	require.NoError(t, err)

	cases := map[string]struct {
		getUser func(ctx context.Context, email string) (store.User, error)
		pass    string
	}{
		"unknown email": {
			getUser: func(ctx context.Context, email string) (store.User, error) {
				return store.User{}, store.ErrNotFound
			},
			pass: "correct password",
		},
		"wrong password": {
			getUser: func(ctx context.Context, email string) (store.User, error) {
				return store.User{UID: "uid-1", PasswordHash: hash, Role: "User"}, nil
			},
			pass: "wrong password",
		},
		"passwordless account": {
			getUser: func(ctx context.Context, email string) (store.User, error) {
				return store.User{UID: "uid-1", GoogleID: "sub123", Role: "User"}, nil
			},
			pass: "correct password",
		},
	}

	var msgs []string
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newTestAuth(&mockStore{getUserByEmailFunc: tc.getUser})
			_, err := srv.Login(context.Background(), LoginRequest{
				Email:    "jane@example.com",
				Password: tc.pass,
			})

			sErr := requireStatus(t, err, http.StatusUnauthorized)
			msgs = append(msgs, sErr.Msg)
		})
	}

	require.Len(t, msgs, 3)
	assert.Equal(t, msgs[0], msgs[1])
	assert.Equal(t, msgs[1], msgs[2])
}

func TestAuth_LoginURL(t *testing.T) {
	var gotState, gotNonce string
	srv := newTestAuth(&mockStore{}, WithAuthenticator(&mockAuthenticator{
		loginFunc: func(env oauth.Env, providerName, state, nonce string) (string, error) {
			gotState, gotNonce = state, nonce
			return "http://provider.example/login", nil
		},
	}))

	url, err := srv.LoginURL(newMemEnv(), "google")
	require.NoError(t, err)
	assert.Equal(t, "http://provider.example/login", url)
	assert.NotEmpty(t, gotState)
	assert.NotEmpty(t, gotNonce)
	assert.NotEqual(t, gotState, gotNonce)
}

func TestAuth_LoginURL_ProviderNotFound(t *testing.T) {
	srv := newTestAuth(&mockStore{}, WithAuthenticator(&mockAuthenticator{
		loginFunc: func(env oauth.Env, providerName, state, nonce string) (string, error) {
			return "", oauth.ErrProviderNotFound
		},
	}))

	_, err := srv.LoginURL(newMemEnv(), "github")
	requireStatus(t, err, http.StatusNotFound)
}

func TestAuth_AuthCallback_ExistingUser(t *testing.T) {
	st := &mockStore{
		getUserByEmailFunc: func(ctx context.Context, email string) (store.User, error) {
			return store.User{UID: "uid-1", Email: email, Role: "User"}, nil
		},
	}

	srv := newTestAuth(st, WithAuthenticator(&mockAuthenticator{
		exchangeFunc: func(ctx context.Context, env oauth.Env, providerName, code, state string) (oauth.User, error) {
			return oauth.User{
				ID:            "sub123",
				Email:         "jane@example.com",
				EmailVerified: true,
			}, nil
		},
	}))

	resp, err := srv.AuthCallback(context.Background(), newMemEnv(), AuthCallbackRequest{
		Provider: "google",
		Code:     "code",
		State:    "state",
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", resp.UID)
	assert.Equal(t, "test_token", resp.AccessToken)
	assert.Equal(t, "http://fe.example/users?accessToken=test_token", resp.RedirectURL)
}

func TestAuth_AuthCallback_CreatesUser(t *testing.T) {
	var created store.CreateUserRequest
	st := &mockStore{
		getUserByEmailFunc: func(ctx context.Context, email string) (store.User, error) {
			return store.User{}, store.ErrNotFound
		},
		createUserFunc: func(ctx context.Context, r store.CreateUserRequest) (store.User, error) {
			created = r
			return store.User{UID: r.UID, Email: r.Email, Role: r.Role}, nil
		},
	}

	srv := newTestAuth(st, WithAuthenticator(&mockAuthenticator{
		exchangeFunc: func(ctx context.Context, env oauth.Env, providerName, code, state string) (oauth.User, error) {
			return oauth.User{
				ID:            "sub123",
				Email:         "new@example.com",
				EmailVerified: true,
				GivenName:     "Jane",
				FamilyName:    "Reader",
				Picture:       "http://example.com/jane.png",
			}, nil
		},
	}))

	resp, err := srv.AuthCallback(context.Background(), newMemEnv(), AuthCallbackRequest{
		Provider: "google",
		Code:     "code",
		State:    "state",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.UID)

	assert.Equal(t, "sub123", created.GoogleID)
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, "Jane", created.Name)
	assert.Equal(t, "Reader", created.Surname)
	assert.Equal(t, "http://example.com/jane.png", created.AvatarURL)
	assert.Equal(t, string(token.RoleUser), created.Role)
	assert.Empty(t, created.PasswordHash)
}

func TestAuth_AuthCallback_AuthFailed(t *testing.T) {
	srv := newTestAuth(&mockStore{}, WithAuthenticator(&mockAuthenticator{
		exchangeFunc: func(ctx context.Context, env oauth.Env, providerName, code, state string) (oauth.User, error) {
			return oauth.User{}, oauth.ErrAuthFailed
		},
	}))

	_, err := srv.AuthCallback(context.Background(), newMemEnv(), AuthCallbackRequest{
		Provider: "google",
	})
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestAuth_AuthCallback_MissingEmail(t *testing.T) {
	srv := newTestAuth(&mockStore{}, WithAuthenticator(&mockAuthenticator{
		exchangeFunc: func(ctx context.Context, env oauth.Env, providerName, code, state string) (oauth.User, error) {
			return oauth.User{ID: "sub123"}, nil
		},
	}))

	_, err := srv.AuthCallback(context.Background(), newMemEnv(), AuthCallbackRequest{
		Provider: "google",
	})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestAuth_AuthCallback_CreateRaceFallsBack(t *testing.T) {
	var calls int
	st := &mockStore{
		getUserByEmailFunc: func(ctx context.Context, email string) (store.User, error) {
			calls++
			if calls == 1 {
				return store.User{}, store.ErrNotFound
			}
			return store.User{UID: "uid-1", Email: email, Role: "User"}, nil
		},
		createUserFunc: func(ctx context.Context, r store.CreateUserRequest) (store.User, error) {
			return store.User{}, store.ErrExists
		},
	}

	srv := newTestAuth(st, WithAuthenticator(&mockAuthenticator{
		exchangeFunc: func(ctx context.Context, env oauth.Env, providerName, code, state string) (oauth.User, error) {
			return oauth.User{ID: "sub123", Email: "jane@example.com", EmailVerified: true}, nil
		},
	}))

	resp, err := srv.AuthCallback(context.Background(), newMemEnv(), AuthCallbackRequest{
		Provider: "google",
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", resp.UID)
}
