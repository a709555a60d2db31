package rest

import (
	"context"
	"testing"
	"time"

	"github.com/gamma-omg/bookstore/internal/oauth"
	"github.com/gamma-omg/bookstore/internal/pkg/middleware"
	"github.com/gamma-omg/bookstore/internal/pkg/router"
	"github.com/gamma-omg/bookstore/internal/service"
	"github.com/gamma-omg/bookstore/internal/store"
	"github.com/gamma-omg/bookstore/internal/token"
	"github.com/stretchr/testify/require"
)

type mockAuthService struct {
	registerFunc     func(ctx context.Context, r service.RegisterRequest) (store.User, error)
	loginFunc        func(ctx context.Context, r service.LoginRequest) (service.LoginResponse, error)
	loginURLFunc     func(env oauth.Env, provider string) (string, error)
	authCallbackFunc func(ctx context.Context, env oauth.Env, r service.AuthCallbackRequest) (service.AuthCallbackResponse, error)
}

func (m *mockAuthService) Register(ctx context.Context, r service.RegisterRequest) (store.User, error) {
	return m.registerFunc(ctx, r)
}

func (m *mockAuthService) Login(ctx context.Context, r service.LoginRequest) (service.LoginResponse, error) {
	return m.loginFunc(ctx, r)
}

func (m *mockAuthService) LoginURL(env oauth.Env, provider string) (string, error) {
	return m.loginURLFunc(env, provider)
}

func (m *mockAuthService) AuthCallback(ctx context.Context, env oauth.Env, r service.AuthCallbackRequest) (service.AuthCallbackResponse, error) {
	return m.authCallbackFunc(ctx, env, r)
}

type mockUsersService struct {
	getUsersFunc       func(ctx context.Context) ([]store.User, error)
	getUserFunc        func(ctx context.Context, uid string) (store.User, error)
	updateUserFunc     func(ctx context.Context, r service.UpdateUserRequest) (store.User, error)
	deleteUserFunc     func(ctx context.Context, uid string) error
	addPurchaseFunc    func(ctx context.Context, uid string, bookID int64) (store.Purchase, error)
	getPurchasesFunc   func(ctx context.Context, uid string) ([]store.Purchase, error)
	deletePurchaseFunc func(ctx context.Context, uid string, purchaseID int64) error
	sendEmailFunc      func(ctx context.Context, r service.SendEmailRequest) error
}

func (m *mockUsersService) GetUsers(ctx context.Context) ([]store.User, error) {
	return m.getUsersFunc(ctx)
}

func (m *mockUsersService) GetUser(ctx context.Context, uid string) (store.User, error) {
	return m.getUserFunc(ctx, uid)
}

func (m *mockUsersService) UpdateUser(ctx context.Context, r service.UpdateUserRequest) (store.User, error) {
	return m.updateUserFunc(ctx, r)
}

func (m *mockUsersService) DeleteUser(ctx context.Context, uid string) error {
	return m.deleteUserFunc(ctx, uid)
}

func (m *mockUsersService) AddPurchase(ctx context.Context, uid string, bookID int64) (store.Purchase, error) {
	return m.addPurchaseFunc(ctx, uid, bookID)
}

func (m *mockUsersService) GetPurchases(ctx context.Context, uid string) ([]store.Purchase, error) {
	return m.getPurchasesFunc(ctx, uid)
}

func (m *mockUsersService) DeletePurchase(ctx context.Context, uid string, purchaseID int64) error {
	return m.deletePurchaseFunc(ctx, uid, purchaseID)
}

func (m *mockUsersService) SendEmail(ctx context.Context, r service.SendEmailRequest) error {
	return m.sendEmailFunc(ctx, r)
}

type mockBooksService struct {
	createBookFunc func(ctx context.Context, r service.CreateBookRequest) (store.Book, error)
	getBookFunc    func(ctx context.Context, id int64) (store.Book, error)
	getBooksFunc   func(ctx context.Context, r service.GetBooksRequest) (service.GetBooksResponse, error)
	updateBookFunc func(ctx context.Context, r service.UpdateBookRequest) (store.Book, error)
	deleteBookFunc func(ctx context.Context, id int64) error
}

func (m *mockBooksService) CreateBook(ctx context.Context, r service.CreateBookRequest) (store.Book, error) {
	return m.createBookFunc(ctx, r)
}

func (m *mockBooksService) GetBook(ctx context.Context, id int64) (store.Book, error) {
	return m.getBookFunc(ctx, id)
}

func (m *mockBooksService) GetBooks(ctx context.Context, r service.GetBooksRequest) (service.GetBooksResponse, error) {
	return m.getBooksFunc(ctx, r)
}

func (m *mockBooksService) UpdateBook(ctx context.Context, r service.UpdateBookRequest) (store.Book, error) {
	return m.updateBookFunc(ctx, r)
}

func (m *mockBooksService) DeleteBook(ctx context.Context, id int64) error {
	return m.deleteBookFunc(ctx, id)
}

type mockFilesService struct {
	saveAvatarFunc func(ctx context.Context, r service.SaveAvatarRequest) (string, error)
}

func (m *mockFilesService) SaveAvatar(ctx context.Context, r service.SaveAvatarRequest) (string, error) {
	return m.saveAvatarFunc(ctx, r)
}

// testGuards builds the real middleware chain around a real token issuer so
// route tests exercise the same 401/403 behavior production sees.
func testGuards(t *testing.T) (*token.Issuer, router.Middleware, router.Middleware) {
	t.Helper()

	iss := token.NewIssuer(token.Config{
		Secret: token.NewSecretString("test_secret"),
		TTL:    time.Hour,
	})
	return iss, middleware.Auth(iss), middleware.RequireAdmin()
}

func bearerFor(t *testing.T, iss *token.Issuer, uid string, role token.Role) string {
	t.Helper()

	raw, err := iss.Issue(token.Identity{UID: uid, Role: role})
	require.NoError(t, err)
	return raw
}
