package service

import (
	"context"
	"errors"
	"io"

	"github.com/gamma-omg/bookstore/internal/oauth"
	"github.com/gamma-omg/bookstore/internal/store"
	"github.com/gamma-omg/bookstore/internal/token"
)

type mockStore struct {
	createUserFunc     func(ctx context.Context, r store.CreateUserRequest) (store.User, error)
	getUserFunc        func(ctx context.Context, uid string) (store.User, error)
	getUserByEmailFunc func(ctx context.Context, email string) (store.User, error)
	getUsersFunc       func(ctx context.Context) ([]store.User, error)
	updateUserFunc     func(ctx context.Context, r store.UpdateUserRequest) (store.User, error)
	deleteUserFunc     func(ctx context.Context, uid string) error
	setUserAvatarFunc  func(ctx context.Context, uid, url string) error
	createPurchaseFunc func(ctx context.Context, r store.CreatePurchaseRequest) (store.Purchase, error)
	getPurchasesFunc   func(ctx context.Context, uid string) ([]store.Purchase, error)
	deletePurchaseFunc func(ctx context.Context, uid string, purchaseID int64) error
	createBookFunc     func(ctx context.Context, r store.CreateBookRequest) (store.Book, error)
	getBookFunc        func(ctx context.Context, id int64) (store.Book, error)
	getBooksFunc       func(ctx context.Context, r store.GetBooksRequest) ([]store.Book, int64, error)
	updateBookFunc     func(ctx context.Context, r store.UpdateBookRequest) (store.Book, error)
	deleteBookFunc     func(ctx context.Context, id int64) error
	createAuthorFunc   func(ctx context.Context, r store.CreateAuthorRequest) (store.Author, error)
	getAuthorFunc      func(ctx context.Context, id int64) (store.Author, error)
	getAuthorsFunc     func(ctx context.Context) ([]store.Author, error)
	updateAuthorFunc   func(ctx context.Context, r store.UpdateAuthorRequest) (store.Author, error)
	deleteAuthorFunc   func(ctx context.Context, id int64) error
}

func (m *mockStore) CreateUser(ctx context.Context, r store.CreateUserRequest) (store.User, error) {
	return m.createUserFunc(ctx, r)
}

func (m *mockStore) GetUser(ctx context.Context, uid string) (store.User, error) {
	return m.getUserFunc(ctx, uid)
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	return m.getUserByEmailFunc(ctx, email)
}

func (m *mockStore) GetUsers(ctx context.Context) ([]store.User, error) {
	return m.getUsersFunc(ctx)
}

func (m *mockStore) UpdateUser(ctx context.Context, r store.UpdateUserRequest) (store.User, error) {
	return m.updateUserFunc(ctx, r)
}

func (m *mockStore) DeleteUser(ctx context.Context, uid string) error {
	return m.deleteUserFunc(ctx, uid)
}

func (m *mockStore) SetUserAvatar(ctx context.Context, uid, url string) error {
	return m.setUserAvatarFunc(ctx, uid, url)
}

func (m *mockStore) CreatePurchase(ctx context.Context, r store.CreatePurchaseRequest) (store.Purchase, error) {
	return m.createPurchaseFunc(ctx, r)
}

func (m *mockStore) GetPurchases(ctx context.Context, uid string) ([]store.Purchase, error) {
	return m.getPurchasesFunc(ctx, uid)
}

func (m *mockStore) DeletePurchase(ctx context.Context, uid string, purchaseID int64) error {
	return m.deletePurchaseFunc(ctx, uid, purchaseID)
}

func (m *mockStore) CreateBook(ctx context.Context, r store.CreateBookRequest) (store.Book, error) {
	return m.createBookFunc(ctx, r)
}

func (m *mockStore) GetBook(ctx context.Context, id int64) (store.Book, error) {
	return m.getBookFunc(ctx, id)
}

func (m *mockStore) GetBooks(ctx context.Context, r store.GetBooksRequest) ([]store.Book, int64, error) {
	return m.getBooksFunc(ctx, r)
}

func (m *mockStore) UpdateBook(ctx context.Context, r store.UpdateBookRequest) (store.Book, error) {
	return m.updateBookFunc(ctx, r)
}

func (m *mockStore) DeleteBook(ctx context.Context, id int64) error {
	return m.deleteBookFunc(ctx, id)
}

func (m *mockStore) CreateAuthor(ctx context.Context, r store.CreateAuthorRequest) (store.Author, error) {
	return m.createAuthorFunc(ctx, r)
}

func (m *mockStore) GetAuthor(ctx context.Context, id int64) (store.Author, error) {
	return m.getAuthorFunc(ctx, id)
}

func (m *mockStore) GetAuthors(ctx context.Context) ([]store.Author, error) {
	return m.getAuthorsFunc(ctx)
}

func (m *mockStore) UpdateAuthor(ctx context.Context, r store.UpdateAuthorRequest) (store.Author, error) {
	return m.updateAuthorFunc(ctx, r)
}

func (m *mockStore) DeleteAuthor(ctx context.Context, id int64) error {
	return m.deleteAuthorFunc(ctx, id)
}

func (m *mockStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return fn(m)
}

type mockAuthenticator struct {
	loginFunc    func(env oauth.Env, providerName string, state, nonce string) (string, error)
	exchangeFunc func(ctx context.Context, env oauth.Env, providerName, code, state string) (oauth.User, error)
}

func (m *mockAuthenticator) LoginURL(env oauth.Env, providerName string, state, nonce string) (string, error) {
	return m.loginFunc(env, providerName, state, nonce)
}

func (m *mockAuthenticator) Exchange(ctx context.Context, env oauth.Env, providerName, code, state string) (oauth.User, error) {
	return m.exchangeFunc(ctx, env, providerName, code, state)
}

type mockTokenIssuer struct {
	issueFunc func(id token.Identity) (string, error)
}

func (m *mockTokenIssuer) Issue(id token.Identity) (string, error) {
	return m.issueFunc(id)
}

type mockEmailSender struct {
	sendWelcomeFunc func(ctx context.Context, to, name string) error
}

func (m *mockEmailSender) SendWelcome(ctx context.Context, to, name string) error {
	return m.sendWelcomeFunc(ctx, to, name)
}

type mockUploader struct {
	uploadFunc func(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	deleteFunc func(ctx context.Context, key string) error
}

func (m *mockUploader) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	return m.uploadFunc(ctx, key, r, size, contentType)
}

func (m *mockUploader) Delete(ctx context.Context, key string) error {
	if m.deleteFunc == nil {
		return nil
	}
	return m.deleteFunc(ctx, key)
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
