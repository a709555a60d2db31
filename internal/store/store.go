package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

type Store interface {
	UserStore
	BookStore
	AuthorStore
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type UserStore interface {
	CreateUser(ctx context.Context, r CreateUserRequest) (User, error)
	GetUser(ctx context.Context, uid string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, r UpdateUserRequest) (User, error)
	DeleteUser(ctx context.Context, uid string) error
	SetUserAvatar(ctx context.Context, uid, url string) error
	CreatePurchase(ctx context.Context, r CreatePurchaseRequest) (Purchase, error)
	GetPurchases(ctx context.Context, uid string) ([]Purchase, error)
	DeletePurchase(ctx context.Context, uid string, purchaseID int64) error
}

type BookStore interface {
	CreateBook(ctx context.Context, r CreateBookRequest) (Book, error)
	GetBook(ctx context.Context, id int64) (Book, error)
	GetBooks(ctx context.Context, r GetBooksRequest) ([]Book, int64, error)
	UpdateBook(ctx context.Context, r UpdateBookRequest) (Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

type AuthorStore interface {
	CreateAuthor(ctx context.Context, r CreateAuthorRequest) (Author, error)
	GetAuthor(ctx context.Context, id int64) (Author, error)
	GetAuthors(ctx context.Context) ([]Author, error)
	UpdateAuthor(ctx context.Context, r UpdateAuthorRequest) (Author, error)
	DeleteAuthor(ctx context.Context, id int64) error
}

type CreateUserRequest struct {
	UID          string
	Email        string
	PasswordHash string
	GoogleID     string
	Name         string
	Surname      string
	Role         string
	AvatarURL    string
}

type UpdateUserRequest struct {
	UID     string
	Name    string
	Surname string
	Email   string
}

type CreatePurchaseRequest struct {
	UserUID    string
	BookID     int64
	Title      string
	Category   string
	PriceCents int64
}

type CreateBookRequest struct {
	ASIN       string
	Title      string
	Img        string
	PriceCents int64
	Category   string
	AuthorIDs  []int64
}

type UpdateBookRequest struct {
	ID         int64
	Title      string
	Img        string
	PriceCents int64
	Category   string
	AuthorIDs  []int64
}

type GetBooksRequest struct {
	Category string
	Limit    int
	Offset   int
}

type CreateAuthorRequest struct {
	Name string
	Img  string
}

type UpdateAuthorRequest struct {
	ID   int64
	Name string
	Img  string
}
