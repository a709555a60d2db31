package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gamma-omg/bookstore/internal/pkg/serr"
	"github.com/gamma-omg/bookstore/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var bookCategories = []string{"horror", "fantasy", "romance", "history"}

// Books manages the catalog
type Books struct {
	store store.Store
}

type BooksOption func(*Books) *Books

func WithBooksStore(st store.Store) BooksOption {
	return func(s *Books) *Books {
		s.store = st
		return s
	}
}

func NewBooks(opts ...BooksOption) *Books {
	s := &Books{}
	for _, opt := range opts {
		s = opt(s)
	}

	if s.store == nil {
		panic("store is required")
	}

	return s
}

type CreateBookRequest struct {
	ASIN       string
	Title      string
	Img        string
	PriceCents int64
	Category   string
	AuthorIDs  []int64
}

func (s *Books) CreateBook(ctx context.Context, r CreateBookRequest) (store.Book, error) {
	v := newValidator()
	v.require("asin", r.ASIN)
	v.require("title", r.Title)
	v.oneOf("category", r.Category, bookCategories)
	v.positive("price", r.PriceCents)
	if err := v.err(); err != nil {
		return store.Book{}, err
	}

	var book store.Book
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		var err error
		book, err = tx.CreateBook(ctx, store.CreateBookRequest{
			ASIN:       r.ASIN,
			Title:      r.Title,
			Img:        r.Img,
			PriceCents: r.PriceCents,
			Category:   r.Category,
			AuthorIDs:  r.AuthorIDs,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrExists) {
			return store.Book{}, serr.NewServiceError(err, http.StatusConflict, "book already exists")
		}

		if errors.Is(err, store.ErrNotFound) {
			return store.Book{}, serr.NewServiceError(err, http.StatusBadRequest, "unknown author")
		}

		return store.Book{}, fmt.Errorf("create book: %w", err)
	}

	return book, nil
}

func (s *Books) GetBook(ctx context.Context, id int64) (store.Book, error) {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Book{}, errBookNotFound(err, id)
		}

		return store.Book{}, fmt.Errorf("get book: %w", err)
	}

	return book, nil
}

type GetBooksRequest struct {
	Category string
	Limit    int
	Offset   int
}

type GetBooksResponse struct {
	Books []store.Book
	Total int64
}

// GetBooks returns one catalog page. An unknown category is rejected rather
// than silently matching nothing.
func (s *Books) GetBooks(ctx context.Context, r GetBooksRequest) (GetBooksResponse, error) {
	if r.Category != "" {
		v := newValidator()
		v.oneOf("category", r.Category, bookCategories)
		if err := v.err(); err != nil {
			return GetBooksResponse{}, err
		}
	}

	if r.Limit <= 0 {
		r.Limit = defaultPageSize
	}
	if r.Limit > maxPageSize {
		r.Limit = maxPageSize
	}
	if r.Offset < 0 {
		r.Offset = 0
	}

	books, total, err := s.store.GetBooks(ctx, store.GetBooksRequest{
		Category: r.Category,
		Limit:    r.Limit,
		Offset:   r.Offset,
	})
	if err != nil {
		return GetBooksResponse{}, fmt.Errorf("get books: %w", err)
	}

	return GetBooksResponse{Books: books, Total: total}, nil
}

type UpdateBookRequest struct {
	ID         int64
	Title      string
	Img        string
	PriceCents int64
	Category   string
	AuthorIDs  []int64
}

func (s *Books) UpdateBook(ctx context.Context, r UpdateBookRequest) (store.Book, error) {
	v := newValidator()
	v.require("title", r.Title)
	v.oneOf("category", r.Category, bookCategories)
	v.positive("price", r.PriceCents)
	if err := v.err(); err != nil {
		return store.Book{}, err
	}

	var book store.Book
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		var err error
		book, err = tx.UpdateBook(ctx, store.UpdateBookRequest{
			ID:         r.ID,
			Title:      r.Title,
			Img:        r.Img,
			PriceCents: r.PriceCents,
			Category:   r.Category,
			AuthorIDs:  r.AuthorIDs,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Book{}, errBookNotFound(err, r.ID)
		}

		return store.Book{}, fmt.Errorf("update book: %w", err)
	}

	return book, nil
}

func (s *Books) DeleteBook(ctx context.Context, id int64) error {
	err := s.store.DeleteBook(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errBookNotFound(err, id)
		}

		return fmt.Errorf("delete book: %w", err)
	}

	return nil
}

func errBookNotFound(err error, id int64) error {
	sErr := serr.NewServiceError(err, http.StatusNotFound, "book not found")
	sErr.Env["book_id"] = fmt.Sprint(id)
	return sErr
}
