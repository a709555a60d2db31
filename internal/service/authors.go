package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gamma-omg/bookstore/internal/pkg/serr"
	"github.com/gamma-omg/bookstore/internal/store"
)

// Authors manages the author directory
type Authors struct {
	store store.Store
}

type AuthorsOption func(*Authors) *Authors

func WithAuthorsStore(st store.Store) AuthorsOption {
	return func(s *Authors) *Authors {
		s.store = st
		return s
	}
}

func NewAuthors(opts ...AuthorsOption) *Authors {
	s := &Authors{}
	for _, opt := range opts {
		s = opt(s)
	}

	if s.store == nil {
		panic("store is required")
	}

	return s
}

type CreateAuthorRequest struct {
	Name string
	Img  string
}

func (s *Authors) CreateAuthor(ctx context.Context, r CreateAuthorRequest) (store.Author, error) {
	v := newValidator()
	v.require("name", r.Name)
	if err := v.err(); err != nil {
		return store.Author{}, err
	}

	author, err := s.store.CreateAuthor(ctx, store.CreateAuthorRequest{
		Name: r.Name,
		Img:  r.Img,
	})
	if err != nil {
		return store.Author{}, fmt.Errorf("create author: %w", err)
	}

	return author, nil
}

func (s *Authors) GetAuthor(ctx context.Context, id int64) (store.Author, error) {
	author, err := s.store.GetAuthor(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Author{}, errAuthorNotFound(err, id)
		}

		return store.Author{}, fmt.Errorf("get author: %w", err)
	}

	return author, nil
}

func (s *Authors) GetAuthors(ctx context.Context) ([]store.Author, error) {
	authors, err := s.store.GetAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("get authors: %w", err)
	}

	return authors, nil
}

type UpdateAuthorRequest struct {
	ID   int64
	Name string
	Img  string
}

func (s *Authors) UpdateAuthor(ctx context.Context, r UpdateAuthorRequest) (store.Author, error) {
	v := newValidator()
	v.require("name", r.Name)
	if err := v.err(); err != nil {
		return store.Author{}, err
	}

	author, err := s.store.UpdateAuthor(ctx, store.UpdateAuthorRequest{
		ID:   r.ID,
		Name: r.Name,
		Img:  r.Img,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Author{}, errAuthorNotFound(err, r.ID)
		}

		return store.Author{}, fmt.Errorf("update author: %w", err)
	}

	return author, nil
}

func (s *Authors) DeleteAuthor(ctx context.Context, id int64) error {
	err := s.store.DeleteAuthor(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errAuthorNotFound(err, id)
		}

		return fmt.Errorf("delete author: %w", err)
	}

	return nil
}

func errAuthorNotFound(err error, id int64) error {
	sErr := serr.NewServiceError(err, http.StatusNotFound, "author not found")
	sErr.Env["author_id"] = fmt.Sprint(id)
	return sErr
}
