package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gamma-omg/bookstore/internal/pkg/httpx"
	"github.com/gamma-omg/bookstore/internal/pkg/router"
	"github.com/gamma-omg/bookstore/internal/service"
	"github.com/gamma-omg/bookstore/internal/store"
)

type authorsService interface {
	CreateAuthor(ctx context.Context, r service.CreateAuthorRequest) (store.Author, error)
	GetAuthor(ctx context.Context, id int64) (store.Author, error)
	GetAuthors(ctx context.Context) ([]store.Author, error)
	UpdateAuthor(ctx context.Context, r service.UpdateAuthorRequest) (store.Author, error)
	DeleteAuthor(ctx context.Context, id int64) error
}

// AuthorsAPI serves the author directory. Reads are public, writes admin-only.
type AuthorsAPI struct {
	authors authorsService
	authn   router.Middleware
	admin   router.Middleware
	mux     *http.ServeMux
}

func NewAuthorsAPI(authors authorsService, authn, admin router.Middleware) *AuthorsAPI {
	api := &AuthorsAPI{
		authors: authors,
		authn:   authn,
		admin:   admin,
		mux:     http.NewServeMux(),
	}
	api.mount()
	return api
}

func (a *AuthorsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *AuthorsAPI) mount() {
	a.mux.HandleFunc("GET /{$}", a.handleGetAuthors)
	a.mux.HandleFunc("GET /{authorId}", a.handleGetAuthor)

	a.mux.Handle("POST /{$}", wrap(http.HandlerFunc(a.handleCreateAuthor), a.authn, a.admin))
	a.mux.Handle("PUT /{authorId}", wrap(http.HandlerFunc(a.handleUpdateAuthor), a.authn, a.admin))
	a.mux.Handle("DELETE /{authorId}", wrap(http.HandlerFunc(a.handleDeleteAuthor), a.authn, a.admin))
}

type authorRequest struct {
	Name string `json:"name"`
	Img  string `json:"img"`
}

func (a *AuthorsAPI) handleCreateAuthor(w http.ResponseWriter, r *http.Request) {
	var req authorRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	author, err := a.authors.CreateAuthor(r.Context(), service.CreateAuthorRequest{
		Name: req.Name,
		Img:  req.Img,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, toAuthorResponse(author)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *AuthorsAPI) handleGetAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := a.authors.GetAuthors(r.Context())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	resp := make([]authorResponse, 0, len(authors))
	for _, author := range authors {
		resp = append(resp, toAuthorResponse(author))
	}

	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *AuthorsAPI) handleGetAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := authorID(w, r)
	if !ok {
		return
	}

	author, err := a.authors.GetAuthor(r.Context(), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toAuthorResponse(author)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *AuthorsAPI) handleUpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := authorID(w, r)
	if !ok {
		return
	}

	var req authorRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	author, err := a.authors.UpdateAuthor(r.Context(), service.UpdateAuthorRequest{
		ID:   id,
		Name: req.Name,
		Img:  req.Img,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toAuthorResponse(author)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *AuthorsAPI) handleDeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := authorID(w, r)
	if !ok {
		return
	}

	if err := a.authors.DeleteAuthor(r.Context(), id); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func authorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("authorId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid author id", http.StatusBadRequest)
		return 0, false
	}

	return id, true
}
