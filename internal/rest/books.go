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

type booksService interface {
	CreateBook(ctx context.Context, r service.CreateBookRequest) (store.Book, error)
	GetBook(ctx context.Context, id int64) (store.Book, error)
	GetBooks(ctx context.Context, r service.GetBooksRequest) (service.GetBooksResponse, error)
	UpdateBook(ctx context.Context, r service.UpdateBookRequest) (store.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

// BooksAPI serves the catalog routes. Reads are public, writes are admin-only.
type BooksAPI struct {
	books booksService
	authn router.Middleware
	admin router.Middleware
	mux   *http.ServeMux
}

func NewBooksAPI(books booksService, authn, admin router.Middleware) *BooksAPI {
	api := &BooksAPI{
		books: books,
		authn: authn,
		admin: admin,
		mux:   http.NewServeMux(),
	}
	api.mount()
	return api
}

func (a *BooksAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *BooksAPI) mount() {
	a.mux.HandleFunc("GET /{$}", a.handleGetBooks)
	a.mux.HandleFunc("GET /{bookId}", a.handleGetBook)

	a.mux.Handle("POST /{$}", wrap(http.HandlerFunc(a.handleCreateBook), a.authn, a.admin))
	a.mux.Handle("PUT /{bookId}", wrap(http.HandlerFunc(a.handleUpdateBook), a.authn, a.admin))
	a.mux.Handle("DELETE /{bookId}", wrap(http.HandlerFunc(a.handleDeleteBook), a.authn, a.admin))
}

type bookRequest struct {
	ASIN       string  `json:"asin"`
	Title      string  `json:"title"`
	Img        string  `json:"img"`
	PriceCents int64   `json:"priceCents"`
	Category   string  `json:"category"`
	AuthorIDs  []int64 `json:"authorIds"`
}

func (a *BooksAPI) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	book, err := a.books.CreateBook(r.Context(), service.CreateBookRequest{
		ASIN:       req.ASIN,
		Title:      req.Title,
		Img:        req.Img,
		PriceCents: req.PriceCents,
		Category:   req.Category,
		AuthorIDs:  req.AuthorIDs,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, toBookResponse(book)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

type booksListResponse struct {
	Books []bookResponse `json:"books"`
	Total int64          `json:"total"`
}

func (a *BooksAPI) handleGetBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	resp, err := a.books.GetBooks(r.Context(), service.GetBooksRequest{
		Category: q.Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	books := make([]bookResponse, 0, len(resp.Books))
	for _, b := range resp.Books {
		books = append(books, toBookResponse(b))
	}

	err = httpx.WriteJSON(w, http.StatusOK, booksListResponse{
		Books: books,
		Total: resp.Total,
	})
	if err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *BooksAPI) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, err := a.books.GetBook(r.Context(), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toBookResponse(book)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *BooksAPI) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var req bookRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	book, err := a.books.UpdateBook(r.Context(), service.UpdateBookRequest{
		ID:         id,
		Title:      req.Title,
		Img:        req.Img,
		PriceCents: req.PriceCents,
		Category:   req.Category,
		AuthorIDs:  req.AuthorIDs,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toBookResponse(book)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *BooksAPI) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := a.books.DeleteBook(r.Context(), id); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("bookId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid book id", http.StatusBadRequest)
		return 0, false
	}

	return id, true
}
