package rest

import (
	"net/http"
	"time"

	"github.com/gamma-omg/bookstore/internal/pkg/router"
	"github.com/gamma-omg/bookstore/internal/store"
)

// wrap applies per-route middleware, innermost last.
func wrap(h http.Handler, mws ...router.Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type userResponse struct {
	ID        string `json:"_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Surname   string `json:"surname,omitempty"`
	Role      string `json:"role"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toUserResponse(u store.User) userResponse {
	return userResponse{
		ID:        u.UID,
		Email:     u.Email,
		Name:      u.Name,
		Surname:   u.Surname,
		Role:      u.Role,
		Avatar:    u.AvatarURL,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type authorResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Img  string `json:"img,omitempty"`
}

func toAuthorResponse(a store.Author) authorResponse {
	return authorResponse{
		ID:   a.ID,
		Name: a.Name,
		Img:  a.Img,
	}
}

type bookResponse struct {
	ID         int64            `json:"id"`
	ASIN       string           `json:"asin"`
	Title      string           `json:"title"`
	Img        string           `json:"img,omitempty"`
	PriceCents int64            `json:"priceCents"`
	Category   string           `json:"category"`
	Authors    []authorResponse `json:"authors"`
}

func toBookResponse(b store.Book) bookResponse {
	authors := make([]authorResponse, 0, len(b.Authors))
	for _, a := range b.Authors {
		authors = append(authors, toAuthorResponse(a))
	}

	return bookResponse{
		ID:         b.ID,
		ASIN:       b.ASIN,
		Title:      b.Title,
		Img:        b.Img,
		PriceCents: b.PriceCents,
		Category:   b.Category,
		Authors:    authors,
	}
}

type purchaseResponse struct {
	ID          int64  `json:"id"`
	BookID      int64  `json:"bookId,omitempty"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"priceCents"`
	PurchasedAt string `json:"purchasedAt"`
}

func toPurchaseResponse(p store.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:          p.ID,
		BookID:      p.BookID,
		Title:       p.Title,
		Category:    p.Category,
		PriceCents:  p.PriceCents,
		PurchasedAt: p.PurchasedAt.UTC().Format(time.RFC3339),
	}
}
