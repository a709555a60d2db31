package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gamma-omg/bookstore/internal/pkg/serr"
	"github.com/gamma-omg/bookstore/internal/store"
)

// Users manages accounts and their purchase history
type Users struct {
	store store.Store
	email emailSender
}

type UsersOption func(*Users) *Users

func WithUsersStore(st store.Store) UsersOption {
	return func(s *Users) *Users {
		s.store = st
		return s
	}
}

// WithUsersEmail enables outbound email from the users service. Optional.
func WithUsersEmail(e emailSender) UsersOption {
	return func(s *Users) *Users {
		s.email = e
		return s
	}
}

func NewUsers(opts ...UsersOption) *Users {
	s := &Users{}
	for _, opt := range opts {
		s = opt(s)
	}

	if s.store == nil {
		panic("store is required")
	}

	return s
}

func (s *Users) GetUsers(ctx context.Context) ([]store.User, error) {
	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}

	return users, nil
}

func (s *Users) GetUser(ctx context.Context, uid string) (store.User, error) {
	usr, err := s.store.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, errUserNotFound(err, uid)
		}

		return store.User{}, fmt.Errorf("get user: %w", err)
	}

	return usr, nil
}

type UpdateUserRequest struct {
	UID     string
	Name    string
	Surname string
	Email   string
}

func (s *Users) UpdateUser(ctx context.Context, r UpdateUserRequest) (store.User, error) {
	v := newValidator()
	v.require("name", r.Name)
	v.require("surname", r.Surname)
	v.email("email", r.Email)
	if err := v.err(); err != nil {
		return store.User{}, err
	}

	usr, err := s.store.UpdateUser(ctx, store.UpdateUserRequest{
		UID:     r.UID,
		Name:    r.Name,
		Surname: r.Surname,
		Email:   r.Email,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.User{}, errUserNotFound(err, r.UID)
		}

		if errors.Is(err, store.ErrExists) {
			return store.User{}, serr.NewServiceError(err, http.StatusConflict, "email is already registered")
		}

		return store.User{}, fmt.Errorf("update user: %w", err)
	}

	return usr, nil
}

func (s *Users) DeleteUser(ctx context.Context, uid string) error {
	err := s.store.DeleteUser(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errUserNotFound(err, uid)
		}

		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}

// AddPurchase records a purchase by copying the book's title, category and
// price at purchase time, so later edits to the book never rewrite history.
func (s *Users) AddPurchase(ctx context.Context, uid string, bookID int64) (store.Purchase, error) {
	var p store.Purchase
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		book, err := tx.GetBook(ctx, bookID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				sErr := serr.NewServiceError(err, http.StatusNotFound, "book not found")
				sErr.Env["book_id"] = fmt.Sprint(bookID)
				return sErr
			}

			return fmt.Errorf("get book: %w", err)
		}

		p, err = tx.CreatePurchase(ctx, store.CreatePurchaseRequest{
			UserUID:    uid,
			BookID:     book.ID,
			Title:      book.Title,
			Category:   book.Category,
			PriceCents: book.PriceCents,
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errUserNotFound(err, uid)
			}

			return fmt.Errorf("create purchase: %w", err)
		}

		return nil
	})
	if err != nil {
		return store.Purchase{}, err
	}

	return p, nil
}

func (s *Users) GetPurchases(ctx context.Context, uid string) ([]store.Purchase, error) {
	// distinguish an empty history from an unknown account
	if _, err := s.GetUser(ctx, uid); err != nil {
		return nil, err
	}

	purchases, err := s.store.GetPurchases(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get purchases: %w", err)
	}

	return purchases, nil
}

func (s *Users) DeletePurchase(ctx context.Context, uid string, purchaseID int64) error {
	err := s.store.DeletePurchase(ctx, uid, purchaseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			sErr := serr.NewServiceError(err, http.StatusNotFound, "purchase not found")
			sErr.Env["purchase_id"] = fmt.Sprint(purchaseID)
			return sErr
		}

		return fmt.Errorf("delete purchase: %w", err)
	}

	return nil
}

type SendEmailRequest struct {
	UID string
}

// SendEmail re-sends the welcome email to an existing account.
func (s *Users) SendEmail(ctx context.Context, r SendEmailRequest) error {
	if s.email == nil {
		return serr.NewServiceError(errors.New("email sender not configured"),
			http.StatusServiceUnavailable, "email delivery is not available")
	}

	usr, err := s.GetUser(ctx, r.UID)
	if err != nil {
		return err
	}

	if err := s.email.SendWelcome(ctx, usr.Email, usr.Name); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	return nil
}

func errUserNotFound(err error, uid string) error {
	sErr := serr.NewServiceError(err, http.StatusNotFound, "user not found")
	sErr.Env["uid"] = uid
	return sErr
}
