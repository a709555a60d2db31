package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gamma-omg/bookstore/internal/oauth"
	"github.com/gamma-omg/bookstore/internal/pkg/httpx"
	"github.com/gamma-omg/bookstore/internal/pkg/middleware"
	"github.com/gamma-omg/bookstore/internal/pkg/router"
	"github.com/gamma-omg/bookstore/internal/service"
	"github.com/gamma-omg/bookstore/internal/store"
)

const oauthCookieScope = "oauth"

type authService interface {
	Register(ctx context.Context, r service.RegisterRequest) (store.User, error)
	Login(ctx context.Context, r service.LoginRequest) (service.LoginResponse, error)
	LoginURL(env oauth.Env, provider string) (string, error)
	AuthCallback(ctx context.Context, env oauth.Env, r service.AuthCallbackRequest) (service.AuthCallbackResponse, error)
}

type usersService interface {
	GetUsers(ctx context.Context) ([]store.User, error)
	GetUser(ctx context.Context, uid string) (store.User, error)
	UpdateUser(ctx context.Context, r service.UpdateUserRequest) (store.User, error)
	DeleteUser(ctx context.Context, uid string) error
	AddPurchase(ctx context.Context, uid string, bookID int64) (store.Purchase, error)
	GetPurchases(ctx context.Context, uid string) ([]store.Purchase, error)
	DeletePurchase(ctx context.Context, uid string, purchaseID int64) error
	SendEmail(ctx context.Context, r service.SendEmailRequest) error
}

// UsersAPI serves account, session and purchase-history routes
type UsersAPI struct {
	auth  authService
	users usersService
	authn router.Middleware
	admin router.Middleware
	mux   *http.ServeMux
}

func NewUsersAPI(auth authService, users usersService, authn, admin router.Middleware) *UsersAPI {
	api := &UsersAPI{
		auth:  auth,
		users: users,
		authn: authn,
		admin: admin,
		mux:   http.NewServeMux(),
	}
	api.mount()
	return api
}

func (a *UsersAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *UsersAPI) mount() {
	a.mux.HandleFunc("POST /register", a.handleRegister)
	a.mux.HandleFunc("POST /login", a.handleLogin)
	a.mux.HandleFunc("GET /{provider}/login", a.handleOAuthLogin)
	a.mux.HandleFunc("GET /{provider}/callback", a.handleOAuthCallback)

	a.mux.Handle("GET /me", wrap(http.HandlerFunc(a.handleGetMe), a.authn))
	a.mux.Handle("PUT /me", wrap(http.HandlerFunc(a.handleUpdateMe), a.authn))
	a.mux.Handle("DELETE /me", wrap(http.HandlerFunc(a.handleDeleteMe), a.authn))
	a.mux.Handle("GET /me/purchases", wrap(http.HandlerFunc(a.handleGetPurchases), a.authn))
	a.mux.Handle("POST /me/purchases", wrap(http.HandlerFunc(a.handleAddPurchase), a.authn))
	a.mux.Handle("DELETE /me/purchases/{purchaseId}", wrap(http.HandlerFunc(a.handleDeletePurchase), a.authn))

	a.mux.Handle("GET /{$}", wrap(http.HandlerFunc(a.handleGetUsers), a.authn, a.admin))
	a.mux.Handle("GET /{userId}", wrap(http.HandlerFunc(a.handleGetUser), a.authn, a.admin))
	a.mux.Handle("PUT /{userId}", wrap(http.HandlerFunc(a.handleUpdateUser), a.authn, a.admin))
	a.mux.Handle("DELETE /{userId}", wrap(http.HandlerFunc(a.handleDeleteUser), a.authn, a.admin))
	a.mux.Handle("POST /{userId}/email", wrap(http.HandlerFunc(a.handleSendEmail), a.authn, a.admin))
}

type registerRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *UsersAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	usr, err := a.auth.Register(r.Context(), service.RegisterRequest{
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, toUserResponse(usr)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

func (a *UsersAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	resp, err := a.auth.Login(r.Context(), service.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: resp.AccessToken}); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *UsersAPI) handleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	p := r.PathValue("provider")
	url, err := a.auth.LoginURL(oauth.NewHTTPEnv(oauthCookieScope, w, r), p)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (a *UsersAPI) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	resp, err := a.auth.AuthCallback(r.Context(), oauth.NewHTTPEnv(oauthCookieScope, w, r), service.AuthCallbackRequest{
		Provider: r.PathValue("provider"),
		Code:     r.URL.Query().Get("code"),
		State:    r.URL.Query().Get("state"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	http.Redirect(w, r, resp.RedirectURL, http.StatusFound)
}

func (a *UsersAPI) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.GetUsers(r.Context())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}

	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *UsersAPI) handleGetMe(w http.ResponseWriter, r *http.Request) {
	a.getUser(w, r, mustIdentityUID(r))
}

func (a *UsersAPI) handleGetUser(w http.ResponseWriter, r *http.Request) {
	a.getUser(w, r, r.PathValue("userId"))
}

func (a *UsersAPI) getUser(w http.ResponseWriter, r *http.Request, uid string) {
	usr, err := a.users.GetUser(r.Context(), uid)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toUserResponse(usr)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

type updateUserRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

func (a *UsersAPI) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	a.updateUser(w, r, mustIdentityUID(r))
}

func (a *UsersAPI) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	a.updateUser(w, r, r.PathValue("userId"))
}

func (a *UsersAPI) updateUser(w http.ResponseWriter, r *http.Request, uid string) {
	var req updateUserRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	usr, err := a.users.UpdateUser(r.Context(), service.UpdateUserRequest{
		UID:     uid,
		Name:    req.Name,
		Surname: req.Surname,
		Email:   req.Email,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, toUserResponse(usr)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *UsersAPI) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	a.deleteUser(w, r, mustIdentityUID(r))
}

func (a *UsersAPI) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	a.deleteUser(w, r, r.PathValue("userId"))
}

func (a *UsersAPI) deleteUser(w http.ResponseWriter, r *http.Request, uid string) {
	if err := a.users.DeleteUser(r.Context(), uid); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type addPurchaseRequest struct {
	BookID int64 `json:"bookId"`
}

func (a *UsersAPI) handleAddPurchase(w http.ResponseWriter, r *http.Request) {
	var req addPurchaseRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("read request json: %w", err))
		return
	}

	p, err := a.users.AddPurchase(r.Context(), mustIdentityUID(r), req.BookID)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, toPurchaseResponse(p)); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *UsersAPI) handleGetPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := a.users.GetPurchases(r.Context(), mustIdentityUID(r))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	resp := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		resp = append(resp, toPurchaseResponse(p))
	}

	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}

func (a *UsersAPI) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("purchaseId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid purchase id", http.StatusBadRequest)
		return
	}

	if err := a.users.DeletePurchase(r.Context(), mustIdentityUID(r), id); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *UsersAPI) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	err := a.users.SendEmail(r.Context(), service.SendEmailRequest{
		UID: r.PathValue("userId"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// mustIdentityUID reads the identity placed by the auth middleware. Routes
// calling it are always behind that middleware, so a miss is a wiring bug.
func mustIdentityUID(r *http.Request) string {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		panic("no identity in request context")
	}

	return id.UID
}
