package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gamma-omg/bookstore/internal/pkg/httpx"
	"github.com/gamma-omg/bookstore/internal/pkg/router"
	"github.com/gamma-omg/bookstore/internal/service"
)

const maxUploadBytes = 8 << 20

type filesService interface {
	SaveAvatar(ctx context.Context, r service.SaveAvatarRequest) (string, error)
}

// FilesAPI serves media upload routes
type FilesAPI struct {
	files filesService
	authn router.Middleware
	mux   *http.ServeMux
}

func NewFilesAPI(files filesService, authn router.Middleware) *FilesAPI {
	api := &FilesAPI{
		files: files,
		authn: authn,
		mux:   http.NewServeMux(),
	}
	api.mount()
	return api
}

func (a *FilesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *FilesAPI) mount() {
	a.mux.Handle("POST /avatar", wrap(http.HandlerFunc(a.handleUploadAvatar), a.authn))
}

type uploadAvatarResponse struct {
	Avatar string `json:"avatar"`
}

func (a *FilesAPI) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, "avatar file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	url, err := a.files.SaveAvatar(r.Context(), service.SaveAvatarRequest{
		UID:         mustIdentityUID(r),
		Content:     file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, uploadAvatarResponse{Avatar: url}); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
		return
	}
}
