package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/gamma-omg/bookstore/internal/pkg/serr"
	"github.com/gamma-omg/bookstore/internal/store"
)

const maxAvatarSize = 5 << 20

var avatarContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// uploader stores a blob under a key and returns its public URL
type uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Files handles user media uploads
type Files struct {
	store  store.Store
	upload uploader
}

type FilesOption func(*Files) *Files

func WithFilesStore(st store.Store) FilesOption {
	return func(s *Files) *Files {
		s.store = st
		return s
	}
}

func WithUploader(u uploader) FilesOption {
	return func(s *Files) *Files {
		s.upload = u
		return s
	}
}

func NewFiles(opts ...FilesOption) *Files {
	s := &Files{}
	for _, opt := range opts {
		s = opt(s)
	}

	if s.store == nil {
		panic("store is required")
	}

	if s.upload == nil {
		panic("uploader is required")
	}

	return s
}

type SaveAvatarRequest struct {
	UID         string
	Content     io.Reader
	Size        int64
	ContentType string
}

// SaveAvatar stores the image under a fresh key and points the account at it.
// Keys are never reused, so a stale CDN entry can only serve an old avatar,
// not a wrong one.
func (s *Files) SaveAvatar(ctx context.Context, r SaveAvatarRequest) (string, error) {
	ext, ok := avatarContentTypes[normalizeContentType(r.ContentType)]
	if !ok {
		sErr := serr.NewServiceError(errors.New("unsupported content type"),
			http.StatusBadRequest, "avatar must be a jpeg, png or webp image")
		sErr.Env["content_type"] = r.ContentType
		return "", sErr
	}

	if r.Size <= 0 || r.Size > maxAvatarSize {
		return "", serr.NewServiceError(errors.New("bad avatar size"),
			http.StatusBadRequest, "avatar must be between 1 byte and %d MB", maxAvatarSize>>20)
	}

	usr, err := s.store.GetUser(ctx, r.UID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", errUserNotFound(err, r.UID)
		}

		return "", fmt.Errorf("get user: %w", err)
	}

	key := path.Join("avatars", r.UID, uuid.NewString()+ext)
	url, err := s.upload.Upload(ctx, key, r.Content, r.Size, r.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	if err := s.store.SetUserAvatar(ctx, r.UID, url); err != nil {
		return "", fmt.Errorf("set user avatar: %w", err)
	}

	// the replaced object is garbage now; losing it only leaks storage
	if old, ok := avatarKey(r.UID, usr.AvatarURL); ok {
		if err := s.upload.Delete(ctx, old); err != nil {
			slog.Warn("delete old avatar", "key", old, "error", err)
		}
	}

	return url, nil
}

// avatarKey extracts the object key from a previously stored avatar URL.
// Externally hosted avatars (federated profile pictures) yield no key and
// are left alone.
func avatarKey(uid, url string) (string, bool) {
	prefix := path.Join("avatars", uid) + "/"
	i := strings.Index(url, prefix)
	if i < 1 || url[i-1] != '/' {
		return "", false
	}

	return url[i:], true
}

func normalizeContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.TrimSpace(strings.ToLower(ct))
}
