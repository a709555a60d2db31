package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamma-omg/bookstore/internal/config"
	"github.com/gamma-omg/bookstore/internal/email"
	"github.com/gamma-omg/bookstore/internal/oauth"
	"github.com/gamma-omg/bookstore/internal/pkg/middleware"
	"github.com/gamma-omg/bookstore/internal/pkg/router"
	"github.com/gamma-omg/bookstore/internal/provider"
	"github.com/gamma-omg/bookstore/internal/rest"
	"github.com/gamma-omg/bookstore/internal/service"
	"github.com/gamma-omg/bookstore/internal/storage"
	"github.com/gamma-omg/bookstore/internal/store"
	"github.com/gamma-omg/bookstore/internal/token"
)

func run(ctx context.Context) error {
	slog.Info("starting bookstore service")

	cfg := config.FromEnv()
	db, err := store.NewPostgresDB(store.PostgresConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DB:       cfg.DB.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer db.Close()

	pgs := store.NewPostgresStore(db)

	authr := oauth.NewAuthenticator()
	if err := registerProviders(ctx, authr, cfg); err != nil {
		return fmt.Errorf("failed to register oauth providers: %w", err)
	}
	slog.Info("oauth providers registered", "providers", authr.Providers())

	issuer := token.NewIssuer(token.Config{
		Secret: token.NewSecretString(cfg.JWT.Secret),
		TTL:    cfg.JWT.TTL,
	})

	var mailer *email.SendGrid
	if cfg.SendGrid.Enabled() {
		mailer = email.NewSendGrid(email.SendGridConfig{
			APIKey: cfg.SendGrid.APIKey,
			Sender: cfg.SendGrid.Sender,
		})
	}

	authOpts := []service.AuthOption{
		service.WithAuthenticator(authr),
		service.WithAuthStore(pgs),
		service.WithAccessToken(issuer),
		service.WithFrontendURL(cfg.Frontend.URL),
	}
	usersOpts := []service.UsersOption{
		service.WithUsersStore(pgs),
	}
	if mailer != nil {
		authOpts = append(authOpts, service.WithWelcomeEmail(mailer))
		usersOpts = append(usersOpts, service.WithUsersEmail(mailer))
	}

	authSrv := service.NewAuth(authOpts...)
	usersSrv := service.NewUsers(usersOpts...)
	booksSrv := service.NewBooks(service.WithBooksStore(pgs))
	authorsSrv := service.NewAuthors(service.WithAuthorsStore(pgs))

	authn := middleware.Auth(issuer)
	admin := middleware.RequireAdmin()

	root := router.New()
	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	root.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	root.SubRouter("/api/v1/users").Handle("/", rest.NewUsersAPI(authSrv, usersSrv, authn, admin))
	root.SubRouter("/api/v1/books").Handle("/", rest.NewBooksAPI(booksSrv, authn, admin))
	root.SubRouter("/api/v1/authors").Handle("/", rest.NewAuthorsAPI(authorsSrv, authn, admin))

	if cfg.Minio.Enabled() {
		uploads, err := storage.NewMinio(ctx, storage.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			PublicURL: cfg.Minio.PublicURL,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to object store: %w", err)
		}

		filesSrv := service.NewFiles(
			service.WithFilesStore(pgs),
			service.WithUploader(uploads),
		)
		root.SubRouter("/api/v1/files").Handle("/", rest.NewFilesAPI(filesSrv, authn))
	} else {
		slog.Warn("object store is not configured, file uploads are disabled")
	}

	root.Use(middleware.Log(), middleware.Recover())

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		Handler:      root,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func registerProviders(ctx context.Context, authr *oauth.Authenticator, cfg config.Config) error {
	if !cfg.OAuth.Google.Enabled() {
		slog.Warn("google oauth is not configured, federated login is disabled")
		return nil
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	prvGoogle, err := provider.NewGoogle(initCtx, provider.GoogleConfig{
		ClientID:     cfg.OAuth.Google.ClientID,
		ClientSecret: cfg.OAuth.Google.ClientSecret,
		RedirectURL:  cfg.OAuth.Google.RedirectURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create google oauth provider: %w", err)
	}

	return authr.Use("google", prvGoogle)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("bookstore service terminated with error", "error", err)
		os.Exit(1)
	}
}
