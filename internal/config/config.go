package config

import (
	"time"

	"github.com/gamma-omg/bookstore/internal/pkg/env"
)

type Config struct {
	HTTP     httpConfig
	JWT      jwtConfig
	DB       dbConfig
	OAuth    oauthConfig
	Minio    minioConfig
	SendGrid sendGridConfig
	Frontend frontendConfig
}

type httpConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type jwtConfig struct {
	Secret string
	TTL    time.Duration
}

type dbConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type oauthConfig struct {
	Google googleConfig
}

type googleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (g googleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type minioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	UseSSL    bool
}

func (m minioConfig) Enabled() bool {
	return m.Endpoint != ""
}

type sendGridConfig struct {
	APIKey string
	Sender string
}

func (s sendGridConfig) Enabled() bool {
	return s.APIKey != ""
}

type frontendConfig struct {
	URL string
}

func FromEnv() Config {
	return Config{
		HTTP: httpConfig{
			ListenAddr:      env.String("HTTP_LISTEN_ADDR", ":8080"),
			ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.Duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		JWT: jwtConfig{
			Secret: env.RequireString("JWT_SECRET"),
			TTL:    env.Duration("JWT_TTL", 7*24*time.Hour),
		},
		DB: dbConfig{
			Host:     env.String("DB_HOST", "localhost"),
			Port:     env.String("DB_PORT", "5432"),
			User:     env.String("DB_USER", "postgres"),
			Password: env.String("DB_PASSWORD", "postgres"),
			Name:     env.String("DB_NAME", "bookstore"),
		},
		OAuth: oauthConfig{
			Google: googleConfig{
				ClientID:     env.String("GOOGLE_CLIENT_ID", ""),
				ClientSecret: env.String("GOOGLE_CLIENT_SECRET", ""),
				RedirectURL:  env.String("GOOGLE_REDIRECT_URL", ""),
			},
		},
		Minio: minioConfig{
			Endpoint:  env.String("MINIO_ENDPOINT", ""),
			AccessKey: env.String("MINIO_ACCESS_KEY", ""),
			SecretKey: env.String("MINIO_SECRET_KEY", ""),
			Bucket:    env.String("MINIO_BUCKET", "bookstore-media"),
			PublicURL: env.String("MINIO_PUBLIC_URL", ""),
			UseSSL:    env.Bool("MINIO_USE_SSL", false),
		},
		SendGrid: sendGridConfig{
			APIKey: env.String("SENDGRID_KEY", ""),
			Sender: env.String("SENDER_EMAIL", ""),
		},
		Frontend: frontendConfig{
			URL: env.String("FE_URL", "http://localhost:3000"),
		},
	}
}
