package store

import "time"

type Model struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	Model
	ID           int64
	UID          string
	Email        string
	PasswordHash string
	GoogleID     string
	Name         string
	Surname      string
	Role         string
	AvatarURL    string
}

type Purchase struct {
	ID          int64
	UserID      int64
	BookID      int64
	Title       string
	Category    string
	PriceCents  int64
	PurchasedAt time.Time
}

type Book struct {
	Model
	ID         int64
	ASIN       string
	Title      string
	Img        string
	PriceCents int64
	Category   string
	Authors    []Author
}

type Author struct {
	Model
	ID   int64
	Name string
	Img  string
}
