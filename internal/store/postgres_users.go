package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = `id, uid, email,
	COALESCE(password_hash, ''), COALESCE(google_id, ''),
	name, surname, role, COALESCE(avatar_url, ''),
	created_at, updated_at`

// CreateUser inserts a new account row. Empty optional fields are stored as
// NULL so the partial unique index on google_id holds.
func (s *PostgresStore) CreateUser(ctx context.Context, r CreateUserRequest) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (uid, email, password_hash, google_id, name, surname, role, avatar_url)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''))
		 RETURNING `+userColumns,
		r.UID, r.Email, r.PasswordHash, r.GoogleID, r.Name, r.Surname, r.Role, r.AvatarURL)

	usr, err := scanUser(row)
	if err != nil {
		if isPqErr(err, errUniqueViolation) {
			return User{}, ErrExists
		}

		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return usr, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, uid string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uid=$1`, uid)
	return userOrNotFound(scanUser(row))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	return userOrNotFound(scanUser(row))
}

func (s *PostgresStore) GetUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		usr, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		users = append(users, usr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, r UpdateUserRequest) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE users SET name=$2, surname=$3, email=$4, updated_at=now()
		 WHERE uid=$1
		 RETURNING `+userColumns,
		r.UID, r.Name, r.Surname, r.Email)

	usr, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		if isPqErr(err, errUniqueViolation) {
			return User{}, ErrExists
		}

		return User{}, fmt.Errorf("update user: %w", err)
	}

	return usr, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, uid string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE uid=$1`, uid)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return requireAffected(res)
}

func (s *PostgresStore) SetUserAvatar(ctx context.Context, uid, url string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET avatar_url=$2, updated_at=now() WHERE uid=$1`, uid, url)
	if err != nil {
		return fmt.Errorf("set user avatar: %w", err)
	}

	return requireAffected(res)
}

func (s *PostgresStore) CreatePurchase(ctx context.Context, r CreatePurchaseRequest) (Purchase, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO purchases (user_id, book_id, title, category, price_cents)
		 SELECT u.id, $2, $3, $4, $5 FROM users AS u WHERE u.uid=$1
		 RETURNING id, user_id, COALESCE(book_id, 0), title, category, price_cents, purchased_at`,
		r.UserUID, r.BookID, r.Title, r.Category, r.PriceCents)

	var p Purchase
	err := row.Scan(&p.ID, &p.UserID, &p.BookID, &p.Title, &p.Category, &p.PriceCents, &p.PurchasedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isPqErr(err, errForeignKeyViolation) {
			return Purchase{}, ErrNotFound
		}

		return Purchase{}, fmt.Errorf("insert purchase: %w", err)
	}

	return p, nil
}

func (s *PostgresStore) GetPurchases(ctx context.Context, uid string) ([]Purchase, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.user_id, COALESCE(p.book_id, 0), p.title, p.category, p.price_cents, p.purchased_at
		 FROM purchases AS p
		 JOIN users AS u ON p.user_id = u.id
		 WHERE u.uid=$1
		 ORDER BY p.purchased_at DESC`, uid)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		err := rows.Scan(&p.ID, &p.UserID, &p.BookID, &p.Title, &p.Category, &p.PriceCents, &p.PurchasedAt)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}

		purchases = append(purchases, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}

	return purchases, nil
}

func (s *PostgresStore) DeletePurchase(ctx context.Context, uid string, purchaseID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM purchases
		 WHERE id=$2 AND user_id=(SELECT id FROM users WHERE uid=$1)`, uid, purchaseID)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}

	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var usr User
	err := row.Scan(
		&usr.ID,
		&usr.UID,
		&usr.Email,
		&usr.PasswordHash,
		&usr.GoogleID,
		&usr.Name,
		&usr.Surname,
		&usr.Role,
		&usr.AvatarURL,
		&usr.CreatedAt,
		&usr.UpdatedAt)
	if err != nil {
		return User{}, err
	}

	return usr, nil
}

func userOrNotFound(usr User, err error) (User, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}

		return User{}, fmt.Errorf("scan user: %w", err)
	}

	return usr, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return ErrNotFound
	}

	return nil
}
