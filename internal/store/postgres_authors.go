package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (s *PostgresStore) CreateAuthor(ctx context.Context, r CreateAuthorRequest) (Author, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO authors (name, img)
		 VALUES ($1, NULLIF($2, ''))
		 RETURNING id, name, COALESCE(img, ''), created_at, updated_at`,
		r.Name, r.Img)

	var a Author
	err := row.Scan(&a.ID, &a.Name, &a.Img, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Author{}, fmt.Errorf("insert author: %w", err)
	}

	return a, nil
}

func (s *PostgresStore) GetAuthor(ctx context.Context, id int64) (Author, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(img, ''), created_at, updated_at FROM authors WHERE id=$1`, id)

	var a Author
	err := row.Scan(&a.ID, &a.Name, &a.Img, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Author{}, ErrNotFound
		}

		return Author{}, fmt.Errorf("scan author: %w", err)
	}

	return a, nil
}

func (s *PostgresStore) GetAuthors(ctx context.Context) ([]Author, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(img, ''), created_at, updated_at FROM authors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	defer rows.Close()

	var authors []Author
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Img, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}

		authors = append(authors, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authors: %w", err)
	}

	return authors, nil
}

func (s *PostgresStore) UpdateAuthor(ctx context.Context, r UpdateAuthorRequest) (Author, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE authors SET name=$2, img=NULLIF($3, ''), updated_at=now()
		 WHERE id=$1
		 RETURNING id, name, COALESCE(img, ''), created_at, updated_at`,
		r.ID, r.Name, r.Img)

	var a Author
	err := row.Scan(&a.ID, &a.Name, &a.Img, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Author{}, ErrNotFound
		}

		return Author{}, fmt.Errorf("update author: %w", err)
	}

	return a, nil
}

func (s *PostgresStore) DeleteAuthor(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM authors WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete author: %w", err)
	}

	return requireAffected(res)
}
