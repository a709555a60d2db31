package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (s *PostgresStore) CreateBook(ctx context.Context, r CreateBookRequest) (Book, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO books (asin, title, img, price_cents, category)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		 RETURNING id, asin, title, COALESCE(img, ''), price_cents, category, created_at, updated_at`,
		r.ASIN, r.Title, r.Img, r.PriceCents, r.Category)

	var b Book
	err := row.Scan(&b.ID, &b.ASIN, &b.Title, &b.Img, &b.PriceCents, &b.Category, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isPqErr(err, errUniqueViolation) {
			return Book{}, ErrExists
		}

		return Book{}, fmt.Errorf("insert book: %w", err)
	}

	if err := s.setBookAuthors(ctx, b.ID, r.AuthorIDs); err != nil {
		return Book{}, err
	}

	authors, err := s.getBookAuthors(ctx, b.ID)
	if err != nil {
		return Book{}, err
	}

	b.Authors = authors
	return b, nil
}

func (s *PostgresStore) GetBook(ctx context.Context, id int64) (Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, asin, title, COALESCE(img, ''), price_cents, category, created_at, updated_at
		 FROM books WHERE id=$1`, id)

	var b Book
	err := row.Scan(&b.ID, &b.ASIN, &b.Title, &b.Img, &b.PriceCents, &b.Category, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}

		return Book{}, fmt.Errorf("scan book: %w", err)
	}

	authors, err := s.getBookAuthors(ctx, b.ID)
	if err != nil {
		return Book{}, err
	}

	b.Authors = authors
	return b, nil
}

// GetBooks returns one page of books plus the total count for the filter.
func (s *PostgresStore) GetBooks(ctx context.Context, r GetBooksRequest) ([]Book, int64, error) {
	var total int64
	row := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM books WHERE ($1 = '' OR category = $1)`, r.Category)
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, asin, title, COALESCE(img, ''), price_cents, category, created_at, updated_at
		 FROM books
		 WHERE ($1 = '' OR category = $1)
		 ORDER BY id
		 LIMIT $2 OFFSET $3`, r.Category, r.Limit, r.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var b Book
		err := rows.Scan(&b.ID, &b.ASIN, &b.Title, &b.Img, &b.PriceCents, &b.Category, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}

		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate books: %w", err)
	}

	for i := range books {
		authors, err := s.getBookAuthors(ctx, books[i].ID)
		if err != nil {
			return nil, 0, err
		}

		books[i].Authors = authors
	}

	return books, total, nil
}

func (s *PostgresStore) UpdateBook(ctx context.Context, r UpdateBookRequest) (Book, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE books SET title=$2, img=NULLIF($3, ''), price_cents=$4, category=$5, updated_at=now()
		 WHERE id=$1
		 RETURNING id, asin, title, COALESCE(img, ''), price_cents, category, created_at, updated_at`,
		r.ID, r.Title, r.Img, r.PriceCents, r.Category)

	var b Book
	err := row.Scan(&b.ID, &b.ASIN, &b.Title, &b.Img, &b.PriceCents, &b.Category, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}

		return Book{}, fmt.Errorf("update book: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM book_authors WHERE book_id=$1`, b.ID); err != nil {
		return Book{}, fmt.Errorf("unlink authors: %w", err)
	}

	if err := s.setBookAuthors(ctx, b.ID, r.AuthorIDs); err != nil {
		return Book{}, err
	}

	authors, err := s.getBookAuthors(ctx, b.ID)
	if err != nil {
		return Book{}, err
	}

	b.Authors = authors
	return b, nil
}

func (s *PostgresStore) DeleteBook(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	return requireAffected(res)
}

func (s *PostgresStore) setBookAuthors(ctx context.Context, bookID int64, authorIDs []int64) error {
	for _, authorID := range authorIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO book_authors (book_id, author_id) VALUES ($1, $2)`, bookID, authorID)
		if err != nil {
			if isPqErr(err, errForeignKeyViolation) {
				return ErrNotFound
			}

			return fmt.Errorf("link author: %w", err)
		}
	}

	return nil
}

func (s *PostgresStore) getBookAuthors(ctx context.Context, bookID int64) ([]Author, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.name, COALESCE(a.img, ''), a.created_at, a.updated_at
		 FROM authors AS a
		 JOIN book_authors AS ba ON ba.author_id = a.id
		 WHERE ba.book_id=$1
		 ORDER BY a.id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query book authors: %w", err)
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
