package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cristianml/tomevault/internal/model"
)

// BookRepo manages persistence for the user's book collection. Every query
// is scoped by user_id: a book is only ever visible to its owner.
type BookRepo struct{ DB *sql.DB }

func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{DB: db} }

const bookColumns = `id, google_book_id, title, author, description, thumbnail,
	user_id, added_at, finished_at, read_count, is_active`

// Create inserts a book row together with its tags in one transaction and
// returns the new ID. A duplicate (user, google_book_id) pair is reported
// as ErrDuplicateBook.
func (r *BookRepo) Create(ctx context.Context, b *model.Book) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	id, err := insertBookTx(ctx, tx, b)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// insertBookTx inserts a book and its tags using the provided transaction.
// Shared by Create and the wishlist move operation.
func insertBookTx(ctx context.Context, tx *sql.Tx, b *model.Book) (uint64, error) {
	if b.AddedAt.IsZero() {
		b.AddedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO books (google_book_id, title, author, description, thumbnail,
		   user_id, added_at, finished_at, read_count, is_active)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		b.GoogleBookID, b.Title, b.Author, b.Description, b.Thumbnail,
		b.UserID, b.AddedAt, b.FinishedAt, b.ReadCount, b.IsActive)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrDuplicateBook
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, tag := range b.Tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO book_tags (book_id, tag) VALUES (?,?)", id, tag); err != nil {
			return 0, err
		}
	}
	b.ID = uint64(id)
	return uint64(id), nil
}

// GetByID fetches a book owned by the given user.
func (r *BookRepo) GetByID(ctx context.Context, userID, id uint64) (model.Book, error) {
	return r.scanOne(ctx,
		"SELECT "+bookColumns+" FROM books WHERE id=? AND user_id=? LIMIT 1", id, userID)
}

// GetByGoogleID fetches the user's book imported from the given catalog
// entry, regardless of its active flag.
func (r *BookRepo) GetByGoogleID(ctx context.Context, userID uint64, googleBookID string) (model.Book, error) {
	return r.scanOne(ctx,
		"SELECT "+bookColumns+" FROM books WHERE google_book_id=? AND user_id=? LIMIT 1",
		googleBookID, userID)
}

func (r *BookRepo) scanOne(ctx context.Context, q string, args ...interface{}) (model.Book, error) {
	var b model.Book
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(
		&b.ID, &b.GoogleBookID, &b.Title, &b.Author, &b.Description, &b.Thumbnail,
		&b.UserID, &b.AddedAt, &b.FinishedAt, &b.ReadCount, &b.IsActive)
	if err == sql.ErrNoRows {
		return b, ErrNotFound
	}
	if err != nil {
		return b, err
	}
	b.Tags, err = r.loadTags(ctx, b.ID)
	return b, err
}

func (r *BookRepo) loadTags(ctx context.Context, bookID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT tag FROM book_tags WHERE book_id=? ORDER BY tag", bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ListByUser returns a page of the user's active books ordered by id plus
// the total active count.
func (r *BookRepo) ListByUser(ctx context.Context, userID uint64, offset, limit int) ([]model.Book, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM books WHERE user_id=? AND is_active=1", userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE user_id=? AND is_active=1 ORDER BY id LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.GoogleBookID, &b.Title, &b.Author, &b.Description,
			&b.Thumbnail, &b.UserID, &b.AddedAt, &b.FinishedAt, &b.ReadCount, &b.IsActive); err != nil {
			return nil, 0, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range books {
		if books[i].Tags, err = r.loadTags(ctx, books[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return books, total, nil
}

// Update overwrites the editable fields of a book the user owns and
// replaces its tags.
func (r *BookRepo) Update(ctx context.Context, b *model.Book) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE books SET title=?, author=?, description=?, thumbnail=?, finished_at=?
		 WHERE id=? AND user_id=?`,
		b.Title, b.Author, b.Description, b.Thumbnail, b.FinishedAt, b.ID, b.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// distinguish "no such row" from "nothing changed"
		var exists int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM books WHERE id=? AND user_id=?", b.ID, b.UserID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM book_tags WHERE book_id=?", b.ID); err != nil {
		return err
	}
	for _, tag := range b.Tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO book_tags (book_id, tag) VALUES (?,?)", b.ID, tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetActive flips the soft-delete flag of the user's book.
func (r *BookRepo) SetActive(ctx context.Context, userID, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE books SET is_active=? WHERE id=? AND user_id=?", active, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM books WHERE id=? AND user_id=?", id, userID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// AdjustReadCount adds delta to the read counter, clamped at zero.
func (r *BookRepo) AdjustReadCount(ctx context.Context, userID, id uint64, delta int) (int, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE books SET read_count = GREATEST(0, read_count + ?) WHERE id=? AND user_id=?",
		delta, id, userID)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM books WHERE id=? AND user_id=?", id, userID).Scan(&exists); err != nil {
			return 0, err
		}
		if exists == 0 {
			return 0, ErrNotFound
		}
	}
	var count int
	err = r.DB.QueryRowContext(ctx,
		"SELECT read_count FROM books WHERE id=? AND user_id=?", id, userID).Scan(&count)
	return count, err
}
