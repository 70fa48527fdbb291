package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cristianml/tomevault/internal/model"
)

// WishlistRepo manages persistence for wishlist entries. Like books, every
// query is scoped by user_id.
type WishlistRepo struct{ DB *sql.DB }

func NewWishlistRepo(db *sql.DB) *WishlistRepo { return &WishlistRepo{DB: db} }

const wishlistColumns = `id, google_book_id, title, author, description, thumbnail,
	user_id, added_at`

// Create inserts a wishlist entry with its tags and returns the new ID.
func (r *WishlistRepo) Create(ctx context.Context, w *model.WishlistBook) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if w.AddedAt.IsZero() {
		w.AddedAt = time.Now().UTC()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO wishlist_books (google_book_id, title, author, description,
		   thumbnail, user_id, added_at)
		 VALUES (?,?,?,?,?,?,?)`,
		w.GoogleBookID, w.Title, w.Author, w.Description, w.Thumbnail, w.UserID, w.AddedAt)
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
	for _, tag := range w.Tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO wishlist_book_tags (wishlist_book_id, tag) VALUES (?,?)", id, tag); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	w.ID = uint64(id)
	return uint64(id), nil
}

// GetByID fetches a wishlist entry owned by the given user.
func (r *WishlistRepo) GetByID(ctx context.Context, userID, id uint64) (model.WishlistBook, error) {
	var w model.WishlistBook
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+wishlistColumns+" FROM wishlist_books WHERE id=? AND user_id=? LIMIT 1",
		id, userID).Scan(&w.ID, &w.GoogleBookID, &w.Title, &w.Author,
		&w.Description, &w.Thumbnail, &w.UserID, &w.AddedAt)
	if err == sql.ErrNoRows {
		return w, ErrNotFound
	}
	if err != nil {
		return w, err
	}
	w.Tags, err = r.loadTags(ctx, w.ID)
	return w, err
}

func (r *WishlistRepo) loadTags(ctx context.Context, id uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT tag FROM wishlist_book_tags WHERE wishlist_book_id=? ORDER BY tag", id)
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

// ListByUser returns a page of the user's wishlist ordered by id plus the
// total count.
func (r *WishlistRepo) ListByUser(ctx context.Context, userID uint64, offset, limit int) ([]model.WishlistBook, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM wishlist_books WHERE user_id=?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+wishlistColumns+" FROM wishlist_books WHERE user_id=? ORDER BY id LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []model.WishlistBook
	for rows.Next() {
		var w model.WishlistBook
		if err := rows.Scan(&w.ID, &w.GoogleBookID, &w.Title, &w.Author,
			&w.Description, &w.Thumbnail, &w.UserID, &w.AddedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range items {
		if items[i].Tags, err = r.loadTags(ctx, items[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

// Update overwrites the editable fields of a wishlist entry and replaces
// its tags.
func (r *WishlistRepo) Update(ctx context.Context, w *model.WishlistBook) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE wishlist_books SET title=?, author=?, description=?, thumbnail=?
		 WHERE id=? AND user_id=?`,
		w.Title, w.Author, w.Description, w.Thumbnail, w.ID, w.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM wishlist_books WHERE id=? AND user_id=?", w.ID, w.UserID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM wishlist_book_tags WHERE wishlist_book_id=?", w.ID); err != nil {
		return err
	}
	for _, tag := range w.Tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO wishlist_book_tags (wishlist_book_id, tag) VALUES (?,?)", w.ID, tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes a wishlist entry the user owns.
func (r *WishlistRepo) Delete(ctx context.Context, userID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM wishlist_books WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MoveToBooks converts a wishlist entry into a collection book in a single
// transaction: the book row (with tags) is inserted and the wishlist row
// deleted; either both happen or neither does. Returns the created book.
func (r *WishlistRepo) MoveToBooks(ctx context.Context, userID, wishlistID uint64) (model.Book, error) {
	w, err := r.GetByID(ctx, userID, wishlistID)
	if err != nil {
		return model.Book{}, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Book{}, err
	}
	defer func() { _ = tx.Rollback() }()

	book := model.Book{
		GoogleBookID: w.GoogleBookID,
		Title:        w.Title,
		Author:       w.Author,
		Description:  w.Description,
		Thumbnail:    w.Thumbnail,
		Tags:         w.Tags,
		UserID:       userID,
		AddedAt:      time.Now().UTC(),
		IsActive:     true,
	}
	if _, err := insertBookTx(ctx, tx, &book); err != nil {
		return model.Book{}, err
	}
	res, err := tx.ExecContext(ctx,
		"DELETE FROM wishlist_books WHERE id=? AND user_id=?", wishlistID, userID)
	if err != nil {
		return model.Book{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Book{}, ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return model.Book{}, err
	}
	return book, nil
}
