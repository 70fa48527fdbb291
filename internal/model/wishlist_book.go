package model

import "time"

// WishlistBook represents a row in the `wishlist_books` table.  A wishlist
// entry carries the same catalog metadata as a Book but no reading state;
// moving it to the collection deletes the row and inserts a Book in a
// single transaction.
type WishlistBook struct {
	ID           uint64    // wishlist_books.id
	GoogleBookID string    // wishlist_books.google_book_id
	Title        string    // wishlist_books.title
	Author       string    // wishlist_books.author
	Description  string    // wishlist_books.description
	Thumbnail    string    // wishlist_books.thumbnail
	Tags         []string  // loaded via wishlist_book_tags
	UserID       uint64    // wishlist_books.user_id (owner)
	AddedAt      time.Time // wishlist_books.added_at
}
