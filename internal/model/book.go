package model

import "time"

// Book represents a row in the `books` table.  Every book belongs to one
// user; GoogleBookID ties the row back to the external catalog entry it was
// imported from.  IsActive implements soft delete: removed books stay in
// the table with the flag cleared so they can be reactivated later.
type Book struct {
	ID           uint64     // books.id
	GoogleBookID string     // books.google_book_id
	Title        string     // books.title
	Author       string     // books.author
	Description  string     // books.description
	Thumbnail    string     // books.thumbnail
	Tags         []string   // loaded via book_tags
	UserID       uint64     // books.user_id (owner)
	AddedAt      time.Time  // books.added_at
	FinishedAt   *time.Time // books.finished_at (nullable)
	ReadCount    int        // books.read_count
	IsActive     bool       // books.is_active
}
