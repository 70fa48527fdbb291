package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates every table the application needs.  All
// statements are idempotent (IF NOT EXISTS) so EnsureSchema can run on
// every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		firstname VARCHAR(100) NOT NULL DEFAULT '',
		lastname VARCHAR(100) NOT NULL DEFAULT '',
		address VARCHAR(255) NOT NULL DEFAULT '',
		birth_date DATE NULL,
		enabled TINYINT(1) NOT NULL DEFAULT 1,
		account_non_expired TINYINT(1) NOT NULL DEFAULT 1,
		account_non_locked TINYINT(1) NOT NULL DEFAULT 1,
		credentials_non_expired TINYINT(1) NOT NULL DEFAULT 1,
		deleted TINYINT(1) NOT NULL DEFAULT 0,
		deleted_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS roles (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(50) NOT NULL,
		UNIQUE KEY uq_roles_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS permissions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(50) NOT NULL,
		UNIQUE KEY uq_permissions_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS role_permissions (
		role_id BIGINT UNSIGNED NOT NULL,
		permission_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (role_id, permission_id),
		CONSTRAINT fk_rp_role FOREIGN KEY (role_id) REFERENCES roles(id),
		CONSTRAINT fk_rp_perm FOREIGN KEY (permission_id) REFERENCES permissions(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id BIGINT UNSIGNED NOT NULL,
		role_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (user_id, role_id),
		CONSTRAINT fk_ur_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_ur_role FOREIGN KEY (role_id) REFERENCES roles(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS books (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		google_book_id VARCHAR(64) NOT NULL,
		title VARCHAR(500) NOT NULL,
		author VARCHAR(1000) NOT NULL DEFAULT '',
		description TEXT,
		thumbnail VARCHAR(1000) NOT NULL DEFAULT '',
		user_id BIGINT UNSIGNED NOT NULL,
		added_at DATE NOT NULL,
		finished_at DATE NULL,
		read_count INT NOT NULL DEFAULT 0,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		UNIQUE KEY uq_books_user_gbid (user_id, google_book_id),
		CONSTRAINT fk_books_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS book_tags (
		book_id BIGINT UNSIGNED NOT NULL,
		tag VARCHAR(100) NOT NULL,
		PRIMARY KEY (book_id, tag),
		CONSTRAINT fk_bt_book FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS wishlist_books (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		google_book_id VARCHAR(64) NOT NULL,
		title VARCHAR(500) NOT NULL,
		author VARCHAR(1000) NOT NULL DEFAULT '',
		description TEXT,
		thumbnail VARCHAR(1000) NOT NULL DEFAULT '',
		user_id BIGINT UNSIGNED NOT NULL,
		added_at DATE NOT NULL,
		UNIQUE KEY uq_wishlist_user_gbid (user_id, google_book_id),
		CONSTRAINT fk_wb_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS wishlist_book_tags (
		wishlist_book_id BIGINT UNSIGNED NOT NULL,
		tag VARCHAR(100) NOT NULL,
		PRIMARY KEY (wishlist_book_id, tag),
		CONSTRAINT fk_wbt_wb FOREIGN KEY (wishlist_book_id) REFERENCES wishlist_books(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates all application tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
