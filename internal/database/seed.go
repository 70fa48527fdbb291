package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/cristianml/tomevault/internal/model"
	"github.com/cristianml/tomevault/internal/utils"
)

// SeedRoleCatalog loads the fixed role/permission catalog into the
// database.  Every statement is insert-if-absent so the seeder can run on
// every startup without side effects: existing rows are left untouched and
// removed assignments are not resurrected elsewhere.
func SeedRoleCatalog(ctx context.Context, db *sql.DB) error {
	for _, name := range model.AllPermissions() {
		if _, err := db.ExecContext(ctx,
			"INSERT IGNORE INTO permissions (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("seed permission %s: %w", name, err)
		}
	}
	for _, entry := range model.RoleCatalog {
		if _, err := db.ExecContext(ctx,
			"INSERT IGNORE INTO roles (name) VALUES (?)", entry.Role); err != nil {
			return fmt.Errorf("seed role %s: %w", entry.Role, err)
		}
		for _, perm := range entry.Permissions {
			if _, err := db.ExecContext(ctx,
				`INSERT IGNORE INTO role_permissions (role_id, permission_id)
				 SELECT r.id, p.id FROM roles r, permissions p WHERE r.name=? AND p.name=?`,
				entry.Role, perm); err != nil {
				return fmt.Errorf("seed role_permission %s/%s: %w", entry.Role, perm, err)
			}
		}
	}
	return nil
}

// SeedBootstrapAdmin creates an initial SUPER_ADMIN account from the
// SEED_ADMIN_USERNAME / SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD environment
// variables.  Skipped silently when the variables are unset or the username
// already exists, so a deployed instance is seeded exactly once.
func SeedBootstrapAdmin(ctx context.Context, db *sql.DB, bcryptCost int) error {
	username := os.Getenv("SEED_ADMIN_USERNAME")
	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if username == "" || email == "" || password == "" {
		return nil
	}

	var exists int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username=?", username).Scan(&exists)
	if err != nil {
		return fmt.Errorf("seed admin lookup: %w", err)
	}
	if exists > 0 {
		return nil
	}

	hash, err := utils.HashPassword(password, bcryptCost)
	if err != nil {
		return fmt.Errorf("seed admin hash: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, enabled,
		   account_non_expired, account_non_locked, credentials_non_expired)
		 VALUES (?,?,?,1,1,1,1)`,
		username, email, hash)
	if err != nil {
		return fmt.Errorf("seed admin insert: %w", err)
	}
	uid, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role_id)
		 SELECT ?, id FROM roles WHERE name IN (?,?)`,
		uid, model.RoleUser, model.RoleSuperAdmin); err != nil {
		return fmt.Errorf("seed admin roles: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("seeded bootstrap SUPER_ADMIN %q", username)
	return nil
}
