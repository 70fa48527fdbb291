package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cristianml/tomevault/internal/model"
)

// UserRepo is the credential store: it owns every read and write of the
// users table and the user_roles assignment. All lookups that feed
// authentication load the full role/permission graph so callers can derive
// authorities without a second round-trip.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, username, email, password_hash, firstname, lastname, address,
	birth_date, enabled, account_non_expired, account_non_locked,
	credentials_non_expired, deleted, deleted_at, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Firstname, &u.Lastname, &u.Address, &u.BirthDate,
		&u.Enabled, &u.AccountNonExpired, &u.AccountNonLocked,
		&u.CredentialsNonExpired, &u.Deleted, &u.DeletedAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// Create inserts a user row together with its role assignments in one
// transaction and returns the new ID. Registration is all-or-nothing: a
// failure on any statement rolls back the whole insert so no partial user
// row survives. The caller provides an already-hashed password.
func (r *UserRepo) Create(ctx context.Context, u *model.User, roleNames []string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, firstname, lastname,
		   address, birth_date, enabled, account_non_expired, account_non_locked,
		   credentials_non_expired)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		u.Username, u.Email, u.PasswordHash, u.Firstname, u.Lastname,
		u.Address, u.BirthDate, u.Enabled, u.AccountNonExpired,
		u.AccountNonLocked, u.CredentialsNonExpired)
	if err != nil {
		return 0, mapDuplicateUser(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, name := range roleNames {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO user_roles (user_id, role_id) SELECT ?, id FROM roles WHERE name=?",
			id, name)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, ErrNotFound // unknown role name
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// mapDuplicateUser converts a MySQL 1062 duplicate-key error into the
// matching sentinel based on which unique index was hit.
func mapDuplicateUser(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "username") {
		return ErrUsernameExists
	}
	if strings.Contains(msg, "email") {
		return ErrEmailExists
	}
	return ErrUsernameExists
}

// GetByUsername fetches a user by username with roles and permissions loaded.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
	if err != nil {
		return u, err
	}
	u.Roles, err = r.loadRoles(ctx, u.ID)
	return u, err
}

// GetByEmail fetches a user by normalized email with roles loaded.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if err != nil {
		return u, err
	}
	u.Roles, err = r.loadRoles(ctx, u.ID)
	return u, err
}

// GetByID fetches a user by id with roles loaded.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err != nil {
		return u, err
	}
	u.Roles, err = r.loadRoles(ctx, u.ID)
	return u, err
}

// loadRoles loads the role rows assigned to a user and, for each role, its
// permission rows. One query for roles, one for the flattened
// role/permission pairs.
func (r *UserRepo) loadRoles(ctx context.Context, userID uint64) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.name FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id=? ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	index := map[uint64]int{}
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		index[role.ID] = len(roles)
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return roles, nil
	}

	permRows, err := r.DB.QueryContext(ctx,
		`SELECT rp.role_id, p.id, p.name FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 JOIN user_roles ur ON ur.role_id = rp.role_id
		 WHERE ur.user_id=? ORDER BY p.id`, userID)
	if err != nil {
		return nil, err
	}
	defer permRows.Close()
	for permRows.Next() {
		var roleID uint64
		var perm model.Permission
		if err := permRows.Scan(&roleID, &perm.ID, &perm.Name); err != nil {
			return nil, err
		}
		if i, ok := index[roleID]; ok {
			roles[i].Permissions = append(roles[i].Permissions, perm)
		}
	}
	return roles, permRows.Err()
}

// ExistsByUsername reports whether any user row has the given username.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username=?", username).Scan(&n)
	return n > 0, err
}

// ExistsByEmail reports whether any user row has the given email.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=?", email).Scan(&n)
	return n > 0, err
}

// List returns a page of users ordered by id plus the total row count.
func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]model.User, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, err
	}
	return r.listPage(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT ? OFFSET ?", total, limit, offset)
}

// Search returns a page of users whose username or email contains the query
// (case-insensitive), plus the matching row count.
func (r *UserRepo) Search(ctx context.Context, query string, offset, limit int) ([]model.User, int, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE LOWER(username) LIKE ? OR LOWER(email) LIKE ?",
		like, like).Scan(&total); err != nil {
		return nil, 0, err
	}
	return r.listPage(ctx,
		"SELECT "+userColumns+` FROM users
		 WHERE LOWER(username) LIKE ? OR LOWER(email) LIKE ?
		 ORDER BY id LIMIT ? OFFSET ?`, total, limit, offset, like, like)
}

// listPage runs a paged SELECT over users and loads roles for each row.
// The trailing args are appended before limit/offset when extra filters are
// present.
func (r *UserRepo) listPage(ctx context.Context, q string, total, limit, offset int, filters ...interface{}) ([]model.User, int, error) {
	args := append(filters, limit, offset)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&u.Firstname, &u.Lastname, &u.Address, &u.BirthDate,
			&u.Enabled, &u.AccountNonExpired, &u.AccountNonLocked,
			&u.CredentialsNonExpired, &u.Deleted, &u.DeletedAt,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range users {
		if users[i].Roles, err = r.loadRoles(ctx, users[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return users, total, nil
}

// UpdateProfile overwrites the mutable profile fields of a user. Username
// and email changes are validated against the unique indexes; a duplicate
// is mapped to the matching sentinel.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET username=?, email=?, firstname=?, lastname=?,
		   address=?, birth_date=? WHERE id=?`,
		u.Username, u.Email, u.Firstname, u.Lastname, u.Address, u.BirthDate, u.ID)
	if err != nil {
		return mapDuplicateUser(err)
	}
	return nil
}

// UpdatePassword replaces the password hash and marks credentials as
// unexpired again.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, credentials_non_expired=1 WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceRoles swaps the user's role assignment for the given set inside a
// transaction. Unknown role names fail the whole operation.
func (r *UserRepo) ReplaceRoles(ctx context.Context, id uint64, roleNames []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id=?", id); err != nil {
		return err
	}
	for _, name := range roleNames {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO user_roles (user_id, role_id) SELECT ?, id FROM roles WHERE name=?",
			id, name)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
	}
	return tx.Commit()
}

// SetEnabled toggles the enabled flag; the lock flag follows it so a
// disabled account is also locked, matching the admin toggle semantics.
func (r *UserRepo) SetEnabled(ctx context.Context, id uint64, enabled bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET enabled=?, account_non_locked=? WHERE id=?", enabled, enabled, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks the user deleted, disabled and locked in one atomic row
// write. The row itself stays in place.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET deleted=1, deleted_at=?, enabled=0, account_non_locked=0
		 WHERE id=?`, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// HardDelete removes the user row permanently; user_roles, books and
// wishlist rows follow via ON DELETE CASCADE.
func (r *UserRepo) HardDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
