package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cristianml/tomevault/internal/auth"
	"github.com/cristianml/tomevault/internal/middleware"
	"github.com/cristianml/tomevault/internal/model"
	"github.com/cristianml/tomevault/internal/queue"
	"github.com/cristianml/tomevault/internal/service"
	"github.com/cristianml/tomevault/internal/utils"
)

// UserAdminStore is the slice of the user store the admin endpoints need.
// *repository.UserRepo satisfies it; tests substitute an in-memory fake.
type UserAdminStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context, offset, limit int) ([]model.User, int, error)
	Search(ctx context.Context, query string, offset, limit int) ([]model.User, int, error)
	UpdateProfile(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
	ReplaceRoles(ctx context.Context, id uint64, roleNames []string) error
	SetEnabled(ctx context.Context, id uint64, enabled bool) error
	SoftDelete(ctx context.Context, id uint64, at time.Time) error
	HardDelete(ctx context.Context, id uint64) error
}

// AdminUserHandler exposes user management under /admin/users. Reaching any
// of these routes already requires the ADMIN or SUPER_ADMIN role (enforced
// by the route policy); on top of that every mutation passes the ownership
// rule in canManage, which the static policy cannot express because it
// depends on the target row.
type AdminUserHandler struct {
	Users      UserAdminStore
	Auth       *service.AuthService
	Audit      service.AuditSink
	BcryptCost int
}

func NewAdminUserHandler(users UserAdminStore, authSvc *service.AuthService, audit service.AuditSink, bcryptCost int) *AdminUserHandler {
	if audit == nil {
		audit = service.NopAuditSink{}
	}
	return &AdminUserHandler{Users: users, Auth: authSvc, Audit: audit, BcryptCost: bcryptCost}
}

// canManage decides whether the acting principal may mutate the target
// user. SUPER_ADMIN may act on anyone. ADMIN may act only on targets that
// hold neither ADMIN nor SUPER_ADMIN, so admins cannot touch their peers or
// their superiors.
func canManage(actor *auth.Principal, target *model.User) error {
	if actor.HasRole(model.RoleSuperAdmin) {
		return nil
	}
	if !actor.HasRole(model.RoleAdmin) {
		return auth.ErrAccessDenied
	}
	if target.HasRole(model.RoleAdmin) || target.HasRole(model.RoleSuperAdmin) {
		return auth.ErrAccessDenied
	}
	return nil
}

// loadTarget fetches the target row for an /admin/users/:id route and runs
// the ownership check against the acting principal.
func (h *AdminUserHandler) loadTarget(ctx context.Context, c echo.Context) (*auth.Principal, model.User, error) {
	actor := middleware.CurrentPrincipal(c)
	if actor == nil {
		return nil, model.User{}, auth.ErrAccessDenied
	}
	id, err := pathID(c, "id")
	if err != nil {
		return nil, model.User{}, service.ErrValidation
	}
	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return nil, model.User{}, err
	}
	if err := canManage(actor, &target); err != nil {
		return nil, model.User{}, err
	}
	return actor, target, nil
}

func (h *AdminUserHandler) audit(ctx context.Context, action string, actor *auth.Principal, subject, detail string) {
	h.Audit.Publish(ctx, queue.AuditEvent{
		Action:  action,
		Actor:   actor.Username,
		Subject: subject,
		Detail:  detail,
	})
}

// List handles GET /admin/users.
func (h *AdminUserHandler) List(c echo.Context) error {
	page, size := parsePage(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, total, err := h.Users.List(ctx, page*size, size)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return c.JSON(http.StatusOK, newPageResponse(out, page, size, total))
}

// Search handles GET /admin/users/search?q= matching username or email.
func (h *AdminUserHandler) Search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return errBody(c, http.StatusBadRequest, "Query parameter q is required.", "validation_error")
	}
	page, size := parsePage(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, total, err := h.Users.Search(ctx, query, page*size, size)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	return c.JSON(http.StatusOK, newPageResponse(out, page, size, total))
}

// Get handles GET /admin/users/:id. Viewing is open to any admin; only
// mutations pass the ownership rule.
func (h *AdminUserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid user id.", "validation_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(&u))
}

type adminCreateRequest struct {
	Username        string   `json:"username"`
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirmPassword"`
	Firstname       string   `json:"firstname"`
	Lastname        string   `json:"lastname"`
	Address         string   `json:"address"`
	BirthDate       string   `json:"birthDate"`
	Roles           []string `json:"roles"`
}

// Create handles POST /admin/users. Unlike self sign-up, explicit role
// names may be supplied. An ADMIN caller cannot mint ADMIN or SUPER_ADMIN
// accounts; that is again the ownership rule, applied to the requested
// roles before the row exists.
func (h *AdminUserHandler) Create(c echo.Context) error {
	actor := middleware.CurrentPrincipal(c)
	if actor == nil {
		return errBody(c, http.StatusUnauthorized, "Authentication required.", "invalid_token")
	}

	var req adminCreateRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}
	birth, err := parseDate(req.BirthDate)
	if err != nil {
		return errBody(c, http.StatusBadRequest, "Birth date must be in yyyy-mm-dd format.", "validation_error")
	}
	if !actor.HasRole(model.RoleSuperAdmin) {
		for _, name := range req.Roles {
			if name == model.RoleAdmin || name == model.RoleSuperAdmin {
				return writeError(c, auth.ErrAccessDenied)
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, _, _, err := h.Auth.Register(ctx, service.RegisterRequest{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Firstname:       req.Firstname,
		Lastname:        req.Lastname,
		Address:         req.Address,
		BirthDate:       birth,
		Roles:           req.Roles,
	})
	if err != nil {
		return writeError(c, err)
	}

	h.audit(ctx, queue.ActionAdminUserCreated, actor, u.Username, "")
	return c.JSON(http.StatusCreated, toUserResponse(&u))
}

// Update handles PUT /admin/users/:id: profile fields only. Roles and
// password have their own endpoints.
func (h *AdminUserHandler) Update(c echo.Context) error {
	var req profileUpdateRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}
	birth, err := parseDate(req.BirthDate)
	if err != nil {
		return errBody(c, http.StatusBadRequest, "Birth date must be in yyyy-mm-dd format.", "validation_error")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	actor, target, err := h.loadTarget(ctx, c)
	if err != nil {
		return writeError(c, err)
	}
	if req.Email != "" {
		target.Email = req.Email
	}
	target.Firstname = req.Firstname
	target.Lastname = req.Lastname
	target.Address = req.Address
	if birth != nil {
		target.BirthDate = birth
	}

	if err := h.Users.UpdateProfile(ctx, &target); err != nil {
		return writeError(c, err)
	}
	h.audit(ctx, queue.ActionAdminUserUpdated, actor, target.Username, "profile")
	return c.JSON(http.StatusOK, toUserResponse(&target))
}

// SoftDelete handles DELETE /admin/users/:id: marks the row deleted,
// disables and locks the account but keeps it for audit history.
func (h *AdminUserHandler) SoftDelete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	actor, target, err := h.loadTarget(ctx, c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Users.SoftDelete(ctx, target.ID, time.Now()); err != nil {
		return writeError(c, err)
	}
	h.audit(ctx, queue.ActionAdminUserDeleted, actor, target.Username, "soft")
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted.", "status": true})
}

// HardDelete handles DELETE /admin/users/:id/permanent: removes the row and
// everything hanging off it through the cascading foreign keys.
func (h *AdminUserHandler) HardDelete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	actor, target, err := h.loadTarget(ctx, c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Users.HardDelete(ctx, target.ID); err != nil {
		return writeError(c, err)
	}
	h.audit(ctx, queue.ActionAdminUserDeleted, actor, target.Username, "permanent")
	return c.JSON(http.StatusOK, echo.Map{"message": "User permanently deleted.", "status": true})
}

type rolesRequest struct {
	Roles []string `json:"roles"`
}

// ReplaceRoles handles PUT /admin/users/:id/roles. The new set replaces the
// old one wholesale; granting ADMIN or SUPER_ADMIN requires SUPER_ADMIN.
func (h *AdminUserHandler) ReplaceRoles(c echo.Context) error {
	var req rolesRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}
	if len(req.Roles) == 0 {
		return errBody(c, http.StatusBadRequest, "At least one role is required.", "validation_error")
	}
	for _, name := range req.Roles {
		if !model.ValidRoleName(name) {
			return errBody(c, http.StatusBadRequest, "Unknown role: "+name, "validation_error")
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	actor, target, err := h.loadTarget(ctx, c)
	if err != nil {
		return writeError(c, err)
	}
	if !actor.HasRole(model.RoleSuperAdmin) {
		for _, name := range req.Roles {
			if name == model.RoleAdmin || name == model.RoleSuperAdmin {
				return writeError(c, auth.ErrAccessDenied)
			}
		}
	}

	if err := h.Users.ReplaceRoles(ctx, target.ID, req.Roles); err != nil {
		return writeError(c, err)
	}
	h.audit(ctx, queue.ActionAdminRolesChanged, actor, target.Username, "")

	u, err := h.Users.GetByID(ctx, target.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(&u))
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// ResetPassword handles PUT /admin/users/:id/reset-password. The new
// password must satisfy the same strength policy as everywhere else.
func (h *AdminUserHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return errBody(c, http.StatusBadRequest, "Invalid request body.", "validation_error")
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	actor, target, err := h.loadTarget(ctx, c)
	if err != nil {
		return writeError(c, err)
	}

	hash, err := utils.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.Users.UpdatePassword(ctx, target.ID, hash); err != nil {
		return writeError(c, err)
	}
	h.audit(ctx, queue.ActionAdminPassReset, actor, target.Username, "")
	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successfully.", "status": true})
}

// ToggleStatus handles PUT /admin/users/toggle-status/:id: flips the
// enabled flag. A soft-deleted account cannot be re-enabled this way; it
// must be restored through a dedicated path first.
func (h *AdminUserHandler) ToggleStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	actor, target, err := h.loadTarget(ctx, c)
	if err != nil {
		return writeError(c, err)
	}
	if target.Deleted {
		return errBody(c, http.StatusBadRequest, "Cannot change status of a deleted user.", "conflict")
	}

	if err := h.Users.SetEnabled(ctx, target.ID, !target.Enabled); err != nil {
		return writeError(c, err)
	}
	h.audit(ctx, queue.ActionAdminStatusToggle, actor, target.Username, "")

	u, err := h.Users.GetByID(ctx, target.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(&u))
}
