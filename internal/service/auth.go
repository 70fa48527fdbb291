package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cristianml/tomevault/internal/auth"
	"github.com/cristianml/tomevault/internal/model"
	"github.com/cristianml/tomevault/internal/queue"
	"github.com/cristianml/tomevault/internal/repository"
	"github.com/cristianml/tomevault/internal/utils"
)

// ErrValidation marks bad input shape: password mismatch, unknown role
// names and similar. Handlers render it as HTTP 400 with
// errorCode validation_error.
var ErrValidation = errors.New("validation error")

// UserStore is the slice of the credential store the authenticator needs.
// *repository.UserRepo satisfies it; tests substitute an in-memory fake.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *model.User, roleNames []string) (uint64, error)
}

// AuthService implements the authenticator: credential verification, token
// issuance and registration. It never logs or stores plaintext passwords.
type AuthService struct {
	Users      UserStore
	Audit      AuditSink
	JWTSecret  string
	JWTIssuer  string
	TokenTTL   time.Duration
	BcryptCost int
}

func NewAuthService(users UserStore, audit AuditSink, secret, issuer string, ttl time.Duration, bcryptCost int) *AuthService {
	if audit == nil {
		audit = NopAuditSink{}
	}
	return &AuthService{
		Users:      users,
		Audit:      audit,
		JWTSecret:  secret,
		JWTIssuer:  issuer,
		TokenTTL:   ttl,
		BcryptCost: bcryptCost,
	}
}

// Authenticate verifies raw credentials and returns the derived principal
// plus a freshly issued token. The identifier may be a username or an
// email: the username match is attempted first, then the email fallback.
// A missing user and a wrong password both surface as ErrInvalidCredentials
// so the two cases are indistinguishable to the caller; account-status
// failures keep their distinct kinds for the errorCode while sharing the
// same outward message.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (auth.Principal, utils.AccessToken, error) {
	identifier = strings.TrimSpace(identifier)

	u, err := s.Users.GetByUsername(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		u, err = s.Users.GetByEmail(ctx, identifier)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return auth.Principal{}, utils.AccessToken{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return auth.Principal{}, utils.AccessToken{}, err
	}

	if !utils.VerifyPassword(u.PasswordHash, password) {
		return auth.Principal{}, utils.AccessToken{}, auth.ErrInvalidCredentials
	}
	if err := auth.CheckAccountStatus(&u); err != nil {
		return auth.Principal{}, utils.AccessToken{}, err
	}

	p := auth.DerivePrincipal(&u)
	token, err := utils.IssueToken(s.JWTSecret, s.JWTIssuer, u.Username, p.Authorities(), s.TokenTTL)
	if err != nil {
		return auth.Principal{}, utils.AccessToken{}, err
	}

	s.Audit.Publish(ctx, queue.AuditEvent{
		Action:  queue.ActionUserLogin,
		Subject: u.Username,
	})
	return p, token, nil
}

// RegisterRequest carries the validated registration input. Roles is
// normally empty; the default USER role is assigned then. An administrative
// caller may pass explicit role names.
type RegisterRequest struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Firstname       string
	Lastname        string
	Address         string
	BirthDate       *time.Time
	Roles           []string
}

// Register validates the candidate, creates the user row with its role
// assignment atomically and returns the stored user, the derived principal
// and a token bound to the new identity. Any validation failure happens
// before the insert, so a failed registration leaves no partial row behind.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (model.User, auth.Principal, utils.AccessToken, error) {
	fail := func(err error) (model.User, auth.Principal, utils.AccessToken, error) {
		return model.User{}, auth.Principal{}, utils.AccessToken{}, err
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" {
		return fail(fmt.Errorf("%w: username and email are required", ErrValidation))
	}
	if req.Password != req.ConfirmPassword {
		return fail(fmt.Errorf("%w: passwords do not match", ErrValidation))
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return fail(err)
	}

	if taken, err := s.Users.ExistsByUsername(ctx, req.Username); err != nil {
		return fail(err)
	} else if taken {
		return fail(repository.ErrUsernameExists)
	}
	if taken, err := s.Users.ExistsByEmail(ctx, req.Email); err != nil {
		return fail(err)
	} else if taken {
		return fail(repository.ErrEmailExists)
	}

	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{model.RoleUser}
	}
	for _, name := range roles {
		if !model.ValidRoleName(name) {
			return fail(fmt.Errorf("%w: unknown role %q", ErrValidation, name))
		}
	}

	hash, err := utils.HashPassword(req.Password, s.BcryptCost)
	if err != nil {
		return fail(err)
	}

	u := model.User{
		Username:              req.Username,
		Email:                 req.Email,
		PasswordHash:          hash,
		Firstname:             req.Firstname,
		Lastname:              req.Lastname,
		Address:               req.Address,
		BirthDate:             req.BirthDate,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
	if _, err := s.Users.Create(ctx, &u, roles); err != nil {
		return fail(err)
	}

	// Reload so the principal reflects the stored role/permission graph,
	// not just the requested role names.
	stored, err := s.Users.GetByUsername(ctx, u.Username)
	if err != nil {
		return fail(err)
	}
	p := auth.DerivePrincipal(&stored)
	token, err := utils.IssueToken(s.JWTSecret, s.JWTIssuer, stored.Username, p.Authorities(), s.TokenTTL)
	if err != nil {
		return fail(err)
	}

	s.Audit.Publish(ctx, queue.AuditEvent{
		Action:  queue.ActionUserRegistered,
		Subject: stored.Username,
	})
	return stored, p, token, nil
}
