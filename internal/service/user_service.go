package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"user-management-api/internal/i18n"
	"user-management-api/internal/mailer"
	"user-management-api/internal/model"
	"user-management-api/pkg/apierror"
)

type UserStore interface {
	TokenVersionStore
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, u *model.User) error
	UpdateProfile(ctx context.Context, id int64, fullName string, email string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateRole(ctx context.Context, id int64, role string) error
	SetApproved(ctx context.Context, id int64, approved bool) error
	List(ctx context.Context, limit int, offset int) ([]model.UserSummary, error)
	Count(ctx context.Context) (int, error)
}

type UserServiceOptions struct {
	PerPage    int
	FirstPage  int
	BcryptCost int
}

type UserService struct {
	users     UserStore
	tokens    *TokenService
	validator *Validator
	mailer    mailer.Sender
	opts      UserServiceOptions
}

func NewUserService(users UserStore, tokens *TokenService, validator *Validator, sender mailer.Sender, opts UserServiceOptions) *UserService {
	if opts.PerPage <= 0 {
		opts.PerPage = 10
	}
	if opts.FirstPage <= 0 {
		opts.FirstPage = 1
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	return &UserService{
		users:     users,
		tokens:    tokens,
		validator: validator,
		mailer:    sender,
		opts:      opts,
	}
}

// Register creates an unapproved user with the default role and sends a
// welcome email. Mail failures are logged and do not undo the registration.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	if err := s.validator.Check(req); err != nil {
		return model.User{}, err
	}
	if err := s.ensureEmailFree(ctx, req.Email, 0); err != nil {
		return model.User{}, err
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return model.User{}, err
	}

	user := model.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return model.User{}, uniqueFieldError("email")
		}
		return model.User{}, err
	}

	if err := s.mailer.SendWelcome(ctx, user); err != nil {
		slog.Error("welcome email failed", "user_id", user.ID, "error", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (string, error) {
	if err := s.validator.Check(req); err != nil {
		return "", err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		return "", apierror.New("UNAUTHORIZED", i18n.T("email_not_found"), "", http.StatusUnauthorized)
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", apierror.New("UNAUTHORIZED", i18n.T("wrong_password"), "", http.StatusUnauthorized)
	}
	if !user.Approved {
		return "", apierror.New("FORBIDDEN", i18n.T("user_not_activated"), "", http.StatusForbidden)
	}

	return s.tokens.Issue(ctx, user.Identity())
}

func (s *UserService) Logout(ctx context.Context, identity model.Identity) error {
	return s.tokens.Revoke(ctx, identity.ID)
}

// List returns one page of users; pages below the first page clamp to it.
func (s *UserService) List(ctx context.Context, page int) (model.UserPage, error) {
	if page < s.opts.FirstPage {
		page = s.opts.FirstPage
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return model.UserPage{}, err
	}

	offset := (page - s.opts.FirstPage) * s.opts.PerPage
	result, err := s.users.List(ctx, s.opts.PerPage, offset)
	if err != nil {
		return model.UserPage{}, err
	}

	return model.UserPage{
		Pagination: model.NewPagination(page, s.opts.PerPage, total),
		Result:     result,
	}, nil
}

func (s *UserService) ChangeRole(ctx context.Context, userID int64, req model.ChangeRoleRequest) error {
	if err := s.validator.Check(req); err != nil {
		return err
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !slices.Contains(model.AssignableRoles, role) {
		return apierror.New("BAD_REQUEST", i18n.T("invalid_role"), role, http.StatusBadRequest)
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	return s.users.UpdateRole(ctx, userID, role)
}

func (s *UserService) Activate(ctx context.Context, userID int64) error {
	return s.users.SetApproved(ctx, userID, true)
}

// Disable also revokes the user's outstanding tokens.
func (s *UserService) Disable(ctx context.Context, userID int64) error {
	if err := s.users.SetApproved(ctx, userID, false); err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, userID)
}

// ResetPassword is the administrator path; it revokes the user's tokens.
func (s *UserService) ResetPassword(ctx context.Context, userID int64, req model.ResetPasswordRequest) error {
	if err := s.validator.Check(req); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, identity model.Identity, req model.ProfileUpdateRequest) error {
	if err := s.validator.Check(req); err != nil {
		return err
	}
	if err := s.ensureEmailFree(ctx, req.Email, identity.ID); err != nil {
		return err
	}

	err := s.users.UpdateProfile(ctx, identity.ID, strings.TrimSpace(req.FullName), strings.TrimSpace(req.Email))
	if errors.Is(err, model.ErrEmailTaken) {
		return uniqueFieldError("email")
	}
	return err
}

func (s *UserService) ChangePassword(ctx context.Context, identity model.Identity, req model.ChangePasswordRequest) error {
	if err := s.validator.Check(req); err != nil {
		return err
	}

	user, err := s.users.FindByID(ctx, identity.ID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return apierror.New("UNAUTHORIZED", i18n.T("wrong_password"), "", http.StatusUnauthorized)
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, identity.ID, hash)
}

// EnsureAdmin creates an approved administrator unless the email is already registered.
func (s *UserService) EnsureAdmin(ctx context.Context, email string, password string, fullName string) error {
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return err
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}

	admin := model.User{
		FullName:     fullName,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Approved:     true,
	}
	if err := s.users.Create(ctx, &admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	slog.Info("bootstrap admin created", "user_id", admin.ID, "email", admin.Email)
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, excludeID int64) error {
	taken, err := s.users.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return uniqueFieldError("email")
	}
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
