package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"remod3/internal/auth"
	"remod3/internal/domain"
	"remod3/internal/domain/models"
	"remod3/internal/domain/repositories"
)

// resetCodeTTL bounds how long an emailed reset link stays valid.
const resetCodeTTL = time.Hour

// generatedPasswordLength sizes the passwords handed out by admin resets.
const generatedPasswordLength = 8

// Mailer sends account emails. The zero-config deployment runs without one;
// IsConfigured gates the email-based reset path.
type Mailer interface {
	IsConfigured() bool
	SendPasswordReset(to, username, resetURL string) error
}

// AccountService handles registration, login, and the password-reset flows
type AccountService struct {
	userRepo     repositories.UserRepository
	resetRepo    repositories.PasswordResetRepository
	resetReqRepo repositories.AdminResetRequestRepository
	txManager    repositories.TransactionManager
	mailer       Mailer
	jwtSecret    []byte
	frontendURL  string
	logger       *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	userRepo repositories.UserRepository,
	resetRepo repositories.PasswordResetRepository,
	resetReqRepo repositories.AdminResetRequestRepository,
	txManager repositories.TransactionManager,
	mailer Mailer,
	jwtSecret []byte,
	frontendURL string,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		userRepo:     userRepo,
		resetRepo:    resetRepo,
		resetReqRepo: resetReqRepo,
		txManager:    txManager,
		mailer:       mailer,
		jwtSecret:    jwtSecret,
		frontendURL:  frontendURL,
		logger:       logger,
	}
}

// RegisterRequest carries the inputs for creating an account
type RegisterRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Email    *string `json:"email"`
}

// AuthResult is a logged-in identity with its freshly minted token
type AuthResult struct {
	Token string             `json:"token"`
	User  *models.PublicUser `json:"user"`
}

// Register creates a new account and logs it in. New accounts always get the
// user role; promotion is a separate admin operation.
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&req.Password, validation.Required, validation.Length(6, 128)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	email := req.Email
	if email != nil && *email == "" {
		email = nil
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "id", user.ID, "username", user.Username)
	return s.issueAuth(user)
}

// Login verifies credentials and mints a token. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	s.logger.Info("user logged in", "id", user.ID, "username", user.Username)
	return s.issueAuth(user)
}

// GetUser retrieves a user's public profile
func (s *AccountService) GetUser(ctx context.Context, id string) (*models.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// ListUsers retrieves every account's public profile
func (s *AccountService) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	public := make([]models.PublicUser, len(users))
	for i := range users {
		public[i] = *users[i].Public()
	}
	return public, nil
}

// ChangePassword replaces a user's password after verifying the current one
func (s *AccountService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := validation.Validate(next, validation.Required, validation.Length(6, 128)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return fmt.Errorf("current password mismatch: %w", domain.ErrUnauthorized)
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// RequestPasswordReset starts a reset for the named account. Accounts with an
// email on file get a single-use emailed link; the rest are queued for an
// administrator. The outcome is deliberately opaque to the caller so the
// endpoint cannot be used to probe which usernames exist.
func (s *AccountService) RequestPasswordReset(ctx context.Context, username string) error {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("reset requested for unknown username")
			return nil
		}
		return err
	}

	if user.Email != nil && s.mailer != nil && s.mailer.IsConfigured() {
		code, err := auth.GenerateResetCode()
		if err != nil {
			return err
		}

		now := time.Now()
		reset := &models.PasswordReset{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Code:      code,
			CreatedAt: now,
			ExpiresAt: now.Add(resetCodeTTL),
			Used:      false,
		}
		if err := s.resetRepo.Create(ctx, reset); err != nil {
			return err
		}

		resetURL := fmt.Sprintf("%s/reset-password?code=%s", s.frontendURL, code)
		if err := s.mailer.SendPasswordReset(*user.Email, user.Username, resetURL); err != nil {
			s.logger.Error("reset email failed", "user_id", user.ID, "error", err)
			return err
		}

		s.logger.Info("reset email sent", "user_id", user.ID)
		return nil
	}

	req := &models.AdminResetRequest{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Username:    user.Username,
		Status:      models.ResetRequestPending,
		RequestedAt: time.Now(),
	}
	if err := s.resetReqRepo.Create(ctx, req); err != nil {
		return err
	}

	s.logger.Info("reset queued for admin", "user_id", user.ID)
	return nil
}

// VerifyResetCode reports whether a reset code is still redeemable, so the
// frontend can reject a dead link before asking for a new password.
func (s *AccountService) VerifyResetCode(ctx context.Context, code string) error {
	reset, err := s.resetRepo.GetActiveByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("invalid reset code: %w", domain.ErrUnauthorized)
	}
	if time.Now().After(reset.ExpiresAt) {
		return fmt.Errorf("reset code expired: %w", domain.ErrUnauthorized)
	}
	return nil
}

// ConfirmPasswordReset consumes an emailed reset code and sets the new
// password. The code is single-use and expires after an hour.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if err := validation.Validate(newPassword, validation.Required, validation.Length(6, 128)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		reset, err := s.resetRepo.GetActiveByCode(txCtx, code)
		if err != nil {
			return fmt.Errorf("invalid reset code: %w", domain.ErrUnauthorized)
		}
		if time.Now().After(reset.ExpiresAt) {
			return fmt.Errorf("reset code expired: %w", domain.ErrUnauthorized)
		}

		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return err
		}
		if err := s.userRepo.UpdatePassword(txCtx, reset.UserID, hash); err != nil {
			return err
		}
		if err := s.resetRepo.MarkUsed(txCtx, reset.ID); err != nil {
			return err
		}

		s.logger.Info("password reset confirmed", "user_id", reset.UserID)
		return nil
	})
}

// ListResetRequests retrieves the reset requests awaiting an administrator
func (s *AccountService) ListResetRequests(ctx context.Context) ([]models.AdminResetRequest, error) {
	return s.resetReqRepo.ListPending(ctx)
}

// AdminResetPassword generates a new random password for a user, closing any
// pending reset requests. The plaintext is returned once for the admin to
// hand over out of band.
func (s *AccountService) AdminResetPassword(ctx context.Context, userID string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	password, err := auth.GeneratePassword(generatedPasswordLength)
	if err != nil {
		return "", err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.UpdatePassword(txCtx, user.ID, hash); err != nil {
			return err
		}
		return s.resetReqRepo.CompleteForUser(txCtx, user.ID, time.Now())
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("password reset by admin", "user_id", user.ID)
	return password, nil
}

// UpdateUserRole promotes or demotes an account
func (s *AccountService) UpdateUserRole(ctx context.Context, userID, role string) (*models.PublicUser, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("role updated", "user_id", userID, "role", role)
	return user.Public(), nil
}

func (s *AccountService) issueAuth(user *models.User) (*AuthResult, error) {
	token, err := auth.IssueToken(s.jwtSecret, user.ID, user.Username, user.Role, auth.DefaultTokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}
