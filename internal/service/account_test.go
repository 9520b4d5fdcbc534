package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"remod3/internal/auth"
	"remod3/internal/domain"
	"remod3/internal/domain/models"
)

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Username == user.Username {
			return &domain.ConflictError{Message: "username taken", ResourceType: "user"}
		}
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email != nil && *u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
}

func (r *fakeUserRepo) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id, role string) error {
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	u.Role = role
	return nil
}

type fakeResetRepo struct {
	resets map[string]*models.PasswordReset
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{resets: make(map[string]*models.PasswordReset)}
}

func (r *fakeResetRepo) Create(ctx context.Context, reset *models.PasswordReset) error {
	copied := *reset
	r.resets[reset.ID] = &copied
	return nil
}

func (r *fakeResetRepo) GetActiveByCode(ctx context.Context, code string) (*models.PasswordReset, error) {
	for _, reset := range r.resets {
		if reset.Code == code && !reset.Used {
			copied := *reset
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("reset token: %w", domain.ErrNotFound)
}

func (r *fakeResetRepo) MarkUsed(ctx context.Context, id string) error {
	reset, ok := r.resets[id]
	if !ok {
		return fmt.Errorf("reset token: %w", domain.ErrNotFound)
	}
	reset.Used = true
	return nil
}

type fakeResetReqRepo struct {
	requests []*models.AdminResetRequest
}

func (r *fakeResetReqRepo) Create(ctx context.Context, req *models.AdminResetRequest) error {
	copied := *req
	r.requests = append(r.requests, &copied)
	return nil
}

func (r *fakeResetReqRepo) ListPending(ctx context.Context) ([]models.AdminResetRequest, error) {
	var out []models.AdminResetRequest
	for _, req := range r.requests {
		if req.Status == models.ResetRequestPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeResetReqRepo) CompleteForUser(ctx context.Context, userID string, completedAt time.Time) error {
	for _, req := range r.requests {
		if req.UserID == userID && req.Status == models.ResetRequestPending {
			req.Status = models.ResetRequestCompleted
			at := completedAt
			req.CompletedAt = &at
		}
	}
	return nil
}

type fakeMailer struct {
	configured bool
	sent       []string // reset URLs
}

func (m *fakeMailer) IsConfigured() bool { return m.configured }

func (m *fakeMailer) SendPasswordReset(to, username, resetURL string) error {
	m.sent = append(m.sent, resetURL)
	return nil
}

type accountFixture struct {
	svc      *AccountService
	users    *fakeUserRepo
	resets   *fakeResetRepo
	requests *fakeResetReqRepo
	mailer   *fakeMailer
}

func newAccountFixture(mailerConfigured bool) *accountFixture {
	users := newFakeUserRepo()
	resets := newFakeResetRepo()
	requests := &fakeResetReqRepo{}
	mailer := &fakeMailer{configured: mailerConfigured}
	svc := NewAccountService(
		users, resets, requests, fakeTxManager{},
		mailer, []byte("test-secret"), "http://localhost:3000", testLogger(),
	)
	return &accountFixture{svc: svc, users: users, resets: resets, requests: requests, mailer: mailer}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAccountFixture(false)
	ctx := context.Background()

	result, err := f.svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.User.Role != models.RoleUser {
		t.Errorf("new account role = %q, want user", result.User.Role)
	}
	if result.Token == "" {
		t.Error("no token issued on register")
	}

	claims, err := auth.ParseToken([]byte("test-secret"), result.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Username != "alice" || claims.Subject != result.User.ID {
		t.Errorf("token claims = %q/%q", claims.Username, claims.Subject)
	}

	t.Run("correct password", func(t *testing.T) {
		got, err := f.svc.Login(ctx, "alice", "hunter22")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if got.User.Username != "alice" {
			t.Errorf("login user = %q", got.User.Username)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "alice", "wrong")
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("wrong password error = %v, want unauthorized", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "nobody", "hunter22")
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("unknown user error = %v, want unauthorized", err)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := f.svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "hunter22"})
		if !errors.Is(err, domain.ErrConflict) {
			t.Errorf("duplicate register error = %v, want conflict", err)
		}
	})

	t.Run("short password", func(t *testing.T) {
		_, err := f.svc.Register(ctx, &RegisterRequest{Username: "bob", Password: "abc"})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("short password error = %v, want validation", err)
		}
	})
}

func TestEmailResetFlow(t *testing.T) {
	f := newAccountFixture(true)
	ctx := context.Background()

	email := "alice@example.com"
	result, err := f.svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "hunter22", Email: &email})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := f.svc.RequestPasswordReset(ctx, "alice"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent %d reset emails, want 1", len(f.mailer.sent))
	}
	if len(f.resets.resets) != 1 {
		t.Fatalf("stored %d reset tokens, want 1", len(f.resets.resets))
	}

	var code string
	for _, reset := range f.resets.resets {
		code = reset.Code
	}

	if err := f.svc.VerifyResetCode(ctx, code); err != nil {
		t.Fatalf("fresh code does not verify: %v", err)
	}
	if err := f.svc.VerifyResetCode(ctx, "no-such-code"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("unknown code verify error = %v, want unauthorized", err)
	}

	if err := f.svc.ConfirmPasswordReset(ctx, code, "newpass99"); err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}

	if _, err := f.svc.Login(ctx, "alice", "newpass99"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
	if _, err := f.svc.Login(ctx, "alice", "hunter22"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("old password still accepted: %v", err)
	}

	t.Run("code is single use", func(t *testing.T) {
		err := f.svc.ConfirmPasswordReset(ctx, code, "anotherpass")
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("reused code error = %v, want unauthorized", err)
		}
	})

	t.Run("used code no longer verifies", func(t *testing.T) {
		if err := f.svc.VerifyResetCode(ctx, code); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("used code verify error = %v, want unauthorized", err)
		}
	})

	t.Run("unknown username is opaque", func(t *testing.T) {
		if err := f.svc.RequestPasswordReset(ctx, "nobody"); err != nil {
			t.Errorf("unknown username leaked an error: %v", err)
		}
	})

	_ = result
}

func TestExpiredResetCode(t *testing.T) {
	f := newAccountFixture(true)
	ctx := context.Background()

	email := "alice@example.com"
	result, _ := f.svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "hunter22", Email: &email})

	f.resets.resets["r1"] = &models.PasswordReset{
		ID:        "r1",
		UserID:    result.User.ID,
		Code:      "stale-code",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	err := f.svc.ConfirmPasswordReset(ctx, "stale-code", "newpass99")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expired code error = %v, want unauthorized", err)
	}

	if err := f.svc.VerifyResetCode(ctx, "stale-code"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expired code verify error = %v, want unauthorized", err)
	}
}

func TestAdminResetFlow(t *testing.T) {
	// No email on file and no mailer: the request queues for an admin.
	f := newAccountFixture(false)
	ctx := context.Background()

	result, err := f.svc.Register(ctx, &RegisterRequest{Username: "bob", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := f.svc.RequestPasswordReset(ctx, "bob"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	pending, err := f.svc.ListResetRequests(ctx)
	if err != nil {
		t.Fatalf("ListResetRequests failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Username != "bob" {
		t.Fatalf("pending requests = %#v", pending)
	}

	password, err := f.svc.AdminResetPassword(ctx, result.User.ID)
	if err != nil {
		t.Fatalf("AdminResetPassword failed: %v", err)
	}
	if len(password) != generatedPasswordLength {
		t.Errorf("generated password length = %d, want %d", len(password), generatedPasswordLength)
	}

	if _, err := f.svc.Login(ctx, "bob", password); err != nil {
		t.Errorf("login with generated password failed: %v", err)
	}

	pending, _ = f.svc.ListResetRequests(ctx)
	if len(pending) != 0 {
		t.Errorf("%d requests still pending after admin reset", len(pending))
	}
}

func TestUpdateUserRole(t *testing.T) {
	f := newAccountFixture(false)
	ctx := context.Background()

	result, _ := f.svc.Register(ctx, &RegisterRequest{Username: "carol", Password: "hunter22"})

	promoted, err := f.svc.UpdateUserRole(ctx, result.User.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("UpdateUserRole failed: %v", err)
	}
	if promoted.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", promoted.Role)
	}

	if _, err := f.svc.UpdateUserRole(ctx, result.User.ID, "superuser"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad role error = %v, want validation", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newAccountFixture(false)
	ctx := context.Background()

	result, _ := f.svc.Register(ctx, &RegisterRequest{Username: "dave", Password: "hunter22"})

	if err := f.svc.ChangePassword(ctx, result.User.ID, "wrong", "newpass99"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("wrong current password error = %v, want unauthorized", err)
	}

	if err := f.svc.ChangePassword(ctx, result.User.ID, "hunter22", "newpass99"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if _, err := f.svc.Login(ctx, "dave", "newpass99"); err != nil {
		t.Errorf("login with changed password failed: %v", err)
	}
}
