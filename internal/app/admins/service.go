package admins

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/platform/auth/session"
	"github.com/climbing-section/backoffice/internal/platform/password"
	"github.com/climbing-section/backoffice/internal/ports/out/adminrepo"
	clockport "github.com/climbing-section/backoffice/internal/ports/out/clock"
	"github.com/climbing-section/backoffice/internal/ports/out/invitationrepo"
	"github.com/climbing-section/backoffice/internal/ports/out/mailer"
)

const (
	DefaultInvitationTTL = 72 * time.Hour
	maxNameRunes         = 100
)

// Sessions issues and verifies admin session tokens.
type Sessions interface {
	Issue(adminID domain.AdminID) (session.Token, error)
	Verify(ctx context.Context, token string) (domain.AdminID, error)
}

// PasswordHasher hashes and verifies admin passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

type Options struct {
	InvitationTTL time.Duration
	// PublicBaseURL prefixes the activation link sent by email.
	PublicBaseURL string
}

type Service struct {
	repo        adminrepo.Repository
	invitations invitationrepo.Repository
	sessions    Sessions
	hasher      PasswordHasher
	mail        mailer.Mailer
	clk         clockport.Clock
	logger      *zap.Logger
	opts        Options

	newAdminID func() domain.AdminID

	dummyOnce sync.Once
	dummyHash string
}

func NewService(
	repo adminrepo.Repository,
	invitations invitationrepo.Repository,
	sessions Sessions,
	hasher PasswordHasher,
	mailSender mailer.Mailer,
	clk clockport.Clock,
	logger *zap.Logger,
	opts Options,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = password.Hasher{}
	}
	if opts.InvitationTTL <= 0 {
		opts.InvitationTTL = DefaultInvitationTTL
	}
	return &Service{
		repo:        repo,
		invitations: invitations,
		sessions:    sessions,
		hasher:      hasher,
		mail:        mailSender,
		clk:         clk,
		logger:      logger,
		opts:        opts,
		newAdminID: func() domain.AdminID {
			return domain.AdminID(uuid.NewString())
		},
	}
}

// Login exchanges credentials for a session. Unknown emails, wrong passwords and
// non-active admins all yield the same INVALID_CREDENTIALS error.
func (s *Service) Login(ctx context.Context, email, pw string) (Session, error) {
	email = domain.NormalizeEmail(email)
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, adminrepo.ErrNotFound) {
			return Session{}, fmt.Errorf("lookup admin: %w", err)
		}
		// Unknown emails still pay for one hash verification.
		_, _ = s.hasher.Verify(pw, s.dummy())
		s.logger.Warn("login failed", zap.String("email", email), zap.String("reason", "unknown_email"))
		return Session{}, invalidCredentials()
	}
	if a.PasswordHash == "" {
		_, _ = s.hasher.Verify(pw, s.dummy())
		s.logger.Warn("login failed", zap.String("adminId", string(a.ID)), zap.String("reason", "no_password"))
		return Session{}, invalidCredentials()
	}
	ok, err := s.hasher.Verify(pw, a.PasswordHash)
	if err != nil {
		return Session{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Warn("login failed", zap.String("adminId", string(a.ID)), zap.String("reason", "wrong_password"))
		return Session{}, invalidCredentials()
	}
	if !a.IsActive() {
		s.logger.Warn("login failed", zap.String("adminId", string(a.ID)), zap.String("reason", "status_"+string(a.Status)))
		return Session{}, invalidCredentials()
	}

	tok, err := s.sessions.Issue(a.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}
	now := s.clk.Now()
	a.LastLoginAt = &now
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		return Session{}, fmt.Errorf("record login: %w", err)
	}
	s.logger.Info("login succeeded", zap.String("adminId", string(a.ID)))
	return Session{Token: tok, Admin: a}, nil
}

// Authenticate resolves a session token to a still-active admin.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.Admin, error) {
	if token == "" {
		return domain.Admin{}, unauthenticated()
	}
	id, err := s.sessions.Verify(ctx, token)
	if err != nil {
		return domain.Admin{}, unauthenticated()
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, adminrepo.ErrNotFound) {
			return domain.Admin{}, unauthenticated()
		}
		return domain.Admin{}, fmt.Errorf("load session admin: %w", err)
	}
	if !a.IsActive() {
		return domain.Admin{}, unauthenticated()
	}
	return a, nil
}

func (s *Service) ChangePassword(ctx context.Context, adminID domain.AdminID, current, next string) error {
	a, err := s.get(ctx, adminID)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Verify(current, a.PasswordHash)
	if err != nil && !errors.Is(err, password.ErrInvalidHash) {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Warn("password change refused", zap.String("adminId", string(a.ID)))
		return validationError(map[string]any{"currentPassword": "is incorrect"})
	}
	if err := password.Validate(next); err != nil {
		return validationError(map[string]any{"newPassword": err.Error()})
	}
	if next == current {
		return validationError(map[string]any{"newPassword": "must differ from the current password"})
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.PasswordHash = hash
	a.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, a); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.Info("password changed", zap.String("adminId", string(a.ID)))
	return nil
}

func (s *Service) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return out, nil
}

func (s *Service) GetAdmin(ctx context.Context, id domain.AdminID) (domain.Admin, error) {
	return s.get(ctx, id)
}

func (s *Service) UpdateAdmin(ctx context.Context, id domain.AdminID, in UpdateAdminInput) (domain.Admin, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return domain.Admin{}, err
	}
	details := map[string]any{}
	if in.FirstName.IsSpecified() {
		if in.FirstName.IsNull() {
			details["firstName"] = "cannot be null"
		} else {
			a.FirstName = validateName(details, "firstName", in.FirstName.Value())
		}
	}
	if in.LastName.IsSpecified() {
		if in.LastName.IsNull() {
			details["lastName"] = "cannot be null"
		} else {
			a.LastName = validateName(details, "lastName", in.LastName.Value())
		}
	}
	if len(details) > 0 {
		return domain.Admin{}, validationError(details)
	}
	a.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, a); err != nil {
		return domain.Admin{}, fmt.Errorf("update admin: %w", err)
	}
	return a, nil
}

// DisableAdmin blocks logins for the target and revokes its pending invitations.
func (s *Service) DisableAdmin(ctx context.Context, actor, id domain.AdminID) (domain.Admin, error) {
	if actor == id {
		return domain.Admin{}, cannotTargetSelf("disable")
	}
	a, err := s.get(ctx, id)
	if err != nil {
		return domain.Admin{}, err
	}
	if a.Status == domain.AdminStatusDisabled {
		return a, nil
	}
	if err := s.ensureNotLastActive(ctx, a); err != nil {
		return domain.Admin{}, err
	}
	if err := s.invitations.DeleteByAdmin(ctx, a.ID); err != nil {
		return domain.Admin{}, fmt.Errorf("revoke invitations: %w", err)
	}
	a.Status = domain.AdminStatusDisabled
	a.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, a); err != nil {
		return domain.Admin{}, fmt.Errorf("disable admin: %w", err)
	}
	s.logger.Info("admin disabled", zap.String("adminId", string(a.ID)), zap.String("by", string(actor)))
	return a, nil
}

// EnableAdmin restores a disabled admin. Admins that never chose a password go back
// to INVITED and need a fresh invitation.
func (s *Service) EnableAdmin(ctx context.Context, actor, id domain.AdminID) (domain.Admin, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return domain.Admin{}, err
	}
	if a.Status != domain.AdminStatusDisabled {
		return a, nil
	}
	if a.PasswordHash == "" {
		a.Status = domain.AdminStatusInvited
	} else {
		a.Status = domain.AdminStatusActive
	}
	a.UpdatedAt = s.clk.Now()
	if err := s.repo.Update(ctx, a); err != nil {
		return domain.Admin{}, fmt.Errorf("enable admin: %w", err)
	}
	s.logger.Info("admin enabled", zap.String("adminId", string(a.ID)), zap.String("by", string(actor)))
	return a, nil
}

func (s *Service) DeleteAdmin(ctx context.Context, actor, id domain.AdminID) error {
	if actor == id {
		return cannotTargetSelf("delete")
	}
	a, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureNotLastActive(ctx, a); err != nil {
		return err
	}
	if err := s.invitations.DeleteByAdmin(ctx, a.ID); err != nil {
		return fmt.Errorf("revoke invitations: %w", err)
	}
	if err := s.repo.Delete(ctx, a.ID); err != nil {
		if errors.Is(err, adminrepo.ErrNotFound) {
			return notFound()
		}
		return fmt.Errorf("delete admin: %w", err)
	}
	s.logger.Info("admin deleted", zap.String("adminId", string(a.ID)), zap.String("by", string(actor)))
	return nil
}

// BootstrapAdmin creates an active admin unless one already exists with that email.
// It reports whether a new admin was created.
func (s *Service) BootstrapAdmin(ctx context.Context, email, pw string) (domain.Admin, bool, error) {
	email = domain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return domain.Admin{}, false, validationError(map[string]any{"email": err.Error()})
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, adminrepo.ErrNotFound) {
		return domain.Admin{}, false, fmt.Errorf("lookup admin: %w", err)
	}
	if err := password.Validate(pw); err != nil {
		return domain.Admin{}, false, validationError(map[string]any{"password": err.Error()})
	}
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return domain.Admin{}, false, fmt.Errorf("hash password: %w", err)
	}
	now := s.clk.Now()
	a := domain.Admin{
		ID:           s.newAdminID(),
		Email:        email,
		FirstName:    "Admin",
		LastName:     "Bootstrap",
		PasswordHash: hash,
		Status:       domain.AdminStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, adminrepo.ErrEmailTaken) {
			existing, gerr := s.repo.GetByEmail(ctx, email)
			if gerr != nil {
				return domain.Admin{}, false, fmt.Errorf("lookup admin: %w", gerr)
			}
			return existing, false, nil
		}
		return domain.Admin{}, false, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", zap.String("adminId", string(a.ID)), zap.String("email", email))
	return a, true, nil
}

func (s *Service) get(ctx context.Context, id domain.AdminID) (domain.Admin, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, adminrepo.ErrNotFound) {
			return domain.Admin{}, notFound()
		}
		return domain.Admin{}, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

func (s *Service) ensureNotLastActive(ctx context.Context, target domain.Admin) error {
	if !target.IsActive() {
		return nil
	}
	n, err := s.repo.CountByStatus(ctx, domain.AdminStatusActive)
	if err != nil {
		return fmt.Errorf("count active admins: %w", err)
	}
	if n <= 1 {
		return lastActiveAdmin()
	}
	return nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func validateName(details map[string]any, field, v string) string {
	n := domain.NormalizeHumanName(v)
	switch {
	case n == "":
		details[field] = "must be non-empty"
	case utf8.RuneCountInString(n) > maxNameRunes:
		details[field] = "must be at most 100 characters"
	}
	return n
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("must be a valid email address")
	}
	return nil
}
