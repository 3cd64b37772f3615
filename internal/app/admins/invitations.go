package admins

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/domain"
	"github.com/climbing-section/backoffice/internal/platform/password"
	"github.com/climbing-section/backoffice/internal/ports/out/adminrepo"
	"github.com/climbing-section/backoffice/internal/ports/out/invitationrepo"
	"github.com/climbing-section/backoffice/internal/ports/out/mailer"
)

const tokenBytes = 32

const invitationSubject = "Your access to the climbing section back office"

var invitationBody = template.Must(template.New("invitation").Parse(`Hello {{.FirstName}},

{{if .InviterName}}{{.InviterName}} has invited you{{else}}You have been invited{{end}} to manage the climbing section back office.

Choose your password to activate your account:

{{.Link}}

This link can be used once and expires on {{.ExpiresAt}}.
`))

type invitationMail struct {
	FirstName   string
	InviterName string
	Link        string
	ExpiresAt   string
}

// InviteAdmin creates an INVITED admin and emails them a single-use activation link.
func (s *Service) InviteAdmin(ctx context.Context, inviter domain.AdminID, in InviteAdminInput) (domain.Admin, error) {
	details := map[string]any{}
	email := domain.NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		details["email"] = err.Error()
	}
	first := validateName(details, "firstName", in.FirstName)
	last := validateName(details, "lastName", in.LastName)
	if len(details) > 0 {
		return domain.Admin{}, validationError(details)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return domain.Admin{}, adminExists()
	} else if !errors.Is(err, adminrepo.ErrNotFound) {
		return domain.Admin{}, fmt.Errorf("lookup admin: %w", err)
	}

	now := s.clk.Now()
	a := domain.Admin{
		ID:        s.newAdminID(),
		Email:     email,
		FirstName: first,
		LastName:  last,
		Status:    domain.AdminStatusInvited,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if inviter != "" {
		by := inviter
		a.InvitedBy = &by
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, adminrepo.ErrEmailTaken) {
			return domain.Admin{}, adminExists()
		}
		return domain.Admin{}, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin invited", zap.String("adminId", string(a.ID)), zap.String("by", string(inviter)))

	if err := s.sendInvitation(ctx, a, inviter); err != nil {
		return domain.Admin{}, err
	}
	return a, nil
}

// ResendInvitation revokes the pending tokens of an INVITED admin and sends a new one.
func (s *Service) ResendInvitation(ctx context.Context, actor, id domain.AdminID) error {
	a, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != domain.AdminStatusInvited {
		return &Error{
			Status:  http.StatusConflict,
			Code:    CodeAdminNotInvited,
			Message: "admin has already activated their account",
			Details: map[string]any{"status": string(a.Status)},
		}
	}
	if err := s.invitations.DeleteByAdmin(ctx, a.ID); err != nil {
		return fmt.Errorf("revoke invitations: %w", err)
	}
	return s.sendInvitation(ctx, a, actor)
}

// ActivateAdmin consumes an invitation token and sets the admin's password.
func (s *Service) ActivateAdmin(ctx context.Context, rawToken, pw string) (domain.Admin, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return domain.Admin{}, invitationNotFound()
	}
	digest := hashToken(rawToken)
	inv, err := s.invitations.GetByTokenHash(ctx, digest)
	if err != nil {
		if errors.Is(err, invitationrepo.ErrNotFound) {
			s.logger.Warn("activation refused", zap.String("reason", "unknown_token"))
			return domain.Admin{}, invitationNotFound()
		}
		return domain.Admin{}, fmt.Errorf("lookup invitation: %w", err)
	}
	now := s.clk.Now()
	if inv.IsUsed() {
		s.logger.Warn("activation refused", zap.String("adminId", string(inv.AdminID)), zap.String("reason", "used"))
		return domain.Admin{}, &Error{Status: http.StatusGone, Code: CodeInvitationUsed, Message: "invitation has already been used"}
	}
	if inv.ExpiredAt(now) {
		s.logger.Warn("activation refused", zap.String("adminId", string(inv.AdminID)), zap.String("reason", "expired"))
		return domain.Admin{}, &Error{Status: http.StatusGone, Code: CodeInvitationExpired, Message: "invitation has expired"}
	}
	if err := password.Validate(pw); err != nil {
		return domain.Admin{}, validationError(map[string]any{"password": err.Error()})
	}

	a, err := s.repo.GetByID(ctx, inv.AdminID)
	if err != nil {
		if errors.Is(err, adminrepo.ErrNotFound) {
			return domain.Admin{}, invitationNotFound()
		}
		return domain.Admin{}, fmt.Errorf("load invited admin: %w", err)
	}
	if a.Status != domain.AdminStatusInvited {
		return domain.Admin{}, &Error{Status: http.StatusGone, Code: CodeInvitationUsed, Message: "invitation has already been used"}
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("hash password: %w", err)
	}
	// The admin is updated first: a failed update leaves the token usable, and once the
	// admin is ACTIVE the status check above refuses the token even if MarkUsed fails.
	a.PasswordHash = hash
	a.Status = domain.AdminStatusActive
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		return domain.Admin{}, fmt.Errorf("activate admin: %w", err)
	}
	if err := s.invitations.MarkUsed(ctx, digest, now); err != nil {
		s.logger.Warn("invitation not marked used", zap.String("adminId", string(a.ID)), zap.Error(err))
	}
	s.logger.Info("admin activated", zap.String("adminId", string(a.ID)))
	return a, nil
}

func (s *Service) sendInvitation(ctx context.Context, a domain.Admin, inviter domain.AdminID) error {
	raw, err := newToken()
	if err != nil {
		return fmt.Errorf("generate invitation token: %w", err)
	}
	now := s.clk.Now()
	inv := domain.Invitation{
		TokenHash: hashToken(raw),
		AdminID:   a.ID,
		ExpiresAt: now.Add(s.opts.InvitationTTL),
		CreatedAt: now,
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return fmt.Errorf("store invitation: %w", err)
	}

	data := invitationMail{
		FirstName: a.FirstName,
		Link:      s.activationLink(raw),
		ExpiresAt: inv.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"),
	}
	if inviter != "" {
		if by, err := s.repo.GetByID(ctx, inviter); err == nil {
			data.InviterName = by.FirstName + " " + by.LastName
		}
	}
	var body strings.Builder
	if err := invitationBody.Execute(&body, data); err != nil {
		return fmt.Errorf("render invitation: %w", err)
	}
	if err := s.mail.Send(ctx, mailer.Message{To: a.Email, Subject: invitationSubject, Text: body.String()}); err != nil {
		s.logger.Error("invitation email failed", zap.String("adminId", string(a.ID)), zap.Error(err))
		return &Error{
			Status:  http.StatusBadGateway,
			Code:    CodeMailDelivery,
			Message: "the invitation email could not be sent; resend the invitation later",
			Details: map[string]any{"adminId": string(a.ID)},
		}
	}
	s.logger.Info("invitation sent", zap.String("adminId", string(a.ID)), zap.Time("expiresAt", inv.ExpiresAt))
	return nil
}

func (s *Service) activationLink(raw string) string {
	return strings.TrimRight(s.opts.PublicBaseURL, "/") + "/activate?token=" + url.QueryEscape(raw)
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func adminExists() *Error {
	return &Error{
		Status:  http.StatusConflict,
		Code:    CodeAdminExists,
		Message: "an admin with this email already exists",
	}
}

func invitationNotFound() *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    CodeInvitationNotFound,
		Message: "invitation not found",
	}
}
