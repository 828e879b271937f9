package member

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"triplea/internal/auth"
	"triplea/internal/logger"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrEmptyUpdate        = errors.New("no fields to update")
	ErrNotAdmin           = errors.New("member is not an admin")
	ErrRevokeSelf         = errors.New("admins cannot revoke their own role")
)

// AdminGranter mirrors a role change into the identity provider.
type AdminGranter interface {
	GrantAdmin(ctx context.Context, uid string) error
	RevokeAdmin(ctx context.Context, uid string) error
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Member, auth.Tokens, error)
	Login(ctx context.Context, req LoginRequest) (*Member, auth.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (string, *Member, error)
	GetByID(ctx context.Context, id string) (*Member, error)
	List(ctx context.Context) ([]Member, error)
	CreateMember(ctx context.Context, isAdmin bool, req CreateMemberRequest) (*Member, error)
	UpdatePersonalInfo(ctx context.Context, isAdmin bool, id string, upd PersonalInfoUpdate) (*Member, error)
	ListAdmins(ctx context.Context, isAdmin bool) ([]Member, error)
	GrantAdmin(ctx context.Context, isAdmin bool, email string) (*Member, error)
	RevokeAdmin(ctx context.Context, actorID string, isAdmin bool, memberID string) (*Member, error)
	BootstrapAdmins(ctx context.Context) error
	EnsureProfile(ctx context.Context, id, email, name string) error
}

type Option func(*service)

// WithAdminEmails marks addresses that are admins from the moment they
// register, and that BootstrapAdmins promotes if they already exist.
func WithAdminEmails(emails ...string) Option {
	return func(s *service) {
		for _, e := range emails {
			if e = normalizeEmail(e); e != "" {
				s.adminEmails[e] = struct{}{}
			}
		}
	}
}

type service struct {
	repo        Repository
	signer      *auth.Signer
	granter     AdminGranter
	adminEmails map[string]struct{}
}

func NewService(repo Repository, jwtSecret string, granter AdminGranter, opts ...Option) Service {
	s := &service{
		repo:        repo,
		signer:      auth.NewSigner(jwtSecret),
		granter:     granter,
		adminEmails: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) bootstrapAdmin(email string) bool {
	_, ok := s.adminEmails[email]
	return ok
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Member, auth.Tokens, error) {
	email := normalizeEmail(req.Email)
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, auth.Tokens{}, err
	}
	if exists {
		return nil, auth.Tokens{}, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, auth.Tokens{}, err
	}

	role := auth.RoleMember
	if s.bootstrapAdmin(email) {
		role = auth.RoleAdmin
	}

	m, err := s.repo.Create(ctx, &Member{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         role,
	})
	if err != nil {
		return nil, auth.Tokens{}, err
	}

	tokens, err := s.signer.Issue(m.ID, m.Email, m.Role)
	if err != nil {
		return nil, auth.Tokens{}, err
	}

	logger.Info("Member registered", "member_id", m.ID, "role", m.Role)
	return m, tokens, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Member, auth.Tokens, error) {
	m, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, auth.Tokens{}, ErrInvalidCredentials
	}

	if !auth.CheckPassword(m.PasswordHash, req.Password) {
		return nil, auth.Tokens{}, ErrInvalidCredentials
	}

	tokens, err := s.signer.Issue(m.ID, m.Email, m.Role)
	if err != nil {
		return nil, auth.Tokens{}, err
	}
	return m, tokens, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, *Member, error) {
	claims, err := s.signer.Parse(refreshToken, auth.KindRefresh)
	if err != nil {
		return "", nil, err
	}

	// Re-read the member so a role change takes effect on refresh.
	m, err := s.repo.FindByID(ctx, claims.MemberID)
	if err != nil {
		return "", nil, ErrMemberNotFound
	}

	access, err := s.signer.Sign(auth.KindAccess, m.ID, m.Email, m.Role)
	if err != nil {
		return "", nil, err
	}
	return access, m, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Member, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]Member, error) {
	return s.repo.List(ctx)
}

func (s *service) CreateMember(ctx context.Context, isAdmin bool, req CreateMemberRequest) (*Member, error) {
	if !isAdmin {
		return nil, ErrPermissionDenied
	}
	email := normalizeEmail(req.Email)
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	m, err := s.repo.Create(ctx, &Member{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(req.Name),
		Email:            email,
		Phone:            req.Phone,
		Role:             auth.RoleMember,
		DateOfBirth:      req.DateOfBirth,
		Gender:           req.Gender,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Member created by admin", "member_id", m.ID)
	return m, nil
}

func (s *service) UpdatePersonalInfo(ctx context.Context, isAdmin bool, id string, upd PersonalInfoUpdate) (*Member, error) {
	if !isAdmin {
		return nil, ErrPermissionDenied
	}
	if upd.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	return s.repo.UpdatePersonalInfo(ctx, id, upd)
}

func (s *service) ListAdmins(ctx context.Context, isAdmin bool) ([]Member, error) {
	if !isAdmin {
		return nil, ErrPermissionDenied
	}
	return s.repo.ListByRole(ctx, auth.RoleAdmin)
}

func (s *service) GrantAdmin(ctx context.Context, isAdmin bool, email string) (*Member, error) {
	if !isAdmin {
		return nil, ErrPermissionDenied
	}
	m, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if err := s.promote(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) promote(ctx context.Context, m *Member) error {
	if s.granter != nil {
		if err := s.granter.GrantAdmin(ctx, m.ID); err != nil {
			return err
		}
	}
	if err := s.repo.SetRole(ctx, m.ID, auth.RoleAdmin); err != nil {
		return err
	}
	m.Role = auth.RoleAdmin

	logger.Info("Admin role granted", "member_id", m.ID)
	return nil
}

func (s *service) RevokeAdmin(ctx context.Context, actorID string, isAdmin bool, memberID string) (*Member, error) {
	if !isAdmin {
		return nil, ErrPermissionDenied
	}
	if actorID == memberID {
		return nil, ErrRevokeSelf
	}
	m, err := s.repo.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m.Role != auth.RoleAdmin {
		return nil, ErrNotAdmin
	}
	if s.granter != nil {
		if err := s.granter.RevokeAdmin(ctx, m.ID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.SetRole(ctx, m.ID, auth.RoleMember); err != nil {
		return nil, err
	}
	m.Role = auth.RoleMember

	logger.Info("Admin role revoked", "member_id", m.ID, "by", actorID)
	return m, nil
}

// BootstrapAdmins promotes configured admin emails that already have a
// profile. Unknown emails are skipped; Register handles them later.
func (s *service) BootstrapAdmins(ctx context.Context) error {
	var errs []error
	for email := range s.adminEmails {
		m, err := s.repo.FindByEmail(ctx, email)
		if errors.Is(err, ErrMemberNotFound) {
			logger.Info("Bootstrap admin has no profile yet", "email", email)
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if m.Role == auth.RoleAdmin {
			continue
		}
		if err := s.promote(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *service) EnsureProfile(ctx context.Context, id, email, name string) error {
	email = normalizeEmail(email)
	if name == "" {
		name = email
	}
	return s.repo.EnsureExists(ctx, &Member{
		ID:    id,
		Name:  name,
		Email: email,
		Role:  auth.RoleMember,
	})
}
