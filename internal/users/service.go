package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/socialhub/socialhub/backend/go-services/internal/credentials"
	"github.com/socialhub/socialhub/backend/go-services/internal/models"
	"github.com/socialhub/socialhub/backend/go-services/pkg/logger"
)

var (
	ErrInvalidInput       = errors.New("username, email and password are required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("unknown role")
)

// PasswordHasher derives and checks identity-bound password hashes.
type PasswordHasher interface {
	Hash(identityID, password string) (string, error)
	Verify(identityID, hash, password string) credentials.Result
}

// dummyIdentity owns the hash checked when no usable identity matches an
// email, so unknown and known emails cost the same derivation.
const dummyIdentity = "00000000-0000-0000-0000-000000000000"

// Service encapsulates identity business logic
type Service struct {
	repo      UserRepository
	hasher    PasswordHasher
	dummyHash string
	now       func() time.Time
}

func NewService(r UserRepository, h PasswordHasher) *Service {
	dummy, err := h.Hash(dummyIdentity, uuid.NewString())
	if err != nil {
		logger.Warnf("derive dummy password hash: %v", err)
	}
	return &Service{repo: r, hasher: h, dummyHash: dummy, now: func() time.Time { return time.Now().UTC() }}
}

// Register creates a self-registered identity with role User.
// The email check is a plain lookup; two concurrent registrations can both pass it.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}
	return s.create(ctx, username, email, password, models.RoleUser, false)
}

// CreateByAdmin creates an identity with a generated temporary password and
// returns that password once.
func (s *Service) CreateByAdmin(ctx context.Context, username, email, role string) (*models.User, string, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, "", ErrInvalidInput
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, "", ErrInvalidRole
	}
	temp, err := credentials.GenerateTemporaryPassword()
	if err != nil {
		return nil, "", err
	}
	u, err := s.create(ctx, username, email, temp, role, true)
	if err != nil {
		return nil, "", err
	}
	return u, temp, nil
}

func (s *Service) create(ctx context.Context, username, email, password, role string, temporary bool) (*models.User, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	id := uuid.NewString()
	hash, err := s.hasher.Hash(id, password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	u := &models.User{
		ID:                  id,
		Username:            username,
		Email:               email,
		PasswordHash:        hash,
		Role:                role,
		IsTemporaryPassword: temporary,
		RegisteredAt:        now,
		LastUpdatedAt:       now,
		IsActive:            true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate checks an email/password pair. Unknown email and wrong password
// both yield ErrInvalidCredentials, as does a deactivated identity. Legacy
// hashes are upgraded in place.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if u == nil || !u.IsActive {
		s.hasher.Verify(dummyIdentity, s.dummyHash, password)
		return nil, ErrInvalidCredentials
	}
	switch s.hasher.Verify(u.ID, u.PasswordHash, password) {
	case credentials.Match:
		return u, nil
	case credentials.MatchRehashNeeded:
		if hash, herr := s.hasher.Hash(u.ID, password); herr == nil {
			if uerr := s.repo.UpdatePasswordHash(ctx, u.ID, hash, u.IsTemporaryPassword, s.now()); uerr != nil {
				logger.Warnf("rehash password for user %s: %v", u.ID, uerr)
			} else {
				u.PasswordHash = hash
			}
		}
		return u, nil
	default:
		return nil, ErrInvalidCredentials
	}
}

// RecordLogin stores the last-login time. Concurrent logins are last-writer-wins.
func (s *Service) RecordLogin(ctx context.Context, id string) error {
	return s.repo.UpdateLastLogin(ctx, id, s.now())
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// IsActive reports whether the identity exists and is not deactivated.
func (s *Service) IsActive(ctx context.Context, id string) (bool, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u != nil && u.IsActive, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.UpdateProfile(ctx, id, username, s.now())
}

// Deactivate soft-deletes the identity. Tokens already issued stay valid
// unless the active-recheck policy is enabled.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id, s.now())
}
