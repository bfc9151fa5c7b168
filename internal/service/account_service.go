package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "shineal/internal/errors"
	"shineal/internal/ids"
	"shineal/internal/model"
)

// Transactor runs coordinated reads and read-modify-write cycles on the
// users collection.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(*model.Collection) error) error
	View(ctx context.Context, fn func(model.Collection) error) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer signs bearer tokens for a user.
type TokenIssuer interface {
	Issue(userID, email string, remember bool) (string, time.Time, error)
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	User      model.PublicUser
	Token     string
	ExpiresAt time.Time
}

// AccountService handles account lifecycle and authentication.
type AccountService interface {
	Signup(ctx context.Context, fullName, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string, remember bool) (*AuthResult, error)
	GetProfile(ctx context.Context, id string) (model.PublicUser, error)
	UpdateProfile(ctx context.Context, id, fullName string) (model.PublicUser, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	Deactivate(ctx context.Context, id string) error
}

type accountService struct {
	tx     Transactor
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
	now    func() time.Time

	// dummyHash is compared against when the email is unknown so that
	// unknown and known accounts take the same time to reject.
	dummyHash func() string
}

// Option configures the account service.
type Option func(*accountService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *accountService) {
		s.now = now
	}
}

// NewAccountService creates a new account service.
func NewAccountService(tx Transactor, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger, opts ...Option) AccountService {
	s := &accountService{
		tx:     tx,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("component", "account_service"),
		now:    time.Now,
	}
	s.dummyHash = sync.OnceValue(func() string {
		digest, err := hasher.Hash("timing-equalizer-password")
		if err != nil {
			return ""
		}
		return digest
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers a new account and returns a 7-day token for it.
func (s *accountService) Signup(ctx context.Context, fullName, email, password string) (*AuthResult, error) {
	if err := validateSignup(fullName, email, password); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	id, err := ids.NewULID(now)
	if err != nil {
		return nil, err
	}

	user := model.User{
		ID:           id,
		FullName:     strings.TrimSpace(fullName),
		Email:        model.NormalizeEmail(email),
		PasswordHash: digest,
		CreatedAt:    now,
		IsActive:     true,
	}

	err = s.tx.WithTransaction(ctx, func(coll *model.Collection) error {
		if coll.FindByEmail(user.Email) != nil {
			return apperrors.ErrEmailTaken
		}
		if coll.FindByID(user.ID) != nil {
			return fmt.Errorf("duplicate user id %s", user.ID)
		}
		coll.Append(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, false)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user.Public(), Token: token, ExpiresAt: expiresAt}, nil
}

// Login verifies credentials, records the login time and returns a token.
func (s *accountService) Login(ctx context.Context, email, password string, remember bool) (*AuthResult, error) {
	if err := validateLogin(email, password); err != nil {
		return nil, err
	}

	var found *model.User
	err := s.tx.View(ctx, func(coll model.Collection) error {
		if u := coll.FindByEmail(email); u != nil {
			copied := *u
			found = &copied
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if found == nil {
		s.hasher.Verify(password, s.dummyHash())
		return nil, apperrors.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, found.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !found.IsActive {
		return nil, apperrors.ErrAccountDeactivated
	}

	now := s.now().UTC()
	var user model.User
	err = s.tx.WithTransaction(ctx, func(coll *model.Collection) error {
		u := coll.FindByID(found.ID)
		// The record may have changed between verification and this write.
		if u == nil || u.PasswordHash != found.PasswordHash {
			return apperrors.ErrInvalidCredentials
		}
		if !u.IsActive {
			return apperrors.ErrAccountDeactivated
		}
		u.LastLogin = &now
		coll.MarkDirty()
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "remember", remember)

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, remember)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user.Public(), Token: token, ExpiresAt: expiresAt}, nil
}

// GetProfile returns the public profile of a user.
func (s *accountService) GetProfile(ctx context.Context, id string) (model.PublicUser, error) {
	var profile model.PublicUser
	err := s.tx.View(ctx, func(coll model.Collection) error {
		u := coll.FindByID(id)
		if u == nil {
			return apperrors.ErrUserNotFound
		}
		profile = u.Profile()
		return nil
	})
	return profile, err
}

// UpdateProfile changes the full name of a user.
func (s *accountService) UpdateProfile(ctx context.Context, id, fullName string) (model.PublicUser, error) {
	if err := validateFullName(fullName); err != nil {
		return model.PublicUser{}, err
	}

	var updated model.PublicUser
	err := s.tx.WithTransaction(ctx, func(coll *model.Collection) error {
		u := coll.FindByID(id)
		if u == nil {
			return apperrors.ErrUserNotFound
		}
		u.FullName = strings.TrimSpace(fullName)
		coll.MarkDirty()
		updated = u.Public()
		return nil
	})
	if err != nil {
		return model.PublicUser{}, err
	}

	s.logger.Info("user profile updated", "user_id", id)
	return updated, nil
}

// ChangePassword replaces the password of a user after verifying the
// current one.
func (s *accountService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if err := validatePasswordChange(currentPassword, newPassword); err != nil {
		return err
	}

	var verified string
	err := s.tx.View(ctx, func(coll model.Collection) error {
		u := coll.FindByID(id)
		if u == nil {
			return apperrors.ErrUserNotFound
		}
		verified = u.PasswordHash
		return nil
	})
	if err != nil {
		return err
	}
	if !s.hasher.Verify(currentPassword, verified) {
		return apperrors.ErrWrongPassword
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	err = s.tx.WithTransaction(ctx, func(coll *model.Collection) error {
		u := coll.FindByID(id)
		if u == nil {
			return apperrors.ErrUserNotFound
		}
		// A concurrent change already replaced the password we verified.
		if u.PasswordHash != verified {
			return apperrors.ErrWrongPassword
		}
		u.PasswordHash = digest
		coll.MarkDirty()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", id)
	return nil
}

// Deactivate disables an account. Deactivating an inactive account is a no-op.
func (s *accountService) Deactivate(ctx context.Context, id string) error {
	err := s.tx.WithTransaction(ctx, func(coll *model.Collection) error {
		u := coll.FindByID(id)
		if u == nil {
			return apperrors.ErrUserNotFound
		}
		if !u.IsActive {
			return nil
		}
		u.IsActive = false
		coll.MarkDirty()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("user deactivated", "user_id", id)
	return nil
}
