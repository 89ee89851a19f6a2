package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"campusmart/internal/domain"
	"campusmart/internal/repos"
)

type AuthService struct {
	Admins *repos.AdminRepo
}

func NewAuthService(admins *repos.AdminRepo) *AuthService {
	return &AuthService{Admins: admins}
}

// Login binds the session id to the admin on a successful bcrypt match.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, sid, username, password string) (*domain.Admin, error) {
	if sid == "" {
		return nil, ErrAuthRequired
	}
	a, err := s.Admins.ByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repos.ErrNotFound) {
		return nil, ErrBadCreds
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Admins.BindSession(ctx, sid, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Admins.UnbindSession(ctx, sid)
}

// CurrentAdmin resolves the admin bound to sid, or ErrAuthRequired.
func (s *AuthService) CurrentAdmin(ctx context.Context, sid string) (*domain.Admin, error) {
	if sid == "" {
		return nil, ErrAuthRequired
	}
	a, err := s.Admins.SessionAdmin(ctx, sid)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, ErrAuthRequired
	}
	return a, err
}
