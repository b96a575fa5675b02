package service

import (
	"errors"
	"fmt"

	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"
	"go-inventory-odoo/pkg/jwt"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	// ResetPassword changes the password and revokes every issued token.
	ResetPassword(email, oldPassword, newPassword string) error
	// ValidateToken checks signature and expiry, then that the token still
	// belongs to the user's current session.
	ValidateToken(tokenString string) (*Session, error)
}

// Session is an authenticated user with the privileges held right now.
type Session struct {
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Session
}

type authService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, Session: sessionOf(user)}, nil
}

// issueSession rotates the token version, ending any other session, and
// signs a token bound to the new version.
func (s *authService) issueSession(user *model.User) (string, error) {
	version := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(user.ID, version); err != nil {
		return "", fmt.Errorf("failed to update session: %w", err)
	}
	user.TokenVersion = version

	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), user.EffectivePrivileges(), version)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

func (s *authService) ResetPassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	return s.userRepo.UpdateCredentials(user.ID, user.Password, uuid.New().String())
}

func (s *authService) ValidateToken(tokenString string) (*Session, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	switch {
	case !user.IsActive:
		return nil, ErrUserInactive
	case user.TokenVersion != claims.TokenVersion:
		return nil, ErrSessionReplaced
	}

	session := sessionOf(user)
	return &session, nil
}

func sessionOf(user *model.User) Session {
	return Session{User: user.ToResponse(), Privileges: user.EffectivePrivileges()}
}
