package service

import (
	"testing"

	"go-inventory-odoo/internal/model"
	"go-inventory-odoo/internal/repository"
	"go-inventory-odoo/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockUserRepo struct {
	Users map[string]*model.User
}

func (m *MockUserRepo) FindByEmail(email string) (*model.User, error) {
	u, ok := m.Users[repository.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *MockUserRepo) FindByID(id uuid.UUID) (*model.User, error) {
	for _, u := range m.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepo) Create(user *model.User) error {
	m.Users[user.Email] = user
	return nil
}

func (m *MockUserRepo) UpdateCredentials(userID uuid.UUID, passwordHash, tokenVersion string) error {
	u, err := m.FindByID(userID)
	if err != nil {
		return err
	}
	u.Password = passwordHash
	u.TokenVersion = tokenVersion
	return nil
}

func (m *MockUserRepo) UpdateTokenVersion(userID uuid.UUID, tokenVersion string) error {
	u, err := m.FindByID(userID)
	if err != nil {
		return err
	}
	u.TokenVersion = tokenVersion
	return nil
}

func newAuthFixture(t *testing.T) (AuthService, *model.User) {
	t.Helper()
	jwt.SetSecretKey("auth-test-secret")
	user := &model.User{
		Email:    "admin@example.com",
		FullName: "Master Administrator",
		IsActive: true,
		Role: &model.Role{Code: model.RoleAdmin, Privileges: []model.Privilege{
			{Code: model.PrivProductView}, {Code: model.PrivProductSync},
		}},
		Privileges: []model.Privilege{{Code: model.PrivProductSync}, {Code: model.PrivImageMaintenance}},
	}
	user.ID = uuid.New()
	require.NoError(t, user.SetPassword("admin123"))
	return NewAuthService(&MockUserRepo{Users: map[string]*model.User{user.Email: user}}), user
}

func TestLoginAndValidate(t *testing.T) {
	svc, user := newAuthFixture(t)

	login, err := svc.Login(" Admin@Example.com", "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, []string{model.PrivImageMaintenance, model.PrivProductSync, model.PrivProductView}, login.Privileges,
		"role and direct privileges are merged without duplicates")
	assert.Equal(t, model.RoleAdmin, login.User.Role)

	session, err := svc.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)

	// A second login replaces the first session.
	_, err = svc.Login("admin@example.com", "admin123")
	require.NoError(t, err)
	_, err = svc.ValidateToken(login.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
}

func TestLogin_Rejections(t *testing.T) {
	svc, user := newAuthFixture(t)

	_, err := svc.Login("admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody@example.com", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user.IsActive = false
	_, err = svc.Login("admin@example.com", "admin123")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestValidateToken_DeactivatedUser(t *testing.T) {
	svc, user := newAuthFixture(t)
	login, err := svc.Login("admin@example.com", "admin123")
	require.NoError(t, err)

	user.IsActive = false
	_, err = svc.ValidateToken(login.Token)
	assert.ErrorIs(t, err, ErrUserInactive)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestResetPassword(t *testing.T) {
	svc, user := newAuthFixture(t)
	login, err := svc.Login(user.Email, "admin123")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(user.Email, "wrong", "new-pass"), ErrWrongPassword)
	assert.ErrorIs(t, svc.ResetPassword("nobody@example.com", "admin123", "new-pass"), ErrUserNotFound)
	require.NoError(t, svc.ResetPassword(user.Email, "admin123", "new-pass"))

	_, err = svc.ValidateToken(login.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced, "a reset revokes issued tokens")

	_, err = svc.Login(user.Email, "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(user.Email, "new-pass")
	assert.NoError(t, err)
}
