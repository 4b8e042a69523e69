package identity

import (
	"testing"

	"github.com/miv/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	bcryptCost = 4
}

func TestNewUser(t *testing.T) {
	t.Run("creates active user", func(t *testing.T) {
		user, err := NewUser("Jane Doe", "  Jane@Example.org ", "password123", RoleManager)

		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", user.Name)
		assert.Equal(t, "jane@example.org", user.Email)
		assert.Equal(t, RoleManager, user.Role)
		assert.Equal(t, UserStatusActive, user.Status)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "password123", user.PasswordHash)
		assert.Equal(t, 1, user.Version)

		events := user.GetDomainEvents()
		require.Len(t, events, 1)
		_, ok := events[0].(*UserCreatedEvent)
		assert.True(t, ok)
	})

	t.Run("defaults role to analyst", func(t *testing.T) {
		user, err := NewUser("Jane", "jane@example.org", "password123", "")
		require.NoError(t, err)
		assert.Equal(t, RoleAnalyst, user.Role)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := NewUser("Jane", "jane@example.org", "short", RoleAnalyst)
		require.Error(t, err)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_PASSWORD", de.Code)
	})

	t.Run("rejects bad email", func(t *testing.T) {
		_, err := NewUser("Jane", "not-an-email", "password123", RoleAnalyst)
		require.Error(t, err)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := NewUser("Jane", "jane@example.org", "password123", Role("ROOT"))
		require.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewUser("  ", "jane@example.org", "password123", RoleAnalyst)
		require.Error(t, err)
	})
}

func TestUser_Password(t *testing.T) {
	user, err := NewUser("Jane", "jane@example.org", "password123", RoleAnalyst)
	require.NoError(t, err)

	assert.True(t, user.VerifyPassword("password123"))
	assert.False(t, user.VerifyPassword("wrong-password"))

	err = user.ChangePassword("wrong-password", "newpassword1")
	assert.Error(t, err)

	require.NoError(t, user.ChangePassword("password123", "newpassword1"))
	assert.True(t, user.VerifyPassword("newpassword1"))
	assert.Equal(t, 2, user.Version)
}

func TestUser_StatusTransitions(t *testing.T) {
	user, err := NewUser("Jane", "jane@example.org", "password123", RoleAnalyst)
	require.NoError(t, err)
	user.ClearDomainEvents()

	assert.Error(t, user.Activate())

	require.NoError(t, user.Deactivate())
	assert.False(t, user.IsActive())
	events := user.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeUserDeactivated, events[0].EventType())

	assert.Error(t, user.Deactivate())
	require.NoError(t, user.Activate())
	assert.True(t, user.IsActive())
}

func TestUser_UpdateProfileAndRole(t *testing.T) {
	user, err := NewUser("Jane", "jane@example.org", "password123", RoleAnalyst)
	require.NoError(t, err)

	require.NoError(t, user.UpdateProfile(" Jane Smith ", "MIV", "+61 400 000 000"))
	assert.Equal(t, "Jane Smith", user.Name)
	assert.Equal(t, "MIV", user.Organization)

	require.NoError(t, user.ChangeRole(RoleAdmin))
	assert.True(t, user.IsAdmin())

	assert.Error(t, user.ChangeRole(Role("OWNER")))
}

func TestUser_RecordLogin(t *testing.T) {
	user, err := NewUser("Jane", "jane@example.org", "password123", RoleAnalyst)
	require.NoError(t, err)
	assert.Nil(t, user.LastLoginAt)
	user.RecordLogin()
	assert.NotNil(t, user.LastLoginAt)
}
