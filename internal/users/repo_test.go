package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/pkg/db"
	"github.com/angelmondragon/campground-backend/pkg/db/dbtest"
	"github.com/angelmondragon/campground-backend/pkg/enums"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Name:         "Camper",
		Email:        "camper@example.com",
		Tel:          "0812345678",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, enums.UserRoleUser, created.Role)

	byEmail, err := repo.FindByEmail(ctx, "camper@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byTel, err := repo.FindByTel(ctx, "0812345678")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byTel.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, db.IsNotFound(err))
}

func TestRepositoryRejectsDuplicateEmail(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{Name: "A", Email: "dup@example.com", Tel: "0811111111", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateUserDTO{Name: "B", Email: "dup@example.com", Tel: "0822222222", PasswordHash: "h"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryUpdatesLoginAndHash(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Name: "A", Email: "a@example.com", Tel: "0811111111", PasswordHash: "old"})
	require.NoError(t, err)

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, at))
	require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, "new"))

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, reloaded.LastLoginAt.Equal(at))
	assert.Equal(t, "new", reloaded.PasswordHash)
}

func TestRepositoryLockByIDInsideTx(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Name: "A", Email: "a@example.com", Tel: "0811111111", PasswordHash: "h"})
	require.NoError(t, err)

	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := repo.LockByID(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, user.ID, locked.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestFromModelOmitsPassword(t *testing.T) {
	assert.Nil(t, FromModel(nil))
	dto := FromModel(CreateUserDTO{Name: "A", Email: "a@example.com", PasswordHash: "secret"}.ToModel())
	assert.Equal(t, "a@example.com", dto.Email)
	assert.Equal(t, enums.UserRoleUser, dto.Role)
}
