package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fictusai/fictus_go_server/internal/model/dto"
	"github.com/fictusai/fictus_go_server/internal/repository"
	"github.com/fictusai/fictus_go_server/internal/testutil"
)

func TestUserService_GetProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := NewUserService(repository.NewUserRepository(db), newFakeStorage())
	user := testutil.TestUser(t, db, testutil.WithUsername("dave"))

	info, err := svc.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave", info.Username)

	_, err = svc.GetProfile(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := NewUserService(repository.NewUserRepository(db), newFakeStorage())
	user := testutil.TestUser(t, db, testutil.WithUsername("eve"))
	testutil.TestUser(t, db, testutil.WithUsername("taken"))

	newName := "eve_renamed"
	info, err := svc.UpdateProfile(user.ID, &dto.UpdateProfileRequest{Username: &newName})
	require.NoError(t, err)
	assert.Equal(t, "eve_renamed", info.Username)

	conflict := "taken"
	_, err = svc.UpdateProfile(user.ID, &dto.UpdateProfileRequest{Username: &conflict})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserService_UploadAvatar(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	storage := newFakeStorage()
	svc := NewUserService(repository.NewUserRepository(db), storage)
	user := testutil.TestUser(t, db)

	url, err := svc.UploadAvatar(context.Background(), user.ID, "me.png", []byte("avatar bytes"))
	require.NoError(t, err)
	assert.Contains(t, url, "avatars/")

	info, err := svc.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, url, info.AvatarURL)

	_, err = svc.UploadAvatar(context.Background(), user.ID, "me.gif", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
