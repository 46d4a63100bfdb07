package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamzab/drivebox-backend/apperrors"
	"github.com/hamzab/drivebox-backend/models"
)

func TestCreateLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	file := uploadFixture(t, env, "doc.txt", "hello")

	link, err := env.shares.CreateLink(ctx, env.alice.ID, models.ResourceFile, file.ID, nil, "", true)
	require.NoError(t, err)
	assert.NotEmpty(t, link.ID)
	assert.Nil(t, link.PasswordHash)
	assert.True(t, link.AllowDownload)
}

func TestCreateLink_RequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	file := uploadFixture(t, env, "doc.txt", "hello")

	_, err := env.shares.CreateLink(ctx, env.bob.ID, models.ResourceFile, file.ID, nil, "", true)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestCreateLink_RejectsTrashedResource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	file := uploadFixture(t, env, "doc.txt", "hello")
	require.NoError(t, env.lifecycle.SoftDelete(ctx, env.alice.ID, file.ID, models.ResourceFile))

	_, err := env.shares.CreateLink(ctx, env.alice.ID, models.ResourceFile, file.ID, nil, "", true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateLink_StoresOnlyPasswordHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	file := uploadFixture(t, env, "doc.txt", "hello")

	link, err := env.shares.CreateLink(ctx, env.alice.ID, models.ResourceFile, file.ID, nil, "hunter22", true)
	require.NoError(t, err)
	require.NotNil(t, link.PasswordHash)
	assert.NotContains(t, *link.PasswordHash, "hunter22")
}

func TestResolveLink_PasswordGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	file := uploadFixture(t, env, "doc.txt", "hello")

	link, err := env.shares.CreateLink(ctx, env.alice.ID, models.ResourceFile, file.ID, nil, "hunter22", true)
	require.NoError(t, err)

	t.Run("empty password rejected", func(t *testing.T) {
		_, err := env.shares.ResolveLink(ctx, link.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrWrongPassword)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		_, err := env.shares.ResolveLink(ctx, link.ID, "hunter23")
		assert.ErrorIs(t, err, apperrors.ErrWrongPassword)
	})

	t.Run("correct password resolves", func(t *testing.T) {
		resolved, err := env.shares.ResolveLink(ctx, link.ID, "hunter22")
		require.NoError(t, err)
		require.NotNil(t, resolved.File)
		assert.Equal(t, file.ID, resolved.File.ID)
	})
}

func TestResolveLink_ExpiredBeatsCorrectPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	file := uploadFixture(t, env, "doc.txt", "hello")

	past := time.Now().Add(-time.Hour)
	link, err := env.shares.CreateLink(ctx, env.alice.ID, models.ResourceFile, file.ID, &past, "hunter22", true)
	require.NoError(t, err)

	_, err = env.shares.ResolveLink(ctx, link.ID, "hunter22")
	assert.ErrorIs(t, err, apperrors.ErrExpired)
}

func TestResolveLink_ExpiryEvaluatedAtResolveTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	file := uploadFixture(t, env, "doc.txt", "hello")

	future := time.Now().Add(time.Minute)
	link, err := env.shares.CreateLink(ctx, env.alice.ID, models.ResourceFile, file.ID, &future, "", true)
	require.NoError(t, err)

	_, err = env.shares.ResolveLink(ctx, link.ID, "")
	require.NoError(t, err)

	// Advance the service clock past the deadline; no sweep is involved.
	env.shares.now = func() time.Time { return future.Add(time.Second) }
	_, err = env.shares.ResolveLink(ctx, link.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrExpired)
}

func TestResolveLink_GoneTargetIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	file := uploadFixture(t, env, "doc.txt", "hello")

	link, err := env.shares.CreateLink(ctx, env.alice.ID, models.ResourceFile, file.ID, nil, "", true)
	require.NoError(t, err)

	t.Run("trashed target", func(t *testing.T) {
		require.NoError(t, env.lifecycle.SoftDelete(ctx, env.alice.ID, file.ID, models.ResourceFile))
		_, err := env.shares.ResolveLink(ctx, link.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("purged target", func(t *testing.T) {
		require.NoError(t, env.lifecycle.Purge(ctx, env.alice.ID, file.ID, models.ResourceFile))
		_, err := env.shares.ResolveLink(ctx, link.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestResolveLink_UnknownLink(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.shares.ResolveLink(context.Background(), "nope", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestResolveLink_FolderTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	folder := env.createFolder(t, env.alice.ID, "shared-stuff")

	link, err := env.shares.CreateLink(ctx, env.alice.ID, models.ResourceFolder, folder.ID, nil, "", false)
	require.NoError(t, err)

	resolved, err := env.shares.ResolveLink(ctx, link.ID, "")
	require.NoError(t, err)
	require.NotNil(t, resolved.Folder)
	assert.Equal(t, folder.ID, resolved.Folder.ID)
	assert.False(t, resolved.Link.AllowDownload)
}

func TestRevokeLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	file := uploadFixture(t, env, "doc.txt", "hello")

	link, err := env.shares.CreateLink(ctx, env.alice.ID, models.ResourceFile, file.ID, nil, "", true)
	require.NoError(t, err)

	err = env.shares.RevokeLink(ctx, env.bob.ID, link.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	require.NoError(t, env.shares.RevokeLink(ctx, env.alice.ID, link.ID))
	_, err = env.shares.ResolveLink(ctx, link.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
