package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamzab/drivebox-backend/apperrors"
	"github.com/hamzab/drivebox-backend/storage"
)

// transferParts plays the client role: push each part's bytes through the
// local store's part receiver and collect the tags.
func transferParts(t *testing.T, env *testEnv, uploadID string, chunks ...string) []storage.CompletedPart {
	t.Helper()
	var parts []storage.CompletedPart
	for i, chunk := range chunks {
		tag, err := env.store.PutPart(context.Background(), uploadID, i+1, strings.NewReader(chunk))
		require.NoError(t, err)
		parts = append(parts, storage.CompletedPart{PartNumber: i + 1, Tag: tag})
	}
	return parts
}

func TestInitializeUpload_CreatesProvisionalRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.uploads.InitializeUpload(ctx, env.alice.ID, "report.pdf", 1000, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.UploadID)
	require.NotEmpty(t, result.Plan.Parts)

	file, err := env.files.GetByID(ctx, result.FileID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", file.OriginalName)
	assert.Equal(t, "pdf", file.Extension)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, int64(1000), file.FileSize)
	assert.Nil(t, file.Checksum, "provisional record has no checksum yet")
	assert.Contains(t, file.StorageKey, env.alice.ID.String())
}

func TestInitializeUpload_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.uploads.InitializeUpload(ctx, env.alice.ID, "", 100, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = env.uploads.InitializeUpload(ctx, env.alice.ID, "x.txt", 0, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = env.uploads.InitializeUpload(ctx, env.alice.ID, "x.txt", -5, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestInitializeUpload_SameFilenameGetsDistinctKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.uploads.InitializeUpload(ctx, env.alice.ID, "report.pdf", 100, nil)
	require.NoError(t, err)
	second, err := env.uploads.InitializeUpload(ctx, env.alice.ID, "report.pdf", 100, nil)
	require.NoError(t, err)

	require.NotEqual(t, first.FileID, second.FileID)

	f1, err := env.files.GetByID(ctx, first.FileID)
	require.NoError(t, err)
	f2, err := env.files.GetByID(ctx, second.FileID)
	require.NoError(t, err)
	assert.NotEqual(t, f1.StorageKey, f2.StorageKey)
}

func TestCompleteUpload_FinalizesWithStoredSizeAndChecksum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.uploads.InitializeUpload(ctx, env.alice.ID, "report.pdf", 1000, nil)
	require.NoError(t, err)

	content := strings.Repeat("x", 1000)
	parts := transferParts(t, env, result.UploadID, content)

	file, err := env.uploads.CompleteUpload(ctx, env.alice.ID, result.FileID, result.UploadID, parts)
	require.NoError(t, err)
	require.NotNil(t, file.Checksum)
	assert.Equal(t, int64(1000), file.FileSize)

	// The object really is in the store under the recorded key.
	body, size, err := env.store.Get(ctx, file.StorageKey)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
	assert.Equal(t, int64(1000), size)
}

func TestCompleteUpload_SizeReflectsStoredBytesNotDeclared(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Client declared 5000 bytes but only sends 10.
	result, err := env.uploads.InitializeUpload(ctx, env.alice.ID, "short.bin", 5000, nil)
	require.NoError(t, err)

	parts := transferParts(t, env, result.UploadID, "0123456789")
	file, err := env.uploads.CompleteUpload(ctx, env.alice.ID, result.FileID, result.UploadID, parts)
	require.NoError(t, err)
	assert.Equal(t, int64(10), file.FileSize)
}

func TestCompleteUpload_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.uploads.InitializeUpload(ctx, env.alice.ID, "doc.txt", 10, nil)
	require.NoError(t, err)
	parts := transferParts(t, env, result.UploadID, "0123456789")

	t.Run("unknown file id", func(t *testing.T) {
		_, err := env.uploads.CompleteUpload(ctx, env.alice.ID, env.bob.ID, result.UploadID, parts)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("wrong owner", func(t *testing.T) {
		_, err := env.uploads.CompleteUpload(ctx, env.bob.ID, result.FileID, result.UploadID, parts)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("no parts", func(t *testing.T) {
		_, err := env.uploads.CompleteUpload(ctx, env.alice.ID, result.FileID, result.UploadID, nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("out of order parts", func(t *testing.T) {
		_, err := env.uploads.CompleteUpload(ctx, env.alice.ID, result.FileID, result.UploadID,
			[]storage.CompletedPart{{PartNumber: 2, Tag: "b"}, {PartNumber: 1, Tag: "a"}})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("duplicate part numbers", func(t *testing.T) {
		_, err := env.uploads.CompleteUpload(ctx, env.alice.ID, result.FileID, result.UploadID,
			[]storage.CompletedPart{{PartNumber: 1, Tag: "a"}, {PartNumber: 1, Tag: "a"}})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("double finalization is a conflict", func(t *testing.T) {
		_, err := env.uploads.CompleteUpload(ctx, env.alice.ID, result.FileID, result.UploadID, parts)
		require.NoError(t, err)
		_, err = env.uploads.CompleteUpload(ctx, env.alice.ID, result.FileID, result.UploadID, parts)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestAbortUpload_RemovesProvisionalRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.uploads.InitializeUpload(ctx, env.alice.ID, "doc.txt", 10, nil)
	require.NoError(t, err)
	transferParts(t, env, result.UploadID, "01234")

	require.NoError(t, env.uploads.AbortUpload(ctx, env.alice.ID, result.FileID, result.UploadID))

	_, err = env.files.GetByID(ctx, result.FileID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUploadDirect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	file, err := env.uploads.UploadDirect(ctx, env.alice.ID, "notes.txt", strings.NewReader("hello world"), 11, nil)
	require.NoError(t, err)
	require.NotNil(t, file.Checksum, "direct upload is finalized in one step")
	assert.Equal(t, int64(11), file.FileSize)
	assert.Equal(t, "txt", file.Extension)

	body, _, err := env.store.Get(ctx, file.StorageKey)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestUploadDirect_IntoFolder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	folder := env.createFolder(t, env.alice.ID, "docs")
	file, err := env.uploads.UploadDirect(ctx, env.alice.ID, "a.txt", strings.NewReader("a"), 1, &folder.ID)
	require.NoError(t, err)
	require.NotNil(t, file.FolderID)
	assert.Equal(t, folder.ID, *file.FolderID)

	// A folder owned by someone else is rejected before any side effect.
	bobsFolder := env.createFolder(t, env.bob.ID, "private")
	_, err = env.uploads.UploadDirect(ctx, env.alice.ID, "b.txt", strings.NewReader("b"), 1, &bobsFolder.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
