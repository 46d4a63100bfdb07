package storage

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamzab/drivebox-backend/apperrors"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalStore_PutGetDelete(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	err := store.Put(ctx, "users/a/2026/01/01/x_doc.txt", strings.NewReader("content"), 7, "text/plain")
	require.NoError(t, err)

	body, size, err := store.Get(ctx, "users/a/2026/01/01/x_doc.txt")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
	assert.Equal(t, int64(7), size)

	require.NoError(t, store.Delete(ctx, "users/a/2026/01/01/x_doc.txt"))
	_, _, err = store.Get(ctx, "users/a/2026/01/01/x_doc.txt")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLocalStore_DeleteMissingKeyIsNotAnError(t *testing.T) {
	store := newLocal(t)
	assert.NoError(t, store.Delete(context.Background(), "users/nobody/never-stored"))
}

func TestLocalStore_GetMissing(t *testing.T) {
	store := newLocal(t)
	_, _, err := store.Get(context.Background(), "no/such/key")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLocalStore_MultipartRoundTrip(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	key := "users/a/2026/01/01/x_big.bin"

	plan, err := store.BeginMultipart(ctx, key, "application/octet-stream", 2)
	require.NoError(t, err)
	require.Len(t, plan.Parts, 2)
	assert.True(t, plan.Parts[0].Direct)
	assert.Equal(t, 1, plan.Parts[0].PartNumber)

	tag1, err := store.PutPart(ctx, plan.UploadID, 1, strings.NewReader("first-"))
	require.NoError(t, err)
	tag2, err := store.PutPart(ctx, plan.UploadID, 2, strings.NewReader("second"))
	require.NoError(t, err)

	wantTag := md5.Sum([]byte("first-"))
	assert.Equal(t, hex.EncodeToString(wantTag[:]), tag1)

	info, err := store.CompleteMultipart(ctx, key, plan.UploadID, []CompletedPart{
		{PartNumber: 1, Tag: tag1},
		{PartNumber: 2, Tag: tag2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len("first-second")), info.Size)

	wantSum := sha256.Sum256([]byte("first-second"))
	assert.Equal(t, hex.EncodeToString(wantSum[:]), info.Checksum)

	body, _, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "first-second", string(data))
}

func TestLocalStore_CompleteRejectsOutOfOrderParts(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	key := "users/a/2026/01/01/x_big.bin"

	plan, err := store.BeginMultipart(ctx, key, "application/octet-stream", 2)
	require.NoError(t, err)
	tag1, err := store.PutPart(ctx, plan.UploadID, 1, strings.NewReader("aa"))
	require.NoError(t, err)
	tag2, err := store.PutPart(ctx, plan.UploadID, 2, strings.NewReader("bb"))
	require.NoError(t, err)

	_, err = store.CompleteMultipart(ctx, key, plan.UploadID, []CompletedPart{
		{PartNumber: 2, Tag: tag2},
		{PartNumber: 1, Tag: tag1},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, _, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "failed completion must not write the object")
}

func TestLocalStore_CompleteRejectsTagMismatch(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	key := "users/a/2026/01/01/x_big.bin"

	plan, err := store.BeginMultipart(ctx, key, "application/octet-stream", 1)
	require.NoError(t, err)
	_, err = store.PutPart(ctx, plan.UploadID, 1, strings.NewReader("aa"))
	require.NoError(t, err)

	_, err = store.CompleteMultipart(ctx, key, plan.UploadID, []CompletedPart{
		{PartNumber: 1, Tag: "deadbeef"},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestLocalStore_CompleteRejectsMissingPart(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	plan, err := store.BeginMultipart(ctx, "k", "application/octet-stream", 2)
	require.NoError(t, err)
	tag1, err := store.PutPart(ctx, plan.UploadID, 1, strings.NewReader("aa"))
	require.NoError(t, err)

	_, err = store.CompleteMultipart(ctx, "k", plan.UploadID, []CompletedPart{
		{PartNumber: 1, Tag: tag1},
		{PartNumber: 2, Tag: "whatever"},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestLocalStore_CompleteUnknownUpload(t *testing.T) {
	store := newLocal(t)
	_, err := store.CompleteMultipart(context.Background(), "k", "no-such-upload", []CompletedPart{
		{PartNumber: 1, Tag: "x"},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLocalStore_AbortDiscardsStagedParts(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()

	plan, err := store.BeginMultipart(ctx, "k", "application/octet-stream", 1)
	require.NoError(t, err)
	_, err = store.PutPart(ctx, plan.UploadID, 1, strings.NewReader("aa"))
	require.NoError(t, err)

	require.NoError(t, store.AbortMultipart(ctx, "k", plan.UploadID))
	_, err = store.PutPart(ctx, plan.UploadID, 1, strings.NewReader("aa"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Aborting twice is fine.
	assert.NoError(t, store.AbortMultipart(ctx, "k", plan.UploadID))
}
