package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/CUknot/tasksphere_backend/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	result Result
	err    error
	seen   []byte
}

func (f *fakeBackend) Put(_ context.Context, localPath string) (Result, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return Result{}, err
	}
	f.seen = data
	return f.result, f.err
}

func stageFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("meeting notes"), 0o644))
	return path
}

func TestUploadRemovesLocalFileOnSuccess(t *testing.T) {
	backend := &fakeBackend{result: Result{URL: "https://cdn.example.com/notes.txt", PublicID: "notes"}}
	adapter := NewAdapter(backend, zap.NewNop())
	path := stageFile(t)

	res, err := adapter.Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "notes", res.PublicID)
	assert.Equal(t, "meeting notes", string(backend.seen))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestUploadRemovesLocalFileOnFailure(t *testing.T) {
	backend := &fakeBackend{err: errors.New("503 service unavailable")}
	adapter := NewAdapter(backend, zap.NewNop())
	path := stageFile(t)

	_, err := adapter.Upload(context.Background(), path)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestUploadRejectsEmptyLocator(t *testing.T) {
	adapter := NewAdapter(&fakeBackend{result: Result{URL: "https://cdn.example.com/x"}}, zap.NewNop())

	_, err := adapter.Upload(context.Background(), stageFile(t))
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestUploadWithoutFile(t *testing.T) {
	adapter := NewAdapter(&fakeBackend{}, zap.NewNop())

	_, err := adapter.Upload(context.Background(), "")
	assert.Equal(t, "No file uploaded", apperr.PublicMessage(err, ""))
}
