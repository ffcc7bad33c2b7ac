// Package blob hands staged upload files to the blob host and always removes
// the local copy afterwards.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/CUknot/tasksphere_backend/apperr"
	"github.com/CUknot/tasksphere_backend/config"
	"go.uber.org/zap"
)

// Result locates an uploaded blob.
type Result struct {
	URL      string
	PublicID string
}

// Backend stores the file at localPath remotely.
type Backend interface {
	Put(ctx context.Context, localPath string) (Result, error)
}

// Adapter owns the staged file passed to Upload.
type Adapter struct {
	backend Backend
	log     *zap.Logger
}

// NewAdapter wraps a backend.
func NewAdapter(backend Backend, log *zap.Logger) *Adapter {
	return &Adapter{backend: backend, log: log.Named("blob")}
}

// New builds the adapter for the configured driver.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Adapter, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.BlobDriver {
	case "cloudinary":
		backend, err = NewCloudinaryBackend(cfg.Cloudinary)
	case "minio":
		backend, err = NewMinioBackend(ctx, cfg.Minio)
	default:
		err = fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
	if err != nil {
		return nil, err
	}
	return NewAdapter(backend, log), nil
}

// Upload sends the file at localPath to the backend. The local file is
// removed whether or not the upload succeeds.
func (a *Adapter) Upload(ctx context.Context, localPath string) (Result, error) {
	if localPath == "" {
		return Result{}, apperr.Validation("No file uploaded")
	}
	defer a.removeLocal(localPath)

	res, err := a.backend.Put(ctx, localPath)
	if err != nil {
		return Result{}, apperr.Upstream("File upload to blob storage failed", err)
	}
	if res.URL == "" || res.PublicID == "" {
		return Result{}, apperr.Upstream("File upload to blob storage failed", errors.New("backend returned an empty locator"))
	}

	a.log.Info("file uploaded", zap.String("public_id", res.PublicID), zap.String("url", res.URL))
	return res, nil
}

func (a *Adapter) removeLocal(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.log.Warn("failed to remove staged file", zap.String("path", path), zap.Error(err))
	}
}
