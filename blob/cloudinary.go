package blob

import (
	"context"
	"fmt"

	"github.com/CUknot/tasksphere_backend/config"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryBackend uploads files to Cloudinary with automatic resource type
// detection.
type CloudinaryBackend struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryBackend(cfg config.Cloudinary) (*CloudinaryBackend, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary client: %w", err)
	}
	return &CloudinaryBackend{cld: cld, folder: cfg.Folder}, nil
}

func (c *CloudinaryBackend) Put(ctx context.Context, localPath string) (Result, error) {
	resp, err := c.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		ResourceType: "auto",
		Folder:       c.folder,
	})
	if err != nil {
		return Result{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return Result{}, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return Result{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}
