package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/R3E-Network/jobhunter/internal/config"
)

// Cloudinary uploads to a Cloudinary product environment.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	prefix string
}

// NewCloudinary configures the client from CLOUDINARY_URL style settings or
// the explicit cloud name and key pair.
func NewCloudinary(cfg config.MediaConfig) (*Cloudinary, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	switch {
	case cfg.CloudinaryURL != "":
		cld, err = cloudinary.NewFromURL(cfg.CloudinaryURL)
	case cfg.CloudName != "":
		cld, err = cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	default:
		return nil, errors.New("cloudinary: cloudinary_url or cloud_name is required")
	}
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, prefix: strings.Trim(cfg.Folder, "/")}, nil
}

func (c *Cloudinary) Name() string { return "cloudinary" }

func (c *Cloudinary) Put(ctx context.Context, obj Object) (string, error) {
	folder := obj.Folder
	if c.prefix != "" {
		folder = path.Join(c.prefix, obj.Folder)
	}
	res, err := c.cld.Upload.Upload(ctx, obj.Body, uploader.UploadParams{
		PublicID:     obj.PublicID,
		Folder:       folder,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}
