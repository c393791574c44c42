// Package media stores uploaded files (CVs, logos, avatars) with a cloud
// provider and inspects PDFs before they are accepted.
package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/R3E-Network/jobhunter/internal/config"
)

// Object is a file to store.
type Object struct {
	// Folder groups objects, e.g. "resume" or "company".
	Folder string
	// PublicID is the unique object name without folder.
	PublicID    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Key is the provider independent object path.
func (o Object) Key() string {
	if o.Folder == "" {
		return o.PublicID
	}
	return strings.Trim(o.Folder, "/") + "/" + o.PublicID
}

// Store persists objects and returns their public URL.
type Store interface {
	Name() string
	Put(ctx context.Context, obj Object) (string, error)
}

// New returns the store selected by cfg.Provider.
func New(ctx context.Context, cfg config.MediaConfig) (Store, error) {
	switch strings.ToLower(cfg.Provider) {
	case "cloudinary":
		return NewCloudinary(cfg)
	case "gcs":
		return NewGCS(ctx, cfg)
	case "", "none", "memory":
		return NewMemory("memory://" + strings.Trim(cfg.Folder, "/")), nil
	}
	return nil, fmt.Errorf("unsupported media provider %q", cfg.Provider)
}
