package files

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/jobhunter/internal/app/metrics"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/platform/media"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// AllowedExtensions lists the accepted file types, lower case.
var AllowedExtensions = []string{"pdf", "jpg", "jpeg", "png", "doc", "docx"}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Upload is a file received from a client.
type Upload struct {
	Folder      string
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// Result is returned to the client after a successful upload.
type Result struct {
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Service validates uploads and hands them to the media store.
type Service struct {
	store    media.Store
	maxBytes int64
	log      *logger.Logger
	now      func() time.Time
}

func New(store media.Store, maxBytes int64, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("files")
	}
	return &Service{store: store, maxBytes: maxBytes, log: log, now: time.Now}
}

// Upload stores u and returns its public URL.
func (s *Service) Upload(ctx context.Context, u Upload) (Result, error) {
	if u.Body == nil || u.Size == 0 {
		return Result{}, errors.BadRequest("file is empty")
	}
	if s.maxBytes > 0 && u.Size > s.maxBytes {
		return Result{}, errors.PayloadTooLarge(s.maxBytes)
	}
	ext := Extension(u.FileName)
	if !allowed(ext) {
		return Result{}, errors.BadRequest("invalid file extension, only allows %s", strings.Join(AllowedExtensions, ", "))
	}
	if ext == "pdf" {
		if _, err := media.InspectPDF(u.Body); err != nil {
			return Result{}, errors.BadRequest("invalid pdf document: %v", err)
		}
	}

	obj := media.Object{
		Folder:      cleanFolder(u.Folder),
		PublicID:    PublicID(u.FileName),
		ContentType: u.ContentType,
		Size:        u.Size,
		Body:        u.Body,
	}
	url, err := s.store.Put(ctx, obj)
	metrics.RecordUpload(s.store.Name(), err == nil)
	if err != nil {
		return Result{}, errors.Upstream("file upload failed", err)
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"key":      obj.Key(),
		"size":     u.Size,
		"provider": s.store.Name(),
	}).Info("file uploaded")
	return Result{FileName: url, UploadedAt: s.now().UTC()}, nil
}

// Extension returns the lower case extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func allowed(ext string) bool {
	for _, a := range AllowedExtensions {
		if a == ext {
			return true
		}
	}
	return false
}

// PublicID names a stored object: a random prefix and the sanitised base name.
func PublicID(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = unsafeName.ReplaceAllString(base, "_")
	if base == "" || base == "." {
		base = "file"
	}
	return uuid.NewString() + "_" + base
}

func cleanFolder(folder string) string {
	folder = strings.Trim(path.Clean("/"+strings.TrimSpace(folder)), "/")
	return unsafeName.ReplaceAllString(folder, "_")
}
