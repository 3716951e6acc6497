package file

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/storage"
	"github.com/google/uuid"
)

var allowedImportExts = []string{".csv", ".txt"}

type FileService interface {
	// ArchiveImport stores a raw time clock export under imports/YYYY/MM and
	// returns the stored path.
	ArchiveImport(ctx context.Context, file io.Reader, filename string) (string, error)

	DeleteFile(ctx context.Context, path string) error
	GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
	now     func() time.Time
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
		now:     time.Now,
	}
}

func (s *fileServiceImpl) ArchiveImport(ctx context.Context, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	isValid := false
	for _, allowed := range allowedImportExts {
		if ext == allowed {
			isValid = true
			break
		}
	}
	if !isValid {
		return "", fmt.Errorf("invalid file type: only csv, txt allowed")
	}

	now := s.now().UTC()
	newFilename := fmt.Sprintf("%d-%s%s", now.Unix(), uuid.NewString(), ext)
	dst := path.Join("imports", now.Format("2006"), now.Format("01"), newFilename)

	uploadedPath, err := s.storage.Upload(ctx, file, dst, "text/csv")
	if err != nil {
		return "", fmt.Errorf("failed to archive import: %w", err)
	}
	return uploadedPath, nil
}

// DeleteFile deletes a file
func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

// GetFileURL generates URL to access file
func (s *fileServiceImpl) GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return s.storage.GetURL(ctx, path, expiry)
}
