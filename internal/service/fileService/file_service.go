// Package fileService is the file registry: it owns upload (including
// the multi-status batch semantics), listing, access-gated download and
// view, and the delete cascade.
package fileService

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fileshare-service/internal/apperr"
	"fileshare-service/internal/model/file"
	"fileshare-service/internal/model/share"
	"fileshare-service/internal/service/access"
)

const (
	// MaxFileSize is the per-file upload limit.
	MaxFileSize = 10 * 1024 * 1024
	// MaxFilesPerUpload caps one multipart request.
	MaxFilesPerUpload = 10
)

// allowedMimeTypes is the upload allow list: PDF, images, CSV, Excel,
// Word, text files and ZIP.
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"image/webp":         true,
	"image/svg+xml":      true,
	"text/csv":           true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain":                   true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
}

func AllowedMimeType(mimetype string) bool {
	return allowedMimeTypes[mimetype]
}

type FileRepository interface {
	Create(ctx context.Context, f *file.File) error
	GetByID(ctx context.Context, fileID uuid.UUID) (*file.File, error)
	ExistsByOwnerAndName(ctx context.Context, ownerID uint32, name string) (bool, error)
	ListByOwner(ctx context.Context, ownerID uint32) ([]*file.File, error)
	Delete(ctx context.Context, fileID uuid.UUID) error
}

type ShareRepository interface {
	DeleteByFile(ctx context.Context, fileID uuid.UUID) error
}

type BlobStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URLFor(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type AccessEvaluator interface {
	Evaluate(ctx context.Context, fileID uuid.UUID, userID uint32) (*access.Decision, error)
}

// AccessRecorder appends best-effort access-log entries; implemented by
// the share service.
type AccessRecorder interface {
	RecordAccess(ctx context.Context, shareID uuid.UUID, userID uint32, action share.Action)
}

type FileService struct {
	files     FileRepository
	shares    ShareRepository
	blobs     BlobStore
	evaluator AccessEvaluator
	recorder  AccessRecorder
	log       *zap.Logger
}

func New(files FileRepository, shares ShareRepository, blobs BlobStore, evaluator AccessEvaluator, recorder AccessRecorder, log *zap.Logger) *FileService {
	return &FileService{
		files:     files,
		shares:    shares,
		blobs:     blobs,
		evaluator: evaluator,
		recorder:  recorder,
		log:       log,
	}
}

// UploadItem is one file of a batch upload request.
type UploadItem struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type FailedUpload struct {
	Name   string `json:"name"`
	Reason string `json:"error"`
}

// UploadResult is the multi-status summary of a batch: every item ends
// up in exactly one of the three buckets.
type UploadResult struct {
	Uploaded   []*file.File   `json:"files"`
	Duplicates []string       `json:"duplicates"`
	Failed     []FailedUpload `json:"failed"`
}

// Upload stores a batch of files. Items are processed independently:
// one item's duplicate name or storage failure never aborts the others.
func (s *FileService) Upload(ctx context.Context, ownerID uint32, items []UploadItem) (*UploadResult, error) {
	result := &UploadResult{}

	for _, item := range items {
		if !AllowedMimeType(item.ContentType) {
			result.Failed = append(result.Failed, FailedUpload{
				Name:   item.Name,
				Reason: fmt.Sprintf("file type %q is not allowed", item.ContentType),
			})
			continue
		}
		if item.Size > MaxFileSize {
			result.Failed = append(result.Failed, FailedUpload{
				Name:   item.Name,
				Reason: "file size exceeds the 10MB limit",
			})
			continue
		}

		exists, err := s.files.ExistsByOwnerAndName(ctx, ownerID, item.Name)
		if err != nil {
			result.Failed = append(result.Failed, FailedUpload{Name: item.Name, Reason: "duplicate check failed"})
			s.log.Error("duplicate check failed", zap.String("name", item.Name), zap.Error(err))
			continue
		}
		if exists {
			result.Duplicates = append(result.Duplicates, item.Name)
			continue
		}

		storageKey := fmt.Sprintf("%s-%s", uuid.NewString(), item.Name)
		if err := s.blobs.Put(ctx, storageKey, item.Reader, item.Size, item.ContentType); err != nil {
			result.Failed = append(result.Failed, FailedUpload{Name: item.Name, Reason: "failed to store file"})
			s.log.Error("blob upload failed", zap.String("name", item.Name), zap.Error(err))
			continue
		}

		f := &file.File{
			ID:           uuid.New(),
			OwnerID:      ownerID,
			OriginalName: item.Name,
			MimeType:     item.ContentType,
			Size:         item.Size,
			StorageKey:   storageKey,
			CreatedAt:    time.Now(),
		}
		if err := s.files.Create(ctx, f); err != nil {
			// Compensate so the blob does not outlive the failed record.
			if delErr := s.blobs.Delete(ctx, storageKey); delErr != nil {
				s.log.Warn("failed to delete orphaned blob", zap.String("key", storageKey), zap.Error(delErr))
			}
			result.Failed = append(result.Failed, FailedUpload{Name: item.Name, Reason: "failed to save file record"})
			s.log.Error("file record insert failed", zap.String("name", item.Name), zap.Error(err))
			continue
		}

		result.Uploaded = append(result.Uploaded, f)
	}

	return result, nil
}

func (s *FileService) ListByOwner(ctx context.Context, ownerID uint32) ([]*file.File, error) {
	files, err := s.files.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// Get returns file metadata to anyone the evaluator lets in.
func (s *FileService) Get(ctx context.Context, fileID uuid.UUID, userID uint32) (*file.File, *access.Decision, error) {
	dec, err := s.evaluator.Evaluate(ctx, fileID, userID)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get file: %w", err)
	}
	if f == nil {
		return nil, nil, apperr.ErrNotFound
	}
	return f, dec, nil
}

// Download opens the blob for attachment download. Viewers are refused:
// download needs editor or ownership. A download through a share is
// recorded in its access log.
func (s *FileService) Download(ctx context.Context, fileID uuid.UUID, userID uint32) (io.ReadCloser, *file.File, error) {
	f, dec, err := s.Get(ctx, fileID, userID)
	if err != nil {
		return nil, nil, err
	}
	if dec.ViaShare() && dec.Role == share.RoleViewer {
		return nil, nil, apperr.ErrViewOnly
	}

	reader, err := s.blobs.Get(ctx, f.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read blob: %w", err)
	}

	if dec.ViaShare() {
		s.recorder.RecordAccess(ctx, dec.Share.ID, userID, share.ActionDownload)
	}
	return reader, f, nil
}

// View opens the blob for inline preview. Both viewers and editors may
// view; views through a share are recorded.
func (s *FileService) View(ctx context.Context, fileID uuid.UUID, userID uint32) (io.ReadCloser, *file.File, error) {
	f, dec, err := s.Get(ctx, fileID, userID)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.blobs.Get(ctx, f.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read blob: %w", err)
	}

	if dec.ViaShare() {
		s.recorder.RecordAccess(ctx, dec.Share.ID, userID, share.ActionView)
	}
	return reader, f, nil
}

// PresignedURL returns a short-lived retrieval URL, gated the same way
// as download.
func (s *FileService) PresignedURL(ctx context.Context, fileID uuid.UUID, userID uint32, expiry time.Duration) (string, error) {
	f, dec, err := s.Get(ctx, fileID, userID)
	if err != nil {
		return "", err
	}
	if dec.ViaShare() && dec.Role == share.RoleViewer {
		return "", apperr.ErrViewOnly
	}
	url, err := s.blobs.URLFor(ctx, f.StorageKey, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign url: %w", err)
	}
	return url, nil
}

// Delete removes a file: its shares first, then the blob (best-effort,
// a storage failure is logged but does not keep the record alive), then
// the registry record. Owner only.
func (s *FileService) Delete(ctx context.Context, fileID uuid.UUID, userID uint32) error {
	f, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}
	if f == nil {
		return apperr.ErrNotFound
	}
	if f.OwnerID != userID {
		return apperr.ErrForbidden
	}

	if err := s.shares.DeleteByFile(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete shares: %w", err)
	}

	if err := s.blobs.Delete(ctx, f.StorageKey); err != nil {
		s.log.Warn("failed to delete blob", zap.String("key", f.StorageKey), zap.Error(err))
	}

	if err := s.files.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	return nil
}
