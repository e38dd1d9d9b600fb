package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fileshare-service/internal/service/fileService"
	"fileshare-service/internal/service/shareService"
	"fileshare-service/pkg/middleware"
)

type FileHandler struct {
	files  *fileService.FileService
	shares *shareService.ShareService
}

func NewFileHandler(files *fileService.FileService, shares *shareService.ShareService) *FileHandler {
	return &FileHandler{files: files, shares: shares}
}

// Upload accepts up to 10 files in one multipart request and reports a
// per-file summary: uploaded, duplicates and failures.
func (h *FileHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("invalid multipart form: %v", err)})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No files uploaded"})
		return
	}
	if len(headers) > fileService.MaxFilesPerUpload {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Too many files. Maximum 10 files can be uploaded at once."})
		return
	}

	items := make([]fileService.UploadItem, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("failed to read file %q", fh.Filename)})
			return
		}
		defer f.Close()
		items = append(items, fileService.UploadItem{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      f,
		})
	}

	result, err := h.files.Upload(c.Request.Context(), middleware.UserID(c), items)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if len(result.Uploaded) == 0 {
		if len(result.Duplicates) > 0 {
			status = http.StatusBadRequest
		} else {
			status = http.StatusInternalServerError
		}
	}

	c.JSON(status, gin.H{
		"message":    uploadMessage(result),
		"files":      result.Uploaded,
		"duplicates": result.Duplicates,
		"failed":     result.Failed,
		"summary": gin.H{
			"uploaded":   len(result.Uploaded),
			"duplicates": len(result.Duplicates),
			"failed":     len(result.Failed),
			"total":      len(items),
		},
	})
}

func uploadMessage(r *fileService.UploadResult) string {
	var parts []string
	if len(r.Uploaded) > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) uploaded successfully", len(r.Uploaded)))
	}
	if len(r.Duplicates) > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicate file(s) skipped: %s",
			len(r.Duplicates), strings.Join(r.Duplicates, ", ")))
	}
	if len(r.Failed) > 0 {
		names := make([]string, len(r.Failed))
		for i, f := range r.Failed {
			names[i] = f.Name
		}
		parts = append(parts, fmt.Sprintf("%d file(s) failed: %s", len(r.Failed), strings.Join(names, ", ")))
	}
	return strings.Join(parts, ". ")
}

func (h *FileHandler) MyFiles(c *gin.Context) {
	files, err := h.files.ListByOwner(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *FileHandler) SharedWithMe(c *gin.Context) {
	shared, err := h.shares.SharedWithMe(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shares": shared})
}

func fileIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid file id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *FileHandler) Get(c *gin.Context) {
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}
	f, _, err := h.files.Get(c.Request.Context(), fileID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": f})
}

func (h *FileHandler) Download(c *gin.Context) {
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}
	reader, f, err := h.files.Download(c.Request.Context(), fileID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, f.Size, f.MimeType, reader, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename=%q`, f.OriginalName),
	})
}

func (h *FileHandler) View(c *gin.Context) {
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}
	reader, f, err := h.files.View(c.Request.Context(), fileID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, f.Size, f.MimeType, reader, map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename=%q`, f.OriginalName),
	})
}

func (h *FileHandler) URL(c *gin.Context) {
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}
	url, err := h.files.PresignedURL(c.Request.Context(), fileID, middleware.UserID(c), time.Hour)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *FileHandler) Delete(c *gin.Context) {
	fileID, ok := fileIDParam(c)
	if !ok {
		return
	}
	if err := h.files.Delete(c.Request.Context(), fileID, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted successfully"})
}
