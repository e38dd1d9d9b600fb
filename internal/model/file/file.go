package file

import (
	"time"

	"github.com/google/uuid"
)

// File is one uploaded artifact. OriginalName is unique per owner,
// StorageKey points at the blob store object.
type File struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uint32    `json:"owner_id"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	StorageKey   string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
