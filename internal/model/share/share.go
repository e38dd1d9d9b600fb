package share

import (
	"time"

	"github.com/google/uuid"
)

// Kind separates shares addressed to specific users from shares
// reachable by anyone holding the link token.
type Kind string

const (
	KindUser Kind = "user"
	KindLink Kind = "link"
)

type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	// RoleOwner is reported by the access evaluator for file owners.
	// It is never stored on a Share record.
	RoleOwner Role = "owner"
)

// ValidGrantRole reports whether r may be stored on a share.
func ValidGrantRole(r Role) bool {
	return r == RoleViewer || r == RoleEditor
}

type Action string

const (
	ActionView     Action = "view"
	ActionDownload Action = "download"
)

// AccessLogEntry is one view/download event against a share. Append-only.
type AccessLogEntry struct {
	UserID    uint32    `json:"user_id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Share grants access to one file, either to a set of recipients
// (KindUser) or to holders of Token (KindLink).
type Share struct {
	ID         uuid.UUID        `json:"id"`
	FileID     uuid.UUID        `json:"file_id"`
	OwnerID    uint32           `json:"owner_id"`
	Kind       Kind             `json:"share_type"`
	Role       Role             `json:"role"`
	Token      string           `json:"share_link,omitempty"`
	SharedWith []uint32         `json:"shared_with,omitempty"`
	ExpiresAt  *time.Time       `json:"expires_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	AccessLog  []AccessLogEntry `json:"access_log,omitempty"`
}

// IsExpired reports whether s is past its expiry at the given instant.
// Expired shares are kept for audit but denied on every access path.
func IsExpired(s *Share, now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// HasRecipient reports whether userID is in the recipient set.
func (s *Share) HasRecipient(userID uint32) bool {
	for _, id := range s.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// ExpiryFromHours converts an "expires in N hours" request into an
// absolute timestamp. Non-positive hours means no expiry.
func ExpiryFromHours(hours int, now time.Time) *time.Time {
	if hours <= 0 {
		return nil
	}
	t := now.Add(time.Duration(hours) * time.Hour)
	return &t
}
