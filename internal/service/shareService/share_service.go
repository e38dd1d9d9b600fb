// Package shareService is the share ledger: it creates, updates,
// revokes and queries shares, records access events and flattens the
// audit log. The create-vs-update decision for re-shares lives here and
// nowhere else.
package shareService

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fileshare-service/internal/apperr"
	"fileshare-service/internal/model/file"
	"fileshare-service/internal/model/share"
)

type ShareRepository interface {
	Create(ctx context.Context, s *share.Share) error
	GetByID(ctx context.Context, shareID uuid.UUID) (*share.Share, error)
	GetByToken(ctx context.Context, token string) (*share.Share, error)
	FindUserShare(ctx context.Context, fileID uuid.UUID, ownerID, recipientID uint32) (*share.Share, error)
	FindLinkShare(ctx context.Context, fileID uuid.UUID, ownerID uint32) (*share.Share, error)
	ListByFile(ctx context.Context, fileID uuid.UUID) ([]*share.Share, error)
	ListByRecipient(ctx context.Context, userID uint32) ([]*share.Share, error)
	UpdateGrant(ctx context.Context, shareID uuid.UUID, role share.Role, expiresAt *time.Time) error
	RemoveRecipient(ctx context.Context, shareID uuid.UUID, userID uint32) (int, error)
	Delete(ctx context.Context, shareID uuid.UUID) error
	AppendAccessLog(ctx context.Context, shareID uuid.UUID, entry share.AccessLogEntry) error
}

type FileRepository interface {
	GetByID(ctx context.Context, fileID uuid.UUID) (*file.File, error)
}

type UserRepository interface {
	CountByIDs(ctx context.Context, ids []uint32) (int, error)
}

type ShareService struct {
	shares ShareRepository
	files  FileRepository
	users  UserRepository
	log    *zap.Logger
	now    func() time.Time
}

func New(shares ShareRepository, files FileRepository, users UserRepository, log *zap.Logger) *ShareService {
	return &ShareService{
		shares: shares,
		files:  files,
		users:  users,
		log:    log,
		now:    time.Now,
	}
}

// ownedFile loads the file and enforces that requester is its owner.
func (s *ShareService) ownedFile(ctx context.Context, fileID uuid.UUID, requester uint32) (*file.File, error) {
	f, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if f == nil {
		return nil, apperr.ErrNotFound
	}
	if f.OwnerID != requester {
		return nil, apperr.ErrForbidden
	}
	return f, nil
}

// ShareWithUsers grants role on a file to each recipient. The ledger
// keeps one share per recipient: an existing grant is updated in place,
// otherwise a new single-recipient share is created. Returns every
// affected share.
func (s *ShareService) ShareWithUsers(ctx context.Context, fileID uuid.UUID, ownerID uint32, recipientIDs []uint32, role share.Role, expiresInHours int) ([]*share.Share, error) {
	if len(recipientIDs) == 0 {
		return nil, fmt.Errorf("%w: no recipients given", apperr.ErrInvalidRecipients)
	}
	if role == "" {
		role = share.RoleViewer
	}
	if !share.ValidGrantRole(role) {
		return nil, fmt.Errorf("%w: invalid role %q", apperr.ErrInvalidRecipients, role)
	}

	if _, err := s.ownedFile(ctx, fileID, ownerID); err != nil {
		return nil, err
	}

	unique := dedupe(recipientIDs)
	count, err := s.users.CountByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to verify recipients: %w", err)
	}
	if count != len(unique) {
		return nil, apperr.ErrInvalidRecipients
	}

	expiresAt := share.ExpiryFromHours(expiresInHours, s.now())

	result := make([]*share.Share, 0, len(unique))
	for _, recipientID := range unique {
		existing, err := s.shares.FindUserShare(ctx, fileID, ownerID, recipientID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up share: %w", err)
		}
		if existing != nil {
			if err := s.shares.UpdateGrant(ctx, existing.ID, role, expiresAt); err != nil {
				return nil, fmt.Errorf("failed to update share: %w", err)
			}
			updated, err := s.shares.GetByID(ctx, existing.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reload share: %w", err)
			}
			result = append(result, updated)
			continue
		}

		created := &share.Share{
			ID:         uuid.New(),
			FileID:     fileID,
			OwnerID:    ownerID,
			Kind:       share.KindUser,
			Role:       role,
			SharedWith: []uint32{recipientID},
			ExpiresAt:  expiresAt,
			CreatedAt:  s.now(),
		}
		if err := s.shares.Create(ctx, created); err != nil {
			return nil, fmt.Errorf("failed to create share: %w", err)
		}
		result = append(result, created)
	}
	return result, nil
}

// CreateOrUpdateLink mints the link share for a file, or updates the
// existing one. A file has at most one link share per owner. On update
// an empty role keeps the stored role and a zero expiresInHours keeps
// the stored expiry; an update can therefore never clear an expiry.
func (s *ShareService) CreateOrUpdateLink(ctx context.Context, fileID uuid.UUID, ownerID uint32, role share.Role, expiresInHours int) (*share.Share, error) {
	if role != "" && !share.ValidGrantRole(role) {
		return nil, fmt.Errorf("%w: invalid role %q", apperr.ErrInvalidRecipients, role)
	}
	if _, err := s.ownedFile(ctx, fileID, ownerID); err != nil {
		return nil, err
	}

	expiresAt := share.ExpiryFromHours(expiresInHours, s.now())

	existing, err := s.shares.FindLinkShare(ctx, fileID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up link share: %w", err)
	}
	if existing != nil {
		if err := s.shares.UpdateGrant(ctx, existing.ID, role, expiresAt); err != nil {
			return nil, fmt.Errorf("failed to update link share: %w", err)
		}
		return s.shares.GetByID(ctx, existing.ID)
	}

	if role == "" {
		role = share.RoleViewer
	}
	created := &share.Share{
		ID:        uuid.New(),
		FileID:    fileID,
		OwnerID:   ownerID,
		Kind:      share.KindLink,
		Role:      role,
		Token:     uuid.NewString(),
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}
	if err := s.shares.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create link share: %w", err)
	}
	return created, nil
}

// ResolveLink exchanges a link token for the file and grant behind it,
// recording a view event for the requesting user.
func (s *ShareService) ResolveLink(ctx context.Context, token string, userID uint32) (*file.File, *share.Share, error) {
	sh, err := s.shares.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if sh == nil {
		return nil, nil, apperr.ErrNotFound
	}

	f, err := s.files.GetByID(ctx, sh.FileID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get file: %w", err)
	}
	if f == nil {
		return nil, nil, apperr.ErrNotFound
	}

	if share.IsExpired(sh, s.now()) {
		return nil, nil, apperr.ErrExpired
	}

	s.RecordAccess(ctx, sh.ID, userID, share.ActionView)
	return f, sh, nil
}

// ListForFile returns all shares of a file, newest first, including
// expired ones; only the owner may list them.
func (s *ShareService) ListForFile(ctx context.Context, fileID uuid.UUID, requester uint32) ([]*share.Share, error) {
	if _, err := s.ownedFile(ctx, fileID, requester); err != nil {
		return nil, err
	}
	shares, err := s.shares.ListByFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	return shares, nil
}

// SharedFile pairs a grant with the file it exposes, for the
// shared-with-me listing.
type SharedFile struct {
	Share *share.Share `json:"share"`
	File  *file.File   `json:"file"`
}

// SharedWithMe lists the live user shares addressed to userID. Expired
// grants and grants whose file is gone are filtered out.
func (s *ShareService) SharedWithMe(ctx context.Context, userID uint32) ([]SharedFile, error) {
	shares, err := s.shares.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}

	now := s.now()
	result := make([]SharedFile, 0, len(shares))
	for _, sh := range shares {
		if share.IsExpired(sh, now) {
			continue
		}
		f, err := s.files.GetByID(ctx, sh.FileID)
		if err != nil {
			return nil, fmt.Errorf("failed to get file: %w", err)
		}
		if f == nil {
			continue
		}
		result = append(result, SharedFile{Share: sh, File: f})
	}
	return result, nil
}

// Revoke deletes a share entirely. Only the share's owner may revoke.
func (s *ShareService) Revoke(ctx context.Context, shareID uuid.UUID, requester uint32) error {
	sh, err := s.shares.GetByID(ctx, shareID)
	if err != nil {
		return fmt.Errorf("failed to get share: %w", err)
	}
	if sh == nil {
		return apperr.ErrNotFound
	}
	if sh.OwnerID != requester {
		return apperr.ErrForbidden
	}
	return s.shares.Delete(ctx, shareID)
}

// RemoveRecipient drops one user from a user share. Removing the last
// recipient deletes the share.
func (s *ShareService) RemoveRecipient(ctx context.Context, shareID uuid.UUID, requester, recipientID uint32) error {
	sh, err := s.shares.GetByID(ctx, shareID)
	if err != nil {
		return fmt.Errorf("failed to get share: %w", err)
	}
	if sh == nil {
		return apperr.ErrNotFound
	}
	if sh.OwnerID != requester {
		return apperr.ErrForbidden
	}
	if sh.Kind != share.KindUser {
		return apperr.ErrNotAUserShare
	}

	if _, err := s.shares.RemoveRecipient(ctx, shareID, recipientID); err != nil {
		return fmt.Errorf("failed to remove recipient: %w", err)
	}
	return nil
}

// RecordAccess appends a view/download event to a share's log. It is
// best-effort: a failed append is logged and never fails the request
// that triggered it.
func (s *ShareService) RecordAccess(ctx context.Context, shareID uuid.UUID, userID uint32, action share.Action) {
	entry := share.AccessLogEntry{
		UserID:    userID,
		Action:    action,
		Timestamp: s.now(),
	}
	if err := s.shares.AppendAccessLog(ctx, shareID, entry); err != nil {
		s.log.Warn("failed to append access log entry",
			zap.String("share_id", shareID.String()),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

// AuditEntry is one row of a file's flattened audit log.
type AuditEntry struct {
	UserID    uint32       `json:"user_id"`
	Action    share.Action `json:"action"`
	Timestamp time.Time    `json:"timestamp"`
	ShareKind share.Kind   `json:"share_type"`
}

// AuditLog flattens every share's access log for a file into one
// sequence ordered newest first. Ties keep insertion order.
func (s *ShareService) AuditLog(ctx context.Context, fileID uuid.UUID, requester uint32) ([]AuditEntry, error) {
	if _, err := s.ownedFile(ctx, fileID, requester); err != nil {
		return nil, err
	}

	shares, err := s.shares.ListByFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}

	var entries []AuditEntry
	for _, sh := range shares {
		for _, e := range sh.AccessLog {
			entries = append(entries, AuditEntry{
				UserID:    e.UserID,
				Action:    e.Action,
				Timestamp: e.Timestamp,
				ShareKind: sh.Kind,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func dedupe(ids []uint32) []uint32 {
	seen := make(map[uint32]struct{}, len(ids))
	out := make([]uint32, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
