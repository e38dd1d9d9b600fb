// Package access decides whether a user may reach a file and with what
// effective role. Every access check in the system goes through the
// evaluator so ownership, recipient and expiry rules live in one place.
package access

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fileshare-service/internal/apperr"
	"fileshare-service/internal/model/file"
	"fileshare-service/internal/model/share"
)

type FileGetter interface {
	GetByID(ctx context.Context, fileID uuid.UUID) (*file.File, error)
}

type ShareLister interface {
	ListByFile(ctx context.Context, fileID uuid.UUID) ([]*share.Share, error)
}

// Decision is the outcome of an evaluation. Share is nil when access
// comes from ownership; Role is then RoleOwner, never RoleEditor.
type Decision struct {
	Granted bool
	Role    share.Role
	Share   *share.Share
}

// ViaShare reports whether access was granted through a share rather
// than ownership.
func (d *Decision) ViaShare() bool {
	return d.Share != nil
}

type Evaluator struct {
	files  FileGetter
	shares ShareLister
	now    func() time.Time
}

func New(files FileGetter, shares ShareLister) *Evaluator {
	return &Evaluator{files: files, shares: shares, now: time.Now}
}

// Evaluate resolves the effective grant for (fileID, userID).
//
// Owners always get in. Otherwise the newest non-expired user share
// addressed to the user wins; a link share only counts when no user
// share matches. A share that matches but has expired yields
// apperr.ErrExpired; no match at all yields apperr.ErrForbidden.
func (e *Evaluator) Evaluate(ctx context.Context, fileID uuid.UUID, userID uint32) (*Decision, error) {
	f, err := e.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if f == nil {
		return nil, apperr.ErrNotFound
	}

	if f.OwnerID == userID {
		return &Decision{Granted: true, Role: share.RoleOwner}, nil
	}

	shares, err := e.shares.ListByFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}

	now := e.now()
	var best *share.Share
	var expiredMatch bool
	for _, s := range shares {
		matches := (s.Kind == share.KindUser && s.HasRecipient(userID)) || s.Kind == share.KindLink
		if !matches {
			continue
		}
		if share.IsExpired(s, now) {
			expiredMatch = true
			continue
		}
		if best == nil {
			best = s
			continue
		}
		// A user share beats a link share; among user shares the most
		// recently created wins.
		if s.Kind == share.KindUser {
			if best.Kind != share.KindUser || s.CreatedAt.After(best.CreatedAt) {
				best = s
			}
		}
	}

	if best == nil {
		if expiredMatch {
			return nil, apperr.ErrExpired
		}
		return nil, apperr.ErrForbidden
	}

	return &Decision{Granted: true, Role: best.Role, Share: best}, nil
}
