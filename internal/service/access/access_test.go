package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileshare-service/internal/apperr"
	"fileshare-service/internal/model/file"
	"fileshare-service/internal/model/share"
	"fileshare-service/internal/service/access"
)

type fakeFiles struct {
	files map[uuid.UUID]*file.File
}

func (f *fakeFiles) GetByID(_ context.Context, fileID uuid.UUID) (*file.File, error) {
	return f.files[fileID], nil
}

type fakeShares struct {
	shares []*share.Share
}

func (f *fakeShares) ListByFile(_ context.Context, fileID uuid.UUID) ([]*share.Share, error) {
	var out []*share.Share
	for _, s := range f.shares {
		if s.FileID == fileID {
			out = append(out, s)
		}
	}
	return out, nil
}

const (
	ownerID     uint32 = 1
	recipientID uint32 = 2
	strangerID  uint32 = 3
)

func setup(shares ...*share.Share) (*access.Evaluator, uuid.UUID) {
	fileID := uuid.New()
	for _, s := range shares {
		s.FileID = fileID
	}
	files := &fakeFiles{files: map[uuid.UUID]*file.File{
		fileID: {ID: fileID, OwnerID: ownerID, OriginalName: "report.pdf"},
	}}
	return access.New(files, &fakeShares{shares: shares}), fileID
}

func userShare(role share.Role, recipients []uint32, createdAt time.Time, expiresAt *time.Time) *share.Share {
	return &share.Share{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Kind:       share.KindUser,
		Role:       role,
		SharedWith: recipients,
		CreatedAt:  createdAt,
		ExpiresAt:  expiresAt,
	}
}

func linkShare(role share.Role, createdAt time.Time, expiresAt *time.Time) *share.Share {
	return &share.Share{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Kind:      share.KindLink,
		Role:      role,
		Token:     uuid.NewString(),
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
}

func TestEvaluate_UnknownFile(t *testing.T) {
	e, _ := setup()
	_, err := e.Evaluate(context.Background(), uuid.New(), ownerID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEvaluate_OwnerAlwaysGranted(t *testing.T) {
	// Owner access does not depend on any share, even an expired one.
	past := time.Now().Add(-time.Hour)
	e, fileID := setup(userShare(share.RoleViewer, []uint32{recipientID}, time.Now(), &past))

	dec, err := e.Evaluate(context.Background(), fileID, ownerID)
	require.NoError(t, err)
	assert.True(t, dec.Granted)
	assert.Equal(t, share.RoleOwner, dec.Role)
	assert.Nil(t, dec.Share)
	assert.False(t, dec.ViaShare())
}

func TestEvaluate_RecipientGranted(t *testing.T) {
	e, fileID := setup(userShare(share.RoleViewer, []uint32{recipientID}, time.Now(), nil))

	dec, err := e.Evaluate(context.Background(), fileID, recipientID)
	require.NoError(t, err)
	assert.True(t, dec.Granted)
	assert.Equal(t, share.RoleViewer, dec.Role)
	assert.True(t, dec.ViaShare())
}

func TestEvaluate_StrangerDenied(t *testing.T) {
	e, fileID := setup(userShare(share.RoleEditor, []uint32{recipientID}, time.Now(), nil))

	_, err := e.Evaluate(context.Background(), fileID, strangerID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestEvaluate_ExpiredShareDenied(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	e, fileID := setup(userShare(share.RoleEditor, []uint32{recipientID}, time.Now(), &past))

	_, err := e.Evaluate(context.Background(), fileID, recipientID)
	assert.ErrorIs(t, err, apperr.ErrExpired)
}

func TestEvaluate_LinkShareGrantsAnyUser(t *testing.T) {
	e, fileID := setup(linkShare(share.RoleViewer, time.Now(), nil))

	dec, err := e.Evaluate(context.Background(), fileID, strangerID)
	require.NoError(t, err)
	assert.Equal(t, share.RoleViewer, dec.Role)
}

func TestEvaluate_UserShareBeatsLinkShare(t *testing.T) {
	// The user share is older but more specific; it must win over the
	// link share regardless of listing order.
	us := userShare(share.RoleEditor, []uint32{recipientID}, time.Now().Add(-time.Hour), nil)
	ls := linkShare(share.RoleViewer, time.Now(), nil)
	e, fileID := setup(ls, us)

	dec, err := e.Evaluate(context.Background(), fileID, recipientID)
	require.NoError(t, err)
	assert.Equal(t, share.RoleEditor, dec.Role)
	assert.Equal(t, us.ID, dec.Share.ID)
}

func TestEvaluate_MostRecentUserShareWins(t *testing.T) {
	older := userShare(share.RoleViewer, []uint32{recipientID}, time.Now().Add(-2*time.Hour), nil)
	newer := userShare(share.RoleEditor, []uint32{recipientID}, time.Now().Add(-time.Hour), nil)
	e, fileID := setup(older, newer)

	dec, err := e.Evaluate(context.Background(), fileID, recipientID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, dec.Share.ID)
}

func TestEvaluate_ExpiredUserShareFallsBackToLink(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	us := userShare(share.RoleEditor, []uint32{recipientID}, time.Now(), &past)
	ls := linkShare(share.RoleViewer, time.Now(), nil)
	e, fileID := setup(us, ls)

	dec, err := e.Evaluate(context.Background(), fileID, recipientID)
	require.NoError(t, err)
	assert.Equal(t, share.RoleViewer, dec.Role)
	assert.Equal(t, ls.ID, dec.Share.ID)
}
