// Package shareRepo persists shares across three tables: shares,
// share_recipients and share_access_log. Grant updates are single-row
// UPDATEs so two requests racing on the same share cannot lose writes,
// and recipient removal is an atomic set-remove inside a transaction.
package shareRepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fileshare-service/internal/model/share"
)

type ShareRepository struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *ShareRepository {
	return &ShareRepository{db: db}
}

const shareColumns = `id, file_id, owner_id, share_type, role, COALESCE(token, ''), expires_at, created_at`

func scanShare(row pgx.Row) (*share.Share, error) {
	var s share.Share
	err := row.Scan(&s.ID, &s.FileID, &s.OwnerID, &s.Kind, &s.Role, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ShareRepository) Create(ctx context.Context, s *share.Share) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var token *string
	if s.Token != "" {
		token = &s.Token
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO shares (id, file_id, owner_id, share_type, role, token, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.FileID, s.OwnerID, s.Kind, s.Role, token, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return err
	}

	for _, userID := range s.SharedWith {
		_, err = tx.Exec(ctx,
			`INSERT INTO share_recipients (share_id, user_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			s.ID, userID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ShareRepository) GetByID(ctx context.Context, shareID uuid.UUID) (*share.Share, error) {
	s, err := scanShare(r.db.QueryRow(ctx,
		`SELECT `+shareColumns+` FROM shares WHERE id = $1`, shareID))
	if err != nil || s == nil {
		return nil, err
	}
	if err := r.attach(ctx, []*share.Share{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *ShareRepository) GetByToken(ctx context.Context, token string) (*share.Share, error) {
	s, err := scanShare(r.db.QueryRow(ctx,
		`SELECT `+shareColumns+` FROM shares WHERE token = $1`, token))
	if err != nil || s == nil {
		return nil, err
	}
	if err := r.attach(ctx, []*share.Share{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// FindUserShare locates the user-kind share covering one recipient of a
// file, if any. The ledger keeps at most one per (file, owner, recipient).
func (r *ShareRepository) FindUserShare(ctx context.Context, fileID uuid.UUID, ownerID, recipientID uint32) (*share.Share, error) {
	s, err := scanShare(r.db.QueryRow(ctx,
		`SELECT s.id, s.file_id, s.owner_id, s.share_type, s.role, COALESCE(s.token, ''), s.expires_at, s.created_at
		 FROM shares s
		 JOIN share_recipients sr ON sr.share_id = s.id
		 WHERE s.file_id = $1 AND s.owner_id = $2 AND s.share_type = 'user' AND sr.user_id = $3
		 ORDER BY s.created_at DESC
		 LIMIT 1`,
		fileID, ownerID, recipientID))
	if err != nil || s == nil {
		return nil, err
	}
	if err := r.attach(ctx, []*share.Share{s}); err != nil {
		return nil, err
	}
	return s, nil
}

// FindLinkShare locates the single link share of a (file, owner) pair, if any.
func (r *ShareRepository) FindLinkShare(ctx context.Context, fileID uuid.UUID, ownerID uint32) (*share.Share, error) {
	s, err := scanShare(r.db.QueryRow(ctx,
		`SELECT `+shareColumns+`
		 FROM shares
		 WHERE file_id = $1 AND owner_id = $2 AND share_type = 'link'
		 LIMIT 1`,
		fileID, ownerID))
	if err != nil || s == nil {
		return nil, err
	}
	return s, nil
}

func (r *ShareRepository) ListByFile(ctx context.Context, fileID uuid.UUID) ([]*share.Share, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+shareColumns+`
		 FROM shares WHERE file_id = $1
		 ORDER BY created_at DESC`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []*share.Share
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attach(ctx, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// ListByRecipient returns the user-kind shares addressed to userID,
// newest first. Backs the shared-with-me listing.
func (r *ShareRepository) ListByRecipient(ctx context.Context, userID uint32) ([]*share.Share, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.file_id, s.owner_id, s.share_type, s.role, COALESCE(s.token, ''), s.expires_at, s.created_at
		 FROM shares s
		 JOIN share_recipients sr ON sr.share_id = s.id
		 WHERE s.share_type = 'user' AND sr.user_id = $1
		 ORDER BY s.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []*share.Share
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attach(ctx, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// UpdateGrant rewrites role and expiry in one atomic statement. An
// empty role keeps the stored role; a nil expiry keeps the stored
// expiry, so an update never clears an expiry by omission.
func (r *ShareRepository) UpdateGrant(ctx context.Context, shareID uuid.UUID, role share.Role, expiresAt *time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE shares
		 SET role = COALESCE(NULLIF($2, ''), role),
		     expires_at = COALESCE($3, expires_at)
		 WHERE id = $1`,
		shareID, string(role), expiresAt)
	return err
}

// RemoveRecipient drops one recipient and reports how many remain. When
// the set becomes empty the share itself is deleted in the same
// transaction.
func (r *ShareRepository) RemoveRecipient(ctx context.Context, shareID uuid.UUID, userID uint32) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM share_recipients WHERE share_id = $1 AND user_id = $2`,
		shareID, userID)
	if err != nil {
		return 0, err
	}

	var remaining int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM share_recipients WHERE share_id = $1`, shareID).Scan(&remaining)
	if err != nil {
		return 0, err
	}

	if remaining == 0 {
		if err := deleteShareTx(ctx, tx, shareID); err != nil {
			return 0, err
		}
	}

	return remaining, tx.Commit(ctx)
}

func deleteShareTx(ctx context.Context, tx pgx.Tx, shareID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM share_access_log WHERE share_id = $1`, shareID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM share_recipients WHERE share_id = $1`, shareID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `DELETE FROM shares WHERE id = $1`, shareID)
	return err
}

func (r *ShareRepository) Delete(ctx context.Context, shareID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := deleteShareTx(ctx, tx, shareID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteByFile removes every share of a file. Called from the file
// deletion cascade.
func (r *ShareRepository) DeleteByFile(ctx context.Context, fileID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM share_access_log
		 WHERE share_id IN (SELECT id FROM shares WHERE file_id = $1)`, fileID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`DELETE FROM share_recipients
		 WHERE share_id IN (SELECT id FROM shares WHERE file_id = $1)`, fileID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `DELETE FROM shares WHERE file_id = $1`, fileID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AppendAccessLog records one view/download event. Append-only.
func (r *ShareRepository) AppendAccessLog(ctx context.Context, shareID uuid.UUID, entry share.AccessLogEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO share_access_log (share_id, user_id, action, created_at)
		 VALUES ($1, $2, $3, $4)`,
		shareID, entry.UserID, entry.Action, entry.Timestamp)
	return err
}

// attach loads recipient sets and access logs for the given shares.
func (r *ShareRepository) attach(ctx context.Context, shares []*share.Share) error {
	if len(shares) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*share.Share, len(shares))
	ids := make([]uuid.UUID, 0, len(shares))
	for _, s := range shares {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	rows, err := r.db.Query(ctx,
		`SELECT share_id, user_id FROM share_recipients WHERE share_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var shareID uuid.UUID
		var userID uint32
		if err := rows.Scan(&shareID, &userID); err != nil {
			return err
		}
		if s := byID[shareID]; s != nil {
			s.SharedWith = append(s.SharedWith, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	logRows, err := r.db.Query(ctx,
		`SELECT share_id, user_id, action, created_at
		 FROM share_access_log WHERE share_id = ANY($1)
		 ORDER BY id`, ids)
	if err != nil {
		return err
	}
	defer logRows.Close()
	for logRows.Next() {
		var shareID uuid.UUID
		var entry share.AccessLogEntry
		if err := logRows.Scan(&shareID, &entry.UserID, &entry.Action, &entry.Timestamp); err != nil {
			return err
		}
		if s := byID[shareID]; s != nil {
			s.AccessLog = append(s.AccessLog, entry)
		}
	}
	return logRows.Err()
}
