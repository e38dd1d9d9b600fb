package fileRepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fileshare-service/internal/model/file"
)

type FileRepository struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, f *file.File) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO files (id, owner_id, original_name, mimetype, size, storage_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.OwnerID, f.OriginalName, f.MimeType, f.Size, f.StorageKey, f.CreatedAt)
	return err
}

func (r *FileRepository) GetByID(ctx context.Context, fileID uuid.UUID) (*file.File, error) {
	var f file.File
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, original_name, mimetype, size, storage_key, created_at
		 FROM files WHERE id = $1`, fileID).
		Scan(&f.ID, &f.OwnerID, &f.OriginalName, &f.MimeType, &f.Size, &f.StorageKey, &f.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ExistsByOwnerAndName is a case-sensitive exact match on the original
// name, scoped to one owner.
func (r *FileRepository) ExistsByOwnerAndName(ctx context.Context, ownerID uint32, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM files WHERE owner_id = $1 AND original_name = $2)`,
		ownerID, name).Scan(&exists)
	return exists, err
}

func (r *FileRepository) ListByOwner(ctx context.Context, ownerID uint32) ([]*file.File, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, original_name, mimetype, size, storage_key, created_at
		 FROM files WHERE owner_id = $1
		 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*file.File
	for rows.Next() {
		var f file.File
		if err := rows.Scan(
			&f.ID, &f.OwnerID, &f.OriginalName, &f.MimeType, &f.Size, &f.StorageKey, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

func (r *FileRepository) Delete(ctx context.Context, fileID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, fileID)
	return err
}
