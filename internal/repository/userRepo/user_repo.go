package userRepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fileshare-service/internal/model/user"
)

type UserRepo struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (uint32, error) {
	query := `INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`
	var userID uint32
	err := r.db.QueryRow(ctx, query, username, email, passwordHash).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user and retrieve id: %w", err)
	}
	return userID, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uint32) (*user.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE id=$1`
	var u user.User
	err := r.db.QueryRow(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE email=$1`
	var u user.User
	err := r.db.QueryRow(ctx, query, email).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE username=$1`
	var u user.User
	err := r.db.QueryRow(ctx, query, username).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CountByIDs returns how many of the given ids exist. Used to reject
// shares addressed to unknown recipients.
func (r *UserRepo) CountByIDs(ctx context.Context, ids []uint32) (int, error) {
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE id = ANY($1)`, raw).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
