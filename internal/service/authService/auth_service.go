package authService

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fileshare-service/internal/apperr"
	"fileshare-service/internal/model/user"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	refreshTokenExpireTime = 7 * 24 * time.Hour
	accessTokenExpireTime  = 3 * time.Hour
)

type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (uint32, error)
	GetByID(ctx context.Context, id uint32) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

type SessionRepository interface {
	SaveRefreshToken(ctx context.Context, userID uint32, token string, ttl time.Duration) error
	DeleteRefreshToken(ctx context.Context, userID uint32) error
	ValidateRefreshToken(ctx context.Context, userID uint32, token string) (bool, error)
	BlacklistAccessToken(ctx context.Context, token string, expiresAt time.Time) error
	IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

type AuthService struct {
	users        UserRepository
	sessions     SessionRepository
	jwtSecretKey string
}

func New(users UserRepository, sessions SessionRepository, jwtSecret string) *AuthService {
	return &AuthService{users: users, sessions: sessions, jwtSecretKey: jwtSecret}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (uint32, error) {
	if username == "" || email == "" || password == "" {
		return 0, fmt.Errorf("username, email and password are required")
	}
	if !emailRegex.MatchString(email) {
		return 0, fmt.Errorf("invalid email format")
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return 0, fmt.Errorf("email already exists")
	}
	if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing != nil {
		return 0, fmt.Errorf("username already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.Create(ctx, username, email, string(hashed))
}

// Login returns an access token and a refresh token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || u == nil {
		return "", "", apperr.ErrUnauthenticated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", "", apperr.ErrUnauthenticated
	}

	accessToken, err := s.generateJWT(u.ID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.generateRefreshToken(ctx, u.ID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return accessToken, refreshToken, nil
}

func (s *AuthService) generateJWT(userID uint32) (string, error) {
	payload := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenExpireTime)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	return token.SignedString([]byte(s.jwtSecretKey))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, userID uint32) (string, error) {
	refreshToken := uuid.NewString()
	if err := s.sessions.SaveRefreshToken(ctx, userID, refreshToken, refreshTokenExpireTime); err != nil {
		return "", err
	}
	return refreshToken, nil
}

// VerifyAccessToken resolves a bearer token to the user id it was
// issued for. Blacklisted, malformed and expired tokens all come back
// as apperr.ErrUnauthenticated.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (uint32, error) {
	blacklisted, err := s.sessions.IsAccessTokenBlacklisted(ctx, token)
	if err != nil || blacklisted {
		return 0, apperr.ErrUnauthenticated
	}

	payload := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, payload, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil || !parsed.Valid {
		return 0, apperr.ErrUnauthenticated
	}

	uid, err := strconv.ParseUint(payload.Subject, 10, 32)
	if err != nil {
		return 0, apperr.ErrUnauthenticated
	}
	return uint32(uid), nil
}

// Logout drops the refresh token and blacklists the access token for
// the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, userID uint32, accessToken string) error {
	if err := s.sessions.DeleteRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	payload := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(accessToken, payload, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if err := s.sessions.BlacklistAccessToken(ctx, accessToken, payload.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// RefreshToken rotates both tokens when the presented refresh token is
// still the one on record.
func (s *AuthService) RefreshToken(ctx context.Context, userID uint32, oldRefreshToken string) (string, string, error) {
	valid, err := s.sessions.ValidateRefreshToken(ctx, userID, oldRefreshToken)
	if err != nil || !valid {
		return "", "", apperr.ErrUnauthenticated
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u == nil {
		return "", "", apperr.ErrUnauthenticated
	}

	newAccessToken, err := s.generateJWT(u.ID)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err := s.generateRefreshToken(ctx, userID)
	if err != nil {
		return "", "", err
	}
	return newAccessToken, newRefreshToken, nil
}
