package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"betahub/internal/config"
	"betahub/internal/model"
)

// AdminTokenBytes is the size of a generated admin token (128 bits).
const AdminTokenBytes = 16

// AdminService exchanges the operator's admin token for a short-lived session JWT.
type AdminService struct {
	tokenHash string
	jwtSecret string
	maxAge    int
	now       func() time.Time
}

func NewAdminService(cfg *config.Config) *AdminService {
	return &AdminService{
		tokenHash: cfg.AdminTokenHash,
		jwtSecret: cfg.JWTSecret,
		maxAge:    cfg.AdminSessionMaxAge,
		now:       time.Now,
	}
}

// SetClock overrides the time source used for token expiry.
func (s *AdminService) SetClock(now func() time.Time) {
	s.now = now
}

// Login verifies token against the configured digest and issues a session.
func (s *AdminService) Login(token string) (*model.AdminSession, error) {
	if s.tokenHash == "" || s.jwtSecret == "" {
		return nil, model.ErrAdminNotConfigured
	}
	if token == "" {
		return nil, model.ErrInvalidAdminToken
	}

	digest := HashAdminToken(token)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(s.tokenHash)) != 1 {
		return nil, model.ErrInvalidAdminToken
	}

	accessToken, err := s.generateAccessToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin token: %w", err)
	}

	return &model.AdminSession{
		AccessToken: accessToken,
		ExpiresIn:   s.maxAge,
	}, nil
}

func (s *AdminService) generateAccessToken() (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  "admin",
		"role": model.RoleAdmin,
		"exp":  now.Add(time.Duration(s.maxAge) * time.Second).Unix(),
		"iat":  now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GenerateAdminToken returns a random hex token and its SHA-256 digest.
// Only the digest is stored in configuration.
func GenerateAdminToken() (token, digest string, err error) {
	buf := make([]byte, AdminTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("read random bytes: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, HashAdminToken(token), nil
}

// HashAdminToken returns the lowercase hex SHA-256 digest of token.
func HashAdminToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
