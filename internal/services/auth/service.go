// Package auth handles registration, login and JWT issuance. Tokens
// carry a version that is bumped on password change, which revokes every
// previously issued token for the account.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
)

// TokenPair is an issued access/refresh token set.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RegisterRequest carries signup fields.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Role     string
	Skills   string
}

// Config tunes token lifetimes and signing.
type Config struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// DefaultConfig uses the standard token lifetimes.
func DefaultConfig(secret string) Config {
	return Config{
		JWTSecret:  secret,
		AccessTTL:  24 * time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

// Service is the authentication API.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ChangePassword(ctx context.Context, userID uint, current, next string) error
	ValidateToken(tokenString string) (*models.UserClaims, error)
}

type service struct {
	uow    repositories.UnitOfWork
	config Config
	now    func() time.Time
}

// NewService creates an auth service.
func NewService(uow repositories.UnitOfWork, config Config) Service {
	if config.AccessTTL <= 0 {
		config.AccessTTL = 24 * time.Hour
	}
	if config.RefreshTTL <= 0 {
		config.RefreshTTL = 7 * 24 * time.Hour
	}
	return &service{uow: uow, config: config, now: time.Now}
}

// newReferralCode builds a short shareable code. Collisions are caught
// by the unique index and retried by the caller.
func newReferralCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	return "GP" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = models.RoleWorker
	}
	if role != models.RoleWorker && role != models.RoleCreator {
		return nil, ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	code, err := newReferralCode()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     req.Name,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashed),
		Role:     role,
		Skills:   req.Skills,
		IsActive: true,
		// Creators publish tasks, so they wait for admin approval.
		IsApproved:   role == models.RoleWorker,
		ReferralCode: code,
	}
	err = s.uow.Do(ctx, func(r repositories.Repos) error {
		if err := r.Users.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicateEmail) {
				return ErrEmailTaken
			}
			return err
		}
		return r.Ledger.CreateWallet(ctx, &models.Wallet{UserID: user.ID})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	var user *models.User
	err := s.uow.Do(ctx, func(r repositories.Repos) error {
		found, err := r.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrInvalidCredentials
			}
			return err
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.uow.Do(ctx, func(r repositories.Repos) error {
		var err error
		user, err = r.Users.GetByID(ctx, claims.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrTokenRevoked
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return s.issueTokens(user)
}

func (s *service) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	return s.uow.Do(ctx, func(r repositories.Repos) error {
		user, err := r.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
			return ErrInvalidCredentials
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
		// Revoke every outstanding token.
		user.TokenVersion++
		return r.Users.Update(ctx, user)
	})
}

func (s *service) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := s.signToken(user, s.config.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(user, s.config.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.config.AccessTTL.Seconds()),
	}, nil
}

func (s *service) signToken(user *models.User, ttl time.Duration) (string, error) {
	now := s.now()
	claims := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *service) ValidateToken(tokenString string) (*models.UserClaims, error) {
	claims := &models.UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
