package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Dias221467/Chat_Server/internal/models"
	"github.com/Dias221467/Chat_Server/pkg/apperr"
	jwtutil "github.com/Dias221467/Chat_Server/pkg/jwt"
	"github.com/Dias221467/Chat_Server/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

// UserService handles registration, login and profile reads. It exists to
// give the core an authenticated actor; sessions themselves are a thin JWT.
type UserService struct {
	users     UserStore
	jwtSecret string
}

func NewUserService(users UserStore, jwtSecret string) *UserService {
	return &UserService{users: users, jwtSecret: jwtSecret}
}

// Register creates an account with a bcrypt-hashed password and a derived
// default avatar.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, apperr.InvalidArgumentf("username, email and password are required")
	}
	if len(password) < 6 {
		return nil, apperr.InvalidArgumentf("password must be at least 6 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	user, err := s.users.CreateUser(ctx, &models.User{
		Username:       username,
		Email:          email,
		HashedPassword: string(hashed),
		Avatar:         "https://ui-avatars.com/api/?background=random&name=" + url.QueryEscape(username),
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Infof("Registered user %s", user.ID.Hex())
	return user, nil
}

// Login verifies credentials and issues a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", apperr.InvalidArgumentf("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, "", apperr.InvalidArgumentf("invalid email or password")
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Username, s.jwtSecret, tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}

	return user, token, nil
}

// GetUser fetches a user by id.
func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// SetPresence persists the presence status written by the registry on
// connect and disconnect, stamping lastSeen.
func (s *UserService) SetPresence(ctx context.Context, id primitive.ObjectID, status string) error {
	return s.users.SetStatus(ctx, id, status, time.Now())
}

// TouchLastSeen refreshes the user's lastSeen timestamp; failures are only
// logged since lastSeen is advisory.
func (s *UserService) TouchLastSeen(ctx context.Context, id primitive.ObjectID) {
	if err := s.users.TouchLastSeen(ctx, id); err != nil {
		logger.Log.Debugf("Failed to touch last seen for %s: %v", id.Hex(), err)
	}
}
