package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/librarydesk/internal/domain"
	"github.com/aryan0dhankhar/librarydesk/internal/security/auth"
)

// Account messages
const (
	MsgEmailExists     = "Email already exists"
	MsgLibraryIDExists = "Library ID already exists"
	MsgBadCredentials  = "Invalid username or password"
	MsgUserNotFound    = "User not found"
)

// AuthService handles registration, login and identity lookups
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *auth.TokenManager
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo domain.UserRepository,
	tokens *auth.TokenManager,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// RegisterRequest is a self-service sign up
type RegisterRequest struct {
	LibraryID string `json:"libraryId"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginResult represents login response
type LoginResult struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}

// Register creates a USER account
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.LibraryID = strings.TrimSpace(req.LibraryID)
	req.Email = strings.TrimSpace(req.Email)

	fields := fieldErrors{}
	if fields.required("libraryId", req.LibraryID, "Library ID is required") {
		fields.length("libraryId", req.LibraryID, 3, 30, "Library ID must be between 3 and 30 characters")
	}
	if fields.required("email", req.Email, "Email is required") {
		fields.email("email", req.Email)
	}
	if fields.required("password", req.Password, "Password is required") {
		fields.length("password", req.Password, 8, 64, "Password must be between 8 and 64 characters")
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, domain.Internal("register", err)
	}
	if exists {
		return nil, domain.NewConflict(domain.ReasonDuplicate, MsgEmailExists)
	}
	exists, err = s.userRepo.ExistsByLibraryID(ctx, req.LibraryID)
	if err != nil {
		return nil, domain.Internal("register", err)
	}
	if exists {
		return nil, domain.NewConflict(domain.ReasonDuplicate, MsgLibraryIDExists)
	}

	user, err := s.createUser(ctx, req.LibraryID, req.Email, req.Password, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("library_id", user.LibraryID),
	)
	return user, nil
}

// Login authenticates by email or library id and returns a signed token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, &domain.ValidationError{Message: MsgBadCredentials}
	}

	user, err := s.lookup(ctx, username)
	if errors.Is(err, domain.ErrNoRecord) {
		s.logger.Info("login attempt with unknown username", slog.String("username", username))
		return nil, &domain.ValidationError{Message: MsgBadCredentials}
	}
	if err != nil {
		return nil, domain.Internal("login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.Int64("user_id", user.ID))
		return nil, &domain.ValidationError{Message: MsgBadCredentials}
	}

	token, err := s.tokens.GenerateToken(user.ID, user.LibraryID, user.Email, string(user.Role))
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, domain.Internal("login", err)
	}

	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return &LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.tokens.TTL().Seconds()),
	}, nil
}

// Me loads the account a token was issued to
func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNoRecord) {
		return nil, &domain.NotFoundError{Message: MsgUserNotFound}
	}
	if err != nil {
		return nil, domain.Internal("me", err)
	}
	return user, nil
}

// SeedDemoUsers creates the demo admin and member unless they already exist
func (s *AuthService) SeedDemoUsers(ctx context.Context) error {
	demo := []struct {
		libraryID, email, password string
		role                       domain.Role
	}{
		{"LIB001", "admin@library.com", "admin123", domain.RoleAdmin},
		{"LIB002", "user@library.com", "user123", domain.RoleUser},
	}

	for _, d := range demo {
		exists, err := s.userRepo.ExistsByEmail(ctx, d.email)
		if err != nil {
			return domain.Internal("seed users", err)
		}
		if exists {
			continue
		}
		if _, err := s.createUser(ctx, d.libraryID, d.email, d.password, d.role); err != nil {
			// another replica may have seeded concurrently
			if domain.IsConflict(err, domain.ReasonDuplicate) {
				continue
			}
			return err
		}
		s.logger.Info("seeded demo user", slog.String("email", d.email), slog.String("role", string(d.role)))
	}
	return nil
}

func (s *AuthService) lookup(ctx context.Context, username string) (*domain.User, error) {
	if strings.Contains(username, "@") {
		return s.userRepo.GetByEmail(ctx, username)
	}
	return s.userRepo.GetByLibraryID(ctx, username)
}

func (s *AuthService) createUser(ctx context.Context, libraryID, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, domain.Internal("hash password", err)
	}

	user := &domain.User{
		LibraryID:    libraryID,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	switch err := s.userRepo.Create(ctx, user); {
	case errors.Is(err, domain.ErrDuplicateEmail):
		return nil, domain.NewConflict(domain.ReasonDuplicate, MsgEmailExists)
	case errors.Is(err, domain.ErrDuplicateLibraryID):
		return nil, domain.NewConflict(domain.ReasonDuplicate, MsgLibraryIDExists)
	case err != nil:
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, domain.Internal("create user", err)
	}
	return user, nil
}
