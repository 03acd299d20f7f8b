package application

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/torque-rentals/service-rental/internal/common/auth"
	"github.com/torque-rentals/service-rental/internal/common/domain"
	userDomain "github.com/torque-rentals/service-rental/internal/domain/user"
)

const minPasswordLength = 6

// SignUpRequest is the request DTO for account registration.
type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// SignInRequest is the request DTO for credential exchange.
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenDTO carries an issued access token.
type TokenDTO struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserDTO   `json:"user"`
}

// AuthService implements registration and credential exchange.
type AuthService struct {
	repo   userDomain.UserRepository
	jwt    *auth.JWTManager
	logger *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo userDomain.UserRepository, jwt *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{repo: repo, jwt: jwt, logger: logger}
}

// SignUp registers a new account. Emails are unique; a duplicate
// registration is rejected with a conflict.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*UserDTO, error) {
	role, err := userDomain.ParseRole(req.Role)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.NewValidationError("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	u, err := userDomain.NewUser(req.Name, req.Email, string(hash), req.Phone, role)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", u.ID().String()),
		zap.String("role", string(u.Role())),
	)
	result := toUserDTO(u)
	return &result, nil
}

// SignIn verifies credentials and issues an access token.
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*TokenDTO, error) {
	u, err := s.repo.FindByEmail(ctx, userDomain.NormalizeEmail(req.Email))
	if err != nil {
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash()), []byte(req.Password)); err != nil {
		return nil, domain.NewUnauthorizedError("invalid email or password")
	}

	token, expiresAt, err := s.jwt.Generate(u.ID(), string(u.Role()))
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	s.logger.Info("user signed in", zap.String("user_id", u.ID().String()))
	return &TokenDTO{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        toUserDTO(u),
	}, nil
}
