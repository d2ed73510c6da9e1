package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/scientia-api/internal/dto"
	"github.com/noah-isme/scientia-api/internal/models"
	"github.com/noah-isme/scientia-api/internal/repository"
)

// ErrInvalidCredentials is returned for any failed login, whatever the cause.
var ErrInvalidCredentials = errors.New("invalid credentials")

var classInputPattern = regexp.MustCompile(`^(?i:class\s*)?(\d{1,2})(?:\s*-?\s*([A-Za-z]))?$`)

// AuthConfig configures token issuance.
type AuthConfig struct {
	Secret string
	TTL    time.Duration
	Now    func() time.Time
}

// AuthService authenticates users and registers student accounts.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error)
}

type authService struct {
	users     repository.UserRepository
	validator *validator.Validate
	config    AuthConfig
	logger    zerolog.Logger
}

// NewAuthService constructs the auth service.
func NewAuthService(users repository.UserRepository, validate *validator.Validate, config AuthConfig, logger zerolog.Logger) AuthService {
	if config.TTL <= 0 {
		config.TTL = 12 * time.Hour
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &authService{
		users:     users,
		validator: validate,
		config:    config,
		logger:    logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, classify(err, "")
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		classified := classify(err, "")
		if errors.Is(classified, ErrNotFound) {
			return dto.AuthResponse{}, &Error{Kind: ErrValidation, Message: "invalid credentials", Err: ErrInvalidCredentials}
		}
		return dto.AuthResponse{}, classified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn().Str("username", user.Username).Msg("password mismatch")
		return dto.AuthResponse{}, &Error{Kind: ErrValidation, Message: "invalid credentials", Err: ErrInvalidCredentials}
	}
	if req.Role != "" && !strings.EqualFold(req.Role, string(user.Role)) {
		return dto.AuthResponse{}, &Error{Kind: ErrValidation, Message: "invalid credentials", Err: ErrInvalidCredentials}
	}

	return s.issue(user)
}

// Register creates a student account and its roster entry. The class is given as
// "10-A", "10 A", "10A" or "10", the last meaning section A.
func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, classify(err, "")
	}

	class, ok := ParseClassInput(req.Class)
	if !ok {
		return dto.AuthResponse{}, validationError("class must look like 10-A, 10 A or 10")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, &Error{Kind: ErrStore, Message: "could not secure password", Err: err}
	}

	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
	}
	enrollment := &repository.StudentEnrollment{RegNo: strings.TrimSpace(req.RegNo), Class: class}
	if err := s.users.Register(ctx, &user, enrollment); err != nil {
		classified := classify(err, "")
		if errors.Is(classified, ErrConflict) {
			return dto.AuthResponse{}, conflictError("username or registration number already taken", err)
		}
		return dto.AuthResponse{}, classified
	}

	s.logger.Info().Uint("user_id", user.ID).Str("reg_no", enrollment.RegNo).Msg("student registered")
	return s.issue(user)
}

func (s *authService) issue(user models.User) (dto.AuthResponse, error) {
	now := s.config.Now()
	expiresAt := now.Add(s.config.TTL)
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"role":     string(user.Role),
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return dto.AuthResponse{}, &Error{Kind: ErrStore, Message: "could not issue token", Err: err}
	}
	return dto.AuthResponse{Token: token, ExpiresAt: expiresAt.UTC(), User: dto.NewUserResponse(user)}, nil
}

// ParseClassInput turns free-form class input into a stored class key.
func ParseClassInput(raw string) (repository.ClassKey, bool) {
	match := classInputPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return repository.ClassKey{}, false
	}
	section := "A"
	if match[2] != "" {
		section = strings.ToUpper(match[2])
	}
	return repository.ClassKey{Name: models.ClassName(match[1]), Section: section}, true
}
