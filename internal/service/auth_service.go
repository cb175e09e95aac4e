package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/config"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ============================================
// Auth Service
// ============================================

const MinPasswordLength = 8

var (
	namePattern = regexp.MustCompile(`^[A-Za-z ]{2,60}$`)
	validate    = validator.New()
)

// Claims are the access token claims. Role is informational; authorization
// always uses the role reloaded from storage.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type AuthResult struct {
	User         *repository.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*repository.User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(token string) (*Claims, error)
	// ResolveActor reloads the user behind a token and applies the approval
	// gate. It runs on every authenticated request.
	ResolveActor(ctx context.Context, userID string) (*Actor, error)
	// UserIDFromToken validates token and resolves its actor in one step.
	UserIDFromToken(ctx context.Context, token string) (string, error)
}

type authService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	cache    ActorCache
	now      func() time.Time
}

func NewAuthService(cfg *config.Config, userRepo repository.UserRepository, cache ActorCache, now func() time.Time) AuthService {
	return &authService{cfg: cfg, userRepo: userRepo, cache: cache, now: now}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName checks a person name: 2 to 60 letters and spaces.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return Validation("InvalidName", "Name must be 2-60 characters and contain only letters and spaces")
	}
	return nil
}

// HashPassword enforces the minimum length and bcrypt-hashes the password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", Validation("WeakPassword", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*repository.User, error) {
	name := strings.TrimSpace(in.Name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, Validation("InvalidEmail", "A valid email is required")
	}

	role := in.Role
	if role == "" {
		role = types.RoleMember
	}
	if !types.IsRegistrableRole(role) {
		return nil, Validation("InvalidRole", "Role must be Admin or Member")
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	user := &repository.User{
		Name:        name,
		Email:       email,
		Password:    hashed,
		Role:        role,
		AdminAccess: types.DefaultAdminAccess(role),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsDuplicate(err, repository.ConstraintUserEmail) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Valid credentials are not enough for an unapproved Admin.
	if err := gate(actorFromUser(user)); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	// Consuming first makes the delete the claim: of two concurrent refreshes
	// with the same token only one gets the row back.
	rt, err := s.userRepo.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if rt == nil || s.now().After(rt.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, rt.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	if err := gate(actorFromUser(user)); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.userRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ResolveActor serves Member and SuperAdmin actors from the cache. Admin
// actors are always reloaded so a revoked approval takes effect on the next
// request, whatever the cache holds.
func (s *authService) ResolveActor(ctx context.Context, userID string) (*Actor, error) {
	if actor, ok := s.cache.Get(ctx, userID); ok && actor.Role != types.RoleAdmin {
		return actor, nil
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}

	actor := actorFromUser(user)
	if err := gate(actor); err != nil {
		return nil, err
	}
	if actor.Role != types.RoleAdmin {
		s.cache.Set(ctx, actor)
	}
	return actor, nil
}

func (s *authService) UserIDFromToken(ctx context.Context, token string) (string, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return "", err
	}
	actor, err := s.ResolveActor(ctx, claims.Subject)
	if err != nil {
		return "", err
	}
	return actor.ID, nil
}

func (s *authService) issueTokens(ctx context.Context, user *repository.User) (*AuthResult, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTokenTTL())

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	rt := &repository.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL()),
	}
	if err := s.userRepo.SaveRefreshToken(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: rt.Token,
		ExpiresAt:    expiresAt,
	}, nil
}
