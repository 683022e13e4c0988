package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/postboard/apiv1/logging"
	"github.com/postboard/apiv1/models"
	"github.com/postboard/apiv1/tokens"
	"github.com/postboard/apiv1/utils"
)

// UserStore is the part of the credential store the auth flow needs.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
}

// AttemptLimiter is consulted once per signin attempt.
type AttemptLimiter interface {
	Consume(key string) error
}

type TokenIssuer interface {
	Issue(subjectID, email string) (string, error)
}

// FederatedVerifier checks a Google ID token presented at federated login.
type FederatedVerifier interface {
	Verify(ctx context.Context, token string) (*tokens.GoogleClaims, error)
}

type AuthService struct {
	users     UserStore
	limiter   AttemptLimiter
	tokens    TokenIssuer
	federated FederatedVerifier
	hashCost  int
	logger    logging.Logger
}

type AuthOption func(*AuthService)

func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) {
		s.hashCost = cost
	}
}

// WithFederatedVerifier makes GoogleLogin verify the token it is given.
func WithFederatedVerifier(v FederatedVerifier) AuthOption {
	return func(s *AuthService) {
		s.federated = v
	}
}

func NewAuthService(users UserStore, limiter AttemptLimiter, issuer TokenIssuer, logger logging.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:    users,
		limiter:  limiter,
		tokens:   issuer,
		hashCost: utils.DEFAULT_HASH_COST,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type GoogleProfile struct {
	Email string
	Name  string
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, string, error) {
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return nil, "", utils.ErrInvalidInput
	}

	email := utils.NormalizeEmail(in.Email)
	if email == "" {
		return nil, "", utils.ErrInvalidInput
	}

	_, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", utils.ErrConflict
	case !errors.Is(err, utils.ErrNotFound):
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	if err := utils.CheckPasswordPolicy(in.Password); err != nil {
		return nil, "", err
	}

	hash, err := utils.HashPassword(in.Password, s.hashCost)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.CreateUser(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(utils.SanitizeText(in.FirstName) + " " + utils.SanitizeText(in.LastName)),
	})
	if err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, "", utils.ErrConflict
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return user, token, nil
}

// Signin consumes one limiter point per attempt, whatever the outcome.
func (s *AuthService) Signin(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", utils.ErrInvalidInput
	}

	email = utils.NormalizeEmail(email)
	if email == "" {
		return nil, "", utils.ErrInvalidInput
	}

	if err := s.limiter.Consume(email); err != nil {
		s.logger.Warn(ctx, "signin rate limited", "email", email)
		return nil, "", err
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, "", utils.ErrNotFound
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	if err := utils.ComparePasswords(user.PasswordHash, password); err != nil {
		return nil, "", utils.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) GoogleLogin(ctx context.Context, profile GoogleProfile, providedToken string) (string, error) {
	email := utils.NormalizeEmail(profile.Email)
	name := utils.SanitizeText(profile.Name)
	if email == "" || name == "" {
		return "", utils.ErrInvalidInput
	}

	if s.federated != nil {
		claims, err := s.federated.Verify(ctx, providedToken)
		if err != nil {
			return "", err
		}
		if !claims.EmailVerified || utils.NormalizeEmail(claims.Email) != email {
			return "", utils.ErrInvalidCredentials
		}
	}

	user, err := s.findOrCreateFederatedUser(ctx, email, name)
	if err != nil {
		return "", err
	}

	return s.tokens.Issue(user.ID, user.Email)
}

func (s *AuthService) findOrCreateFederatedUser(ctx context.Context, email, name string) (*models.User, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	password, err := utils.ThrowawayPassword()
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := utils.HashPassword(password, s.hashCost)
	if err != nil {
		return nil, err
	}

	user, err = s.users.CreateUser(ctx, &models.User{Email: email, PasswordHash: hash, Name: name})
	if errors.Is(err, utils.ErrConflict) {
		// lost a race with a concurrent first login
		return s.users.FindUserByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info(ctx, "federated user created", "user_id", user.ID)
	return user, nil
}
