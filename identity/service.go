package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Options struct {
	Store      Store       // required
	Authorizer *Authorizer // nil => NewAuthorizer() with DefaultPolicies
	Now        func() time.Time
	BcryptCost int // 0 => bcrypt.DefaultCost
	Logger     *zap.Logger
}

// Service is the identity facade used by the application layer.
type Service struct {
	store  Store
	authz  *Authorizer
	now    func() time.Time
	cost   int
	logger *zap.Logger
}

func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("identity: store is required")
	}
	s := &Service{
		store:  opts.Store,
		authz:  opts.Authorizer,
		now:    opts.Now,
		cost:   opts.BcryptCost,
		logger: opts.Logger,
	}
	if s.authz == nil {
		s.authz = NewAuthorizer()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

func (s *Service) Authorizer() *Authorizer { return s.authz }

// CreateUser registers userName and returns the new user id.
func (s *Service) CreateUser(ctx context.Context, userName, password string) (string, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return "", fmt.Errorf("identity: empty user name")
	}
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("identity: hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		UserName:     userName,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return "", err
	}
	s.logger.Info("user created", zap.String("user_id", u.ID))
	return u.ID, nil
}

// CheckPassword returns the user when password matches. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Service) CheckPassword(ctx context.Context, userName, password string) (User, error) {
	u, err := s.store.ByUserName(ctx, userName)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetUserName(ctx context.Context, userID string) (string, error) {
	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.UserName, nil
}

func (s *Service) IsInRole(ctx context.Context, userID, role string) (bool, error) {
	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.HasRole(role), nil
}

// AddToRole is idempotent.
func (s *Service) AddToRole(ctx context.Context, userID, role string) error {
	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.HasRole(role) {
		return nil
	}
	u.Roles = append(u.Roles, role)
	return s.store.Update(ctx, u)
}

// Authorize evaluates policy for the user.
func (s *Service) Authorize(ctx context.Context, userID, policy string) (bool, error) {
	u, err := s.store.ByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.authz.Allows(u, policy)
}

func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", userID))
	return nil
}

// ValidatePassword enforces at least 6 characters with an upper-case letter,
// a lower-case letter, a digit and a symbol.
func ValidatePassword(p string) error {
	var upper, lower, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r):
			symbol = true
		}
	}
	if len([]rune(p)) < 6 || !upper || !lower || !digit || !symbol {
		return ErrPasswordPolicy
	}
	return nil
}
