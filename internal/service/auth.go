package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	"github.com/totegamma/smp/internal/domain"
	"github.com/totegamma/smp/internal/usecase"
)

var tracer = otel.Tracer("service")

type AuthService struct {
	users usecase.UserStore
	cache *cache.Cache
}

func NewAuthService(users usecase.UserStore) *AuthService {
	return &AuthService{
		users: users,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// credentialKey binds the credentials to the stored hash, so a password
// changed by another process invalidates the entry.
func credentialKey(userID, password, storedHash string) string {
	sum := sha256.Sum256([]byte(userID + "\x00" + password + "\x00" + storedHash))
	return hex.EncodeToString(sum[:])
}

// AuthBasic verifies HTTP Basic credentials against the user store. Verified
// credentials are remembered for a few minutes to spare bcrypt on every
// request.
func (s *AuthService) AuthBasic(ctx context.Context, userID, password string) (domain.User, error) {
	ctx, span := tracer.Start(ctx, "Service.Auth.AuthBasic")
	defer span.End()

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, domain.StorageFailure(err)
	}
	if user == nil {
		return domain.User{}, domain.AuthenticationMissing("invalid credentials")
	}

	key := credentialKey(userID, password, user.PasswordHash)
	if cached, found := s.cache.Get(key); found {
		return cached.(domain.User), nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.AuthenticationMissing("invalid credentials")
	}

	s.cache.Set(key, *user, cache.DefaultExpiration)
	return *user, nil
}

// SetPassword creates the user or replaces its password.
func (s *AuthService) SetPassword(ctx context.Context, userID, password string) (domain.User, error) {
	if userID == "" || password == "" {
		return domain.User{}, domain.MalformedPayload("user id and password are required", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, errors.Wrap(err, "hash password")
	}
	user := domain.User{ID: userID, PasswordHash: string(hash)}

	existing, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		user, err = s.users.Update(ctx, user)
	} else {
		user, err = s.users.Create(ctx, user)
	}
	if err != nil {
		return domain.User{}, err
	}
	s.cache.Flush()
	return user, nil
}
