package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// TokenTypeBearer is the token_type reported with every access token.
const TokenTypeBearer = "bearer"

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	User      *domain.User
}

// AccountService registers users and authenticates them.
type AccountService interface {
	// Register creates a new active account with the user role.
	// Returns ErrUserExists when the username or email is taken.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)

	// Login verifies credentials and issues an access token.
	// Returns ErrInvalidCredentials or auth.ErrInactiveAccount.
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

// AccountServiceConfig holds the dependencies of an AccountService.
type AccountServiceConfig struct {
	Users         store.UserStore
	Tx            store.TxRunner
	JWT           auth.JWTService
	Hasher        auth.PasswordHasher
	Verifier      auth.PasswordVerifier
	TokenLifetime time.Duration
	Logger        *slog.Logger
}

type accountServiceImpl struct {
	users         store.UserStore
	tx            store.TxRunner
	jwt           auth.JWTService
	hasher        auth.PasswordHasher
	verifier      auth.PasswordVerifier
	tokenLifetime time.Duration
	logger        *slog.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(cfg AccountServiceConfig) (AccountService, error) {
	switch {
	case cfg.Users == nil:
		return nil, errors.New("users cannot be nil")
	case cfg.Tx == nil:
		return nil, errors.New("tx runner cannot be nil")
	case cfg.JWT == nil:
		return nil, errors.New("jwt service cannot be nil")
	case cfg.Hasher == nil:
		return nil, errors.New("password hasher cannot be nil")
	case cfg.Verifier == nil:
		return nil, errors.New("password verifier cannot be nil")
	case cfg.TokenLifetime <= 0:
		return nil, errors.New("token lifetime must be positive")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &accountServiceImpl{
		users:         cfg.Users,
		tx:            cfg.Tx,
		jwt:           cfg.JWT,
		hasher:        cfg.Hasher,
		verifier:      cfg.Verifier,
		tokenLifetime: cfg.TokenLifetime,
		logger:        log.With(slog.String("component", "account_service")),
	}, nil
}

// Register implements AccountService.
func (s *accountServiceImpl) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(input.Username, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.users.WithTx(tx)

		taken, err := txStore.ExistsByUsernameOrEmail(ctx, user.Username, user.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrUserExists
		}

		hashed, err := s.hasher.Hash(user.Password)
		if err != nil {
			return err
		}
		user.HashedPassword = hashed
		user.Password = ""

		return txStore.Create(ctx, user)
	})
	if err != nil {
		// A concurrent registration can win between the check and the insert.
		if errors.Is(err, ErrUserExists) || store.IsDuplicateError(err) {
			log.Warn("registration rejected",
				slog.String("username", user.Username),
				slog.String("reason", "username_or_email_taken"))
			return nil, ErrUserExists
		}
		if store.IsUnavailableError(err) {
			return nil, err
		}
		log.Error("failed to register user",
			slog.String("username", user.Username),
			slog.String("error", err.Error()))
		return nil, NewServiceError("account", "register", "failed to create user", err)
	}

	log.Info("user_registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username))
	return user, nil
}

// Login implements AccountService.
func (s *accountServiceImpl) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	username = domain.NormalizeUsername(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("login_failed",
				slog.String("username", username),
				slog.String("reason", "invalid_credentials"))
			return nil, ErrInvalidCredentials
		}
		if store.IsUnavailableError(err) {
			return nil, err
		}
		return nil, NewServiceError("account", "login", "failed to load user", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Warn("login_failed",
			slog.String("username", username),
			slog.String("reason", "invalid_credentials"))
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Warn("login_failed",
			slog.String("username", username),
			slog.String("reason", "user_inactive"))
		return nil, auth.ErrInactiveAccount
	}

	// Taken before signing and cut to whole seconds like the exp claim, so the
	// reported expiry is never later than the token's own.
	expiresAt := time.Now().Add(s.tokenLifetime).Truncate(time.Second)
	token, err := s.jwt.GenerateToken(ctx, user.Username, user.Role, s.tokenLifetime)
	if err != nil {
		return nil, NewServiceError("account", "login", "failed to issue token", err)
	}

	log.Info("login_successful",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username))

	return &LoginResult{
		Token:     token,
		TokenType: TokenTypeBearer,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// compile-time check
var _ AccountService = (*accountServiceImpl)(nil)
