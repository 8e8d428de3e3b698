package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taskloop/backend/domain"
	"github.com/taskloop/backend/repository"
)

const minPasswordLength = 8

// Result is the outcome of a successful authentication action. The caller
// decides what to do with NextLocation; no control flow is signaled through
// errors or redirect markers.
type Result struct {
	User         *domain.User    `json:"user"`
	Session      *domain.Session `json:"session"`
	Token        string          `json:"token"`
	NextLocation string          `json:"next_location"`
}

// IdentityVerifier validates a third-party ID token and extracts the
// asserted identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// Identity is the profile asserted by an external provider.
type Identity struct {
	Email string
	Name  string
	Image string
}

type UseCase struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	hasher     *PasswordHasher
	signer     *TokenSigner
	google     IdentityVerifier
	sessionTTL time.Duration
	logger     *zap.Logger
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hasher *PasswordHasher,
	signer *TokenSigner,
	google IdentityVerifier,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *UseCase {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		signer:     signer,
		google:     google,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// SignUp registers a credentials account and signs it in.
func (uc *UseCase) SignUp(ctx context.Context, name, email, password string) (*Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "User"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ValidationError("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, domain.ValidationError("password must be at least 8 characters")
	}

	if _, err := uc.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, err
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("user signed up", zap.String("user_id", user.ID))
	return uc.establish(ctx, user, "/")
}

// SignIn authenticates a credentials account. Unknown email and wrong
// password both answer with the same error so the endpoint cannot be used
// to probe for accounts.
func (uc *UseCase) SignIn(ctx context.Context, email, password string) (*Result, error) {
	if email == "" || password == "" {
		return nil, domain.ValidationError("email and password are required")
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrInvalidLogin
		}
		return nil, err
	}

	if !user.HasPassword() || !uc.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidLogin
	}

	return uc.establish(ctx, user, "/")
}

// SignInWithGoogle validates a Google ID token and signs the asserted
// identity in, provisioning the account on first visit.
func (uc *UseCase) SignInWithGoogle(ctx context.Context, idToken string) (*Result, error) {
	if uc.google == nil {
		return nil, domain.ValidationError("google sign-in is not configured")
	}

	identity, err := uc.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.GetByEmail(ctx, identity.Email)
	if err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, err
		}
		name := identity.Name
		if name == "" {
			name = "User"
		}
		user, err = uc.users.Create(ctx, &domain.User{
			Name:  name,
			Email: identity.Email,
			Image: identity.Image,
		})
		if err != nil {
			return nil, err
		}
		uc.logger.Info("user provisioned via google", zap.String("user_id", user.ID))
	}

	return uc.establish(ctx, user, "/")
}

// SignOut revokes the session. The result points the caller at the login
// location.
func (uc *UseCase) SignOut(ctx context.Context, sessionID string) (*Result, error) {
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return nil, err
	}
	return &Result{NextLocation: "/login"}, nil
}

// ResolveSession validates a bearer token and returns the live session. An
// expired or revoked session answers as unauthenticated regardless of the
// token's own validity window.
func (uc *UseCase) ResolveSession(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := uc.signer.Parse(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	session, err := uc.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, session.ID)
		return nil, domain.ErrUnauthenticated
	}
	return session, nil
}

func (uc *UseCase) establish(ctx context.Context, user *domain.User, next string) (*Result, error) {
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(uc.sessionTTL),
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	token, err := uc.signer.Sign(session)
	if err != nil {
		return nil, err
	}

	return &Result{
		User:         user,
		Session:      session,
		Token:        token,
		NextLocation: next,
	}, nil
}
