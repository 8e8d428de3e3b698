package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/backend/domain"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]domain.User // keyed by id
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]domain.User)}
}

func (r *fakeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUsers) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return user, nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]domain.Session)}
}

func (r *fakeSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *fakeSessions) Save(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessions) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

type stubVerifier struct {
	identity *Identity
	err      error
}

func (v *stubVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func newTestUseCase(google IdentityVerifier) (*UseCase, *fakeUsers, *fakeSessions) {
	users := newFakeUsers()
	sessions := newFakeSessions()
	uc := New(
		users,
		sessions,
		NewPasswordHasher(),
		NewTokenSigner("test-secret", "taskloop-test"),
		google,
		time.Hour,
		nil,
	)
	return uc, users, sessions
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := newTestUseCase(nil)

	result, err := uc.SignUp(ctx, "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.Equal(t, "Alice", result.User.Name)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "/", result.NextLocation)
	// the hash never leaves through the wire shape, but it must exist
	assert.True(t, result.User.HasPassword())
	assert.NotEqual(t, "correct horse battery", result.User.PasswordHash)

	again, err := uc.SignIn(ctx, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, again.User.ID)
	assert.NotEqual(t, result.Session.ID, again.Session.ID)
}

func TestSignUpValidation(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := newTestUseCase(nil)

	tests := []struct {
		name     string
		email    string
		password string
		wantCode domain.ErrorCode
	}{
		{name: "bad email", email: "not-an-email", password: "long enough pass", wantCode: domain.ErrCodeInvalid},
		{name: "short password", email: "bob@example.com", password: "short", wantCode: domain.ErrCodeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.SignUp(ctx, "Bob", tt.email, tt.password)
			require.Error(t, err)
			assert.True(t, domain.IsDomainError(err, tt.wantCode))
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := newTestUseCase(nil)

	_, err := uc.SignUp(ctx, "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	_, err = uc.SignUp(ctx, "Imposter", "alice@example.com", "another password!")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	uc, _, _ := newTestUseCase(nil)

	_, err := uc.SignUp(ctx, "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	// wrong password and unknown account answer identically
	_, wrongPass := uc.SignIn(ctx, "alice@example.com", "wrong password!!")
	_, unknown := uc.SignIn(ctx, "nobody@example.com", "correct horse battery")

	require.Error(t, wrongPass)
	require.Error(t, unknown)
	assert.Equal(t, wrongPass.Error(), unknown.Error())
	assert.True(t, domain.IsDomainError(wrongPass, domain.ErrCodeUnauthorized))
}

func TestSignInWithGoogleProvisionsOnFirstVisit(t *testing.T) {
	ctx := context.Background()
	verifier := &stubVerifier{identity: &Identity{
		Email: "carol@example.com",
		Name:  "Carol",
		Image: "https://example.com/carol.png",
	}}
	uc, users, _ := newTestUseCase(verifier)

	first, err := uc.SignInWithGoogle(ctx, "stub-token")
	require.NoError(t, err)
	assert.Equal(t, "Carol", first.User.Name)
	assert.False(t, first.User.HasPassword())

	second, err := uc.SignInWithGoogle(ctx, "stub-token")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	// exactly one account exists
	users.mu.Lock()
	assert.Len(t, users.users, 1)
	users.mu.Unlock()
}

func TestSignInWithGoogleRejectsBadToken(t *testing.T) {
	ctx := context.Background()
	verifier := &stubVerifier{err: domain.NewError(domain.ErrCodeUnauthorized, "invalid google id token")}
	uc, _, _ := newTestUseCase(verifier)

	_, err := uc.SignInWithGoogle(ctx, "garbage")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestResolveSession(t *testing.T) {
	ctx := context.Background()
	uc, _, sessions := newTestUseCase(nil)

	result, err := uc.SignUp(ctx, "Alice", "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	session, err := uc.ResolveSession(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Session.ID, session.ID)
	assert.Equal(t, result.User.ID, session.UserID)

	t.Run("garbage token", func(t *testing.T) {
		_, err := uc.ResolveSession(ctx, "not.a.token")
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
	})

	t.Run("revoked session loses against valid token", func(t *testing.T) {
		out, err := uc.SignOut(ctx, result.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, "/login", out.NextLocation)

		_, err = uc.ResolveSession(ctx, result.Token)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
	})

	t.Run("expired session", func(t *testing.T) {
		fresh, err := uc.SignIn(ctx, "alice@example.com", "correct horse battery")
		require.NoError(t, err)

		sessions.mu.Lock()
		stale := sessions.sessions[fresh.Session.ID]
		stale.ExpiresAt = time.Now().Add(-time.Minute)
		sessions.sessions[fresh.Session.ID] = stale
		sessions.mu.Unlock()

		_, err = uc.ResolveSession(ctx, fresh.Token)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
	})
}

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner("test-secret", "taskloop-test")
	session := &domain.Session{
		ID:        "session-1",
		UserID:    "user-1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}

	token, err := signer.Sign(session)
	require.NoError(t, err)

	claims, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "user-1", claims.UserID)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenSigner("another-secret", "taskloop-test")
		_, err := other.Parse(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		past := &domain.Session{
			ID:        "session-2",
			UserID:    "user-1",
			CreatedAt: time.Now().Add(-2 * time.Hour),
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		token, err := signer.Sign(past)
		require.NoError(t, err)
		_, err = signer.Parse(token)
		assert.Error(t, err)
	})
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher()

	hash, err := hasher.Hash("samepassword")
	require.NoError(t, err)
	assert.NotEqual(t, "samepassword", hash)
	assert.True(t, hasher.Verify("samepassword", hash))
	assert.False(t, hasher.Verify("otherpassword", hash))

	// salted: two hashes of one password differ but both verify
	second, err := hasher.Hash("samepassword")
	require.NoError(t, err)
	assert.NotEqual(t, hash, second)
	assert.True(t, hasher.Verify("samepassword", second))
}
